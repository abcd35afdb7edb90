package main

import (
	"fmt"
	"path/filepath"

	"github.com/l1jgo/webstats/internal/data"
	"github.com/spf13/cobra"
)

var (
	convertSQLDir string
	convertOutDir string
)

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <skills|items|all>",
		Short: "Convert L1JTW SQL dumps to the YAML data tables",
		Long: `Convert L1JTW MySQL dump files to the YAML tables read at boot.

  skills   skills.sql -> skill_list.yaml
  items    weapon.sql + armor.sql + etcitem.sql -> item_list.yaml
  all      both`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"skills", "items", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(args[0])
		},
	}
	cmd.Flags().StringVar(&convertSQLDir, "sqldir", filepath.Join("..", "l1j_java", "db", "Taiwan"), "SQL source directory")
	cmd.Flags().StringVar(&convertOutDir, "outdir", filepath.Join("data", "yaml"), "YAML output directory")
	return cmd
}

func runConvert(what string) error {
	converters := map[string]func(string, string) (int, error){
		"skills": data.ConvertSkills,
		"items":  data.ConvertItems,
	}
	order := []string{what}
	if what == "all" {
		order = []string{"skills", "items"}
	}
	for _, name := range order {
		fn, ok := converters[name]
		if !ok {
			return fmt.Errorf("unknown table %q (skills, items, all)", name)
		}
		n, err := fn(convertSQLDir, convertOutDir)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		printStat(name, n)
	}
	return nil
}
