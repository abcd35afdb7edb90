package data

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Converters from L1JTW MySQL dumps (skills.sql, weapon.sql, armor.sql,
// etcitem.sql) to the YAML tables loaded above.

// ParseValues extracts column values from a single INSERT INTO ... VALUES (...) line.
func ParseValues(line string) []string {
	upper := strings.ToUpper(line)
	idx := strings.Index(upper, "VALUES")
	if idx == -1 {
		return nil
	}
	rest := line[idx+6:]
	start := strings.IndexByte(rest, '(')
	if start == -1 {
		return nil
	}
	end := strings.LastIndexByte(rest, ')')
	if end == -1 || end <= start {
		return nil
	}
	inner := rest[start+1 : end]

	var values []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(inner); i++ {
		ch := inner[i]
		if inQuote {
			if ch == '\'' {
				if i+1 < len(inner) && inner[i+1] == '\'' {
					cur.WriteByte('\'')
					i++
				} else {
					inQuote = false
				}
			} else {
				cur.WriteByte(ch)
			}
		} else {
			switch ch {
			case '\'':
				inQuote = true
			case ',':
				values = append(values, strings.TrimSpace(cur.String()))
				cur.Reset()
			default:
				cur.WriteByte(ch)
			}
		}
	}
	values = append(values, strings.TrimSpace(cur.String()))

	for i, v := range values {
		if strings.EqualFold(v, "null") {
			values[i] = ""
		}
	}
	return values
}

// parseInserts returns every parsed INSERT row of a dump.
func parseInserts(raw []byte) [][]string {
	var rows [][]string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(strings.ToUpper(line), "INSERT INTO") {
			continue
		}
		if vals := ParseValues(line); vals != nil {
			rows = append(rows, vals)
		}
	}
	return rows
}

func readInserts(path string) ([][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseInserts(raw), nil
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	v, _ := strconv.Atoi(s)
	return v
}

func atoi32(s string) int32 { return int32(atoi(s)) }
func atoi16(s string) int16 { return int16(atoi(s)) }

// skillsFromRows maps skills.sql rows: 0:skill_id 1:name 2:skill_level.
func skillsFromRows(rows [][]string) []skillEntry {
	var skills []skillEntry
	for _, r := range rows {
		if len(r) < 3 {
			continue
		}
		skills = append(skills, skillEntry{
			SkillID:    atoi32(r[0]),
			Name:       r[1],
			SkillLevel: atoi(r[2]),
		})
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i].SkillID < skills[j].SkillID })
	return skills
}

// weapon columns: 0:item_id 1:name 4:type 7:invgfx 23:add_str 25:add_dex 26:add_int
func weaponsFromRows(rows [][]string) []itemEntry {
	var out []itemEntry
	for _, r := range rows {
		if len(r) < 27 {
			continue
		}
		out = append(out, itemEntry{
			ItemID: atoi32(r[0]), Name: r[1], Category: "weapon", Type: r[4],
			InvGfx: atoi32(r[7]), AddStr: atoi16(r[23]), AddDex: atoi16(r[25]), AddInt: atoi16(r[26]),
		})
	}
	return out
}

// armor columns: 0:item_id 1:name 4:type 7:invgfx 19:add_str 21:add_dex 22:add_int
func armorsFromRows(rows [][]string) []itemEntry {
	var out []itemEntry
	for _, r := range rows {
		if len(r) < 23 {
			continue
		}
		out = append(out, itemEntry{
			ItemID: atoi32(r[0]), Name: r[1], Category: "armor", Type: r[4],
			InvGfx: atoi32(r[7]), AddStr: atoi16(r[19]), AddDex: atoi16(r[21]), AddInt: atoi16(r[22]),
		})
	}
	return out
}

// etcitem columns: 0:item_id 1:name 4:item_type 8:invgfx
func etcItemsFromRows(rows [][]string) []itemEntry {
	var out []itemEntry
	for _, r := range rows {
		if len(r) < 9 {
			continue
		}
		out = append(out, itemEntry{
			ItemID: atoi32(r[0]), Name: r[1], Category: "etcitem", Type: r[4], InvGfx: atoi32(r[8]),
		})
	}
	return out
}

func writeYAML(path string, data any, comment string) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if comment != "" {
		fmt.Fprintln(f, comment)
		fmt.Fprintln(f)
	}
	if _, err := f.Write(out); err != nil {
		return err
	}
	return f.Close()
}

// ConvertSkills writes skill_list.yaml from skills.sql and returns the
// number of skills.
func ConvertSkills(sqlDir, outDir string) (int, error) {
	rows, err := readInserts(filepath.Join(sqlDir, "skills.sql"))
	if err != nil {
		return 0, err
	}
	skills := skillsFromRows(rows)
	return len(skills), writeYAML(filepath.Join(outDir, "skill_list.yaml"),
		skillListFile{Skills: skills},
		"# Skill definitions - converted from L1JTW skills.sql")
}

// ConvertItems merges weapon.sql, armor.sql and etcitem.sql into
// item_list.yaml and returns the number of items.
func ConvertItems(sqlDir, outDir string) (int, error) {
	var items []itemEntry
	for _, src := range []struct {
		file string
		conv func([][]string) []itemEntry
	}{
		{"weapon.sql", weaponsFromRows},
		{"armor.sql", armorsFromRows},
		{"etcitem.sql", etcItemsFromRows},
	} {
		rows, err := readInserts(filepath.Join(sqlDir, src.file))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", src.file, err)
		}
		items = append(items, src.conv(rows)...)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ItemID < items[j].ItemID })
	return len(items), writeYAML(filepath.Join(outDir, "item_list.yaml"),
		itemListFile{Items: items},
		"# Item templates - converted from L1JTW weapon.sql, armor.sql, etcitem.sql")
}
