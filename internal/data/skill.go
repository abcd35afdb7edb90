package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// SkillInfo holds a single skill template as shown on the stats page.
type SkillInfo struct {
	SkillID    int32
	Name       string
	SkillLevel int // 1-based level group (wizard 1-10, knight 11-12, etc.)
	Cap        int // highest trainable value (0 = use DefaultSkillCap)
}

// DefaultSkillCap applies to skills whose template sets no cap.
const DefaultSkillCap = 100

// SkillTable holds all skills indexed by SkillID.
type SkillTable struct {
	skills map[int32]*SkillInfo
	order  []*SkillInfo // ascending SkillID, the enumeration order of the stats page
}

// Get returns a skill by ID, or nil if not found.
func (t *SkillTable) Get(skillID int32) *SkillInfo {
	return t.skills[skillID]
}

// Count returns total loaded skills.
func (t *SkillTable) Count() int {
	return len(t.skills)
}

// All returns every skill ordered by SkillID. The slice is shared; do not modify.
func (t *SkillTable) All() []*SkillInfo {
	return t.order
}

// --- YAML loading ---

type skillEntry struct {
	SkillID    int32  `yaml:"skill_id"`
	Name       string `yaml:"name"`
	SkillLevel int    `yaml:"skill_level"`
	Cap        int    `yaml:"cap,omitempty"`
}

type skillListFile struct {
	Skills []skillEntry `yaml:"skills"`
}

// LoadSkillTable loads skill definitions from YAML.
func LoadSkillTable(path string) (*SkillTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skills: %w", err)
	}
	return parseSkillTable(raw)
}

func parseSkillTable(raw []byte) (*SkillTable, error) {
	var f skillListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse skills: %w", err)
	}
	t := &SkillTable{
		skills: make(map[int32]*SkillInfo, len(f.Skills)),
		order:  make([]*SkillInfo, 0, len(f.Skills)),
	}
	for i := range f.Skills {
		e := &f.Skills[i]
		if _, dup := t.skills[e.SkillID]; dup {
			return nil, fmt.Errorf("parse skills: duplicate skill_id %d", e.SkillID)
		}
		capValue := e.Cap
		if capValue <= 0 {
			capValue = DefaultSkillCap
		}
		info := &SkillInfo{
			SkillID:    e.SkillID,
			Name:       e.Name,
			SkillLevel: e.SkillLevel,
			Cap:        capValue,
		}
		t.skills[e.SkillID] = info
		t.order = append(t.order, info)
	}
	sort.Slice(t.order, func(i, j int) bool {
		return t.order[i].SkillID < t.order[j].SkillID
	})
	return t, nil
}
