package validator

import (
	_ "embed"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/maturityd/internal/maturity"
)

//go:embed checklist.yaml
var checklistYAML []byte

// Category is a hardening dimension evaluated independently at each level.
type Category string

const (
	CategorySecurity    Category = "security"
	CategoryReliability Category = "reliability"
	CategoryScalability Category = "scalability"
)

// Categories lists every category in evaluation order.
func Categories() []Category {
	return []Category{CategorySecurity, CategoryReliability, CategoryScalability}
}

// Requirement is one checklist item. Name keys the project's satisfaction
// map; Blocker is the remediation text shown when the item is unmet.
type Requirement struct {
	Name        string `koanf:"name"`
	Description string `koanf:"description"`
	Blocker     string `koanf:"blocker"`
}

// Checklist maps each maturity level to its per-category requirements.
type Checklist map[maturity.Level]map[Category][]Requirement

// Requirements returns the items for one level and category. Missing
// entries return nil, which the load-time validation rules out for the
// known levels and categories.
func (c Checklist) Requirements(level maturity.Level, cat Category) []Requirement {
	return c[level][cat]
}

// LoadChecklist parses and validates the embedded checklist table.
func LoadChecklist() (Checklist, error) {
	return loadChecklist(checklistYAML)
}

func loadChecklist(b []byte) (Checklist, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(b), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("parsing checklist: %w", err)
	}

	var raw map[string]map[string][]Requirement
	if err := k.Unmarshal("levels", &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling checklist: %w", err)
	}

	cl := make(Checklist, len(raw))
	for name, cats := range raw {
		level := maturity.Level(name)
		if !level.Valid() {
			return nil, fmt.Errorf("checklist references unknown level %q", name)
		}

		cl[level] = make(map[Category][]Requirement, len(cats))
		for catName, reqs := range cats {
			cat := Category(catName)
			switch cat {
			case CategorySecurity, CategoryReliability, CategoryScalability:
			default:
				return nil, fmt.Errorf("checklist level %s references unknown category %q", level, catName)
			}
			for _, r := range reqs {
				if r.Name == "" {
					return nil, fmt.Errorf("checklist level %s category %s has a requirement without a name", level, cat)
				}
			}
			cl[level][cat] = reqs
		}
	}

	for _, level := range maturity.Levels() {
		for _, cat := range Categories() {
			if len(cl[level][cat]) == 0 {
				return nil, fmt.Errorf("checklist level %s category %s has no requirements", level, cat)
			}
		}
	}

	return cl, nil
}
