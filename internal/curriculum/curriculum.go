// Package curriculum holds the curated level lists the review engine ships
// with, and seeds the matching kanji cards.
package curriculum

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/phrazzld/kioku-api/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed levels.yaml
var levelsYAML []byte

// ErrInvalidCurriculum is returned when level list data is malformed.
var ErrInvalidCurriculum = errors.New("invalid curriculum")

// Level is one curated level, e.g. JLPT N5, with its kanji in teaching order.
type Level struct {
	ID    string   `yaml:"id"`
	Name  string   `yaml:"name"`
	Kanji []string `yaml:"kanji"`
}

// List is a taxonomy of levels.
type List struct {
	Taxonomy string  `yaml:"taxonomy"`
	Name     string  `yaml:"name"`
	Levels   []Level `yaml:"levels"`
}

// Curriculum is the full set of curated lists.
type Curriculum struct {
	Lists []List `yaml:"lists"`
}

// LevelRef identifies a level together with its size.
type LevelRef struct {
	Taxonomy string `json:"taxonomy"`
	Level    string `json:"level"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
}

// Default returns the embedded curriculum.
func Default() (*Curriculum, error) {
	return Parse(levelsYAML)
}

// Parse decodes and validates curriculum YAML. Duplicate kanji within a level
// are dropped, keeping the first occurrence.
func Parse(data []byte) (*Curriculum, error) {
	var c Curriculum
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCurriculum, err)
	}

	seen := make(map[string]bool)
	for i := range c.Lists {
		list := &c.Lists[i]
		if strings.TrimSpace(list.Taxonomy) == "" {
			return nil, fmt.Errorf("%w: list %d has no taxonomy", ErrInvalidCurriculum, i)
		}
		if list.Taxonomy == domain.TaxonomyCustom || strings.Contains(list.Taxonomy, ":") {
			return nil, fmt.Errorf("%w: taxonomy %q is reserved or malformed", ErrInvalidCurriculum, list.Taxonomy)
		}
		for j := range list.Levels {
			level := &list.Levels[j]
			if strings.TrimSpace(level.ID) == "" {
				return nil, fmt.Errorf("%w: %s level %d has no id", ErrInvalidCurriculum, list.Taxonomy, j)
			}
			tag := list.Taxonomy + ":" + level.ID
			if seen[tag] {
				return nil, fmt.Errorf("%w: duplicate level %s", ErrInvalidCurriculum, tag)
			}
			seen[tag] = true
			level.Kanji = dedupe(level.Kanji)
		}
	}
	return &c, nil
}

func dedupe(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Terms returns the curated order of a level. The boolean is false for unknown levels.
func (c *Curriculum) Terms(taxonomy, level string) ([]string, bool) {
	for _, list := range c.Lists {
		if list.Taxonomy != taxonomy {
			continue
		}
		for _, l := range list.Levels {
			if l.ID == level {
				return slices.Clone(l.Kanji), true
			}
		}
	}
	return nil, false
}

// Levels lists every curated level in file order.
func (c *Curriculum) Levels() []LevelRef {
	var refs []LevelRef
	for _, list := range c.Lists {
		for _, l := range list.Levels {
			refs = append(refs, LevelRef{
				Taxonomy: list.Taxonomy,
				Level:    l.ID,
				Name:     l.Name,
				Count:    len(l.Kanji),
			})
		}
	}
	return refs
}

// Cards builds one kanji card per distinct term, tagged with every level that
// lists it. Cards are returned in first-appearance order.
func (c *Curriculum) Cards(now time.Time) []*domain.Card {
	var order []string
	tags := make(map[string][]string)
	for _, list := range c.Lists {
		for _, l := range list.Levels {
			tag := list.Taxonomy + ":" + l.ID
			for _, k := range l.Kanji {
				if _, ok := tags[k]; !ok {
					order = append(order, k)
				}
				tags[k] = append(tags[k], tag)
			}
		}
	}

	cards := make([]*domain.Card, 0, len(order))
	for _, k := range order {
		cards = append(cards, &domain.Card{
			ID:        domain.MakeCardID(domain.CardTypeKanji, k),
			Type:      domain.CardTypeKanji,
			Term:      k,
			Levels:    tags[k],
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return cards
}
