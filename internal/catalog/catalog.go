// Package catalog holds the closed lists of character and armament names
// and the fuzzy matcher that snaps OCR'd or hand-typed names onto them.
package catalog

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/timelocker/tracker/internal/model"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog is an immutable set of canonical names. Order of both lists is
// significant: it drives tie-breaking in Correct and the order of Complement.
type Catalog struct {
	characters []string
	armaments  []string
	known      map[string]struct{}
}

type catalogFile struct {
	Armaments  []string `yaml:"armaments"`
	Characters []string `yaml:"characters"`
}

// Parse builds a Catalog from YAML with top-level armaments and characters
// lists.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "catalog: parse")
	}
	if len(f.Characters) == 0 {
		return nil, eris.New("catalog: no characters")
	}
	if len(f.Armaments) == 0 {
		return nil, eris.New("catalog: no armaments")
	}

	c := &Catalog{
		characters: f.Characters,
		armaments:  f.Armaments,
		known:      make(map[string]struct{}, len(f.Characters)),
	}
	for _, name := range f.Characters {
		if _, dup := c.known[name]; dup {
			return nil, eris.Errorf("catalog: duplicate character %q", name)
		}
		c.known[name] = struct{}{}
	}
	return c, nil
}

var loadDefault = sync.OnceValue(func() *Catalog {
	c, err := Parse(catalogYAML)
	if err != nil {
		panic(err)
	}
	return c
})

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	return loadDefault()
}

// Characters returns a copy of the character names in catalog order.
func (c *Catalog) Characters() []string {
	return append([]string(nil), c.characters...)
}

// Armaments returns a copy of the armament names in catalog order.
func (c *Catalog) Armaments() []string {
	return append([]string(nil), c.armaments...)
}

// Valid reports whether name is exactly a catalog character. Names are
// interpolated into SQL only after passing this check.
func (c *Catalog) Valid(name string) bool {
	_, ok := c.known[name]
	return ok
}

// Correct returns input unchanged when its upper-case form is a catalog
// character, otherwise the character nearest to it by edit distance. Ties go
// to the entry that comes first in the catalog.
func (c *Catalog) Correct(input string) string {
	upper := strings.ToUpper(input)
	if _, ok := c.known[upper]; ok {
		return input
	}

	best := c.characters[0]
	bestDist := Levenshtein(upper, best)
	for _, name := range c.characters[1:] {
		if d := Levenshtein(upper, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

// Complement returns one entry per catalog armament, in catalog order. Names
// found in arms keep their level; the rest get level 0. Underscores in the
// output names are replaced by spaces for display.
func (c *Catalog) Complement(arms []model.Armament) []model.Armament {
	byName := make(map[string]model.Armament, len(arms))
	for _, a := range arms {
		if _, seen := byName[a.Name]; !seen {
			byName[a.Name] = a
		}
	}

	out := make([]model.Armament, 0, len(c.armaments))
	for _, name := range c.armaments {
		a, ok := byName[name]
		if !ok {
			a = model.Armament{Name: name, Level: model.LevelOf(0)}
		}
		a.Name = strings.ReplaceAll(a.Name, "_", " ")
		out = append(out, a)
	}
	return out
}

// Levenshtein returns the edit distance between a and b with unit costs,
// computed over runes with two rolling rows.
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)
	for i := range prev {
		prev[i] = i
	}
	for j := 1; j <= len(rb); j++ {
		curr[0] = j
		for i := 1; i <= len(ra); i++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[i] = min(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(ra)]
}
