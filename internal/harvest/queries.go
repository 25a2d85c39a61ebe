package harvest

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultStaticQueries are fielded seeds searched before any random variation.
var DefaultStaticQueries = []string{
	"intitle:adventure", "intitle:love", "intitle:war", "intitle:peace",
	"subject:fiction", "subject:history", "subject:science", "subject:biography",
	"inauthor:rowling", "inauthor:tolkien", "inauthor:asimov", "inauthor:shakespeare",
}

// DefaultBaseTerms are expanded with a random letter to widen the result pool.
var DefaultBaseTerms = []string{
	"fiction", "nonfiction", "dragon", "magic", "science", "history",
	"adventure", "war", "hero", "legend", "myth", "fantasy", "romance",
	"horror", "biography", "school", "travel", "philosophy", "art", "technology",
}

// DefaultVariations is the number of variations generated per base term.
const DefaultVariations = 20

// QuerySet describes the queries of a harvest run.
type QuerySet struct {
	Static     []string `yaml:"static"`
	BaseTerms  []string `yaml:"base_terms"`
	Variations int      `yaml:"variations"`
}

// DefaultQuerySet returns the built-in seeds.
func DefaultQuerySet() QuerySet {
	return QuerySet{
		Static:     append([]string(nil), DefaultStaticQueries...),
		BaseTerms:  append([]string(nil), DefaultBaseTerms...),
		Variations: DefaultVariations,
	}
}

// LoadQuerySet reads a YAML query file. Missing sections keep their defaults.
func LoadQuerySet(path string) (QuerySet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return QuerySet{}, fmt.Errorf("failed to read query file: %w", err)
	}

	set := DefaultQuerySet()
	var parsed QuerySet
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return QuerySet{}, fmt.Errorf("failed to parse query file %s: %w", path, err)
	}

	if parsed.Static != nil {
		set.Static = parsed.Static
	}
	if parsed.BaseTerms != nil {
		set.BaseTerms = parsed.BaseTerms
	}
	if parsed.Variations > 0 {
		set.Variations = parsed.Variations
	}
	return set, nil
}

// Queries returns the static queries followed by the random variations.
func (s QuerySet) Queries(rng *rand.Rand) []string {
	queries := make([]string, 0, len(s.Static)+len(s.BaseTerms)*s.Variations)
	for _, q := range s.Static {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}
	return append(queries, ExpandQueries(s.BaseTerms, s.Variations, rng)...)
}

// ExpandQueries returns variations queries per base term, each the term
// followed by a space and a random lowercase letter.
func ExpandQueries(base []string, variations int, rng *rand.Rand) []string {
	if variations <= 0 {
		return nil
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	out := make([]string, 0, len(base)*variations)
	for _, term := range base {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		for range variations {
			out = append(out, fmt.Sprintf("%s %c", term, 'a'+rune(rng.IntN(26))))
		}
	}
	return out
}
