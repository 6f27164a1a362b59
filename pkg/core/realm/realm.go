package realm

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dndguild/keyevent-bot/pkg/core/model"
)

// MinScore is the fuzzy similarity a candidate must exceed to be accepted
const MinScore = 80

//go:embed realms.yaml
var realmsYAML []byte

// Outcome says how a realm name was resolved
type Outcome int

const (
	NotFound Outcome = iota
	Exact
	Fuzzy
)

func (o Outcome) String() string {
	switch o {
	case Exact:
		return "exact"
	case Fuzzy:
		return "fuzzy"
	default:
		return "not_found"
	}
}

// Result is the outcome of resolving a free-text realm name.
// Slug and Name are empty when Outcome is NotFound.
type Result struct {
	Slug    string
	Name    string
	Score   int
	Outcome Outcome
}

// Found reports whether the realm resolved to a reference entry
func (r Result) Found() bool {
	return r.Outcome != NotFound
}

// Entry maps a realm display name to its API slug
type Entry struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

// Resolver maps realm names to slugs using an exact table with fuzzy fallback
type Resolver struct {
	slugs map[string]string
	names []string
}

// NewResolver builds a resolver over the given entries.
// Later entries win when two share a name.
func NewResolver(entries []Entry) *Resolver {
	r := &Resolver{slugs: make(map[string]string, len(entries))}
	for _, e := range entries {
		if _, dup := r.slugs[e.Name]; !dup {
			r.names = append(r.names, e.Name)
		}
		r.slugs[e.Name] = e.Slug
	}
	// Ties in fuzzy scoring go to the alphabetically first name
	sort.Strings(r.names)
	return r
}

// DefaultResolver returns a resolver over the embedded US realm list
func DefaultResolver() (*Resolver, error) {
	entries, err := LoadEntries(realmsYAML)
	if err != nil {
		return nil, err
	}
	return NewResolver(entries), nil
}

// LoadEntries parses a realm reference document
func LoadEntries(data []byte) ([]Entry, error) {
	var doc struct {
		Realms []Entry `yaml:"realms"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse realm list: %w", err)
	}
	for i, e := range doc.Realms {
		if e.Name == "" || e.Slug == "" {
			return nil, fmt.Errorf("realm entry %d is missing a name or slug", i)
		}
	}
	return doc.Realms, nil
}

// Len returns the number of reference entries
func (r *Resolver) Len() int {
	return len(r.names)
}

// Resolve maps raw user input to a reference realm
func (r *Resolver) Resolve(raw string) Result {
	normalized := Normalize(raw)
	if normalized == "" {
		return Result{}
	}

	if slug, ok := r.slugs[normalized]; ok {
		return Result{Slug: slug, Name: normalized, Score: 100, Outcome: Exact}
	}

	best, bestScore := "", -1
	for _, name := range r.names {
		if s := Score(normalized, name); s > bestScore {
			best, bestScore = name, s
		}
	}

	if best == "" || bestScore <= MinScore {
		return Result{Score: max(bestScore, 0)}
	}

	return Result{Slug: r.slugs[best], Name: best, Score: bestScore, Outcome: Fuzzy}
}

// Normalize splits on whitespace and capitalizes each token:
// first rune upper case, the rest lower case.
func Normalize(raw string) string {
	tokens := strings.Fields(raw)
	for i, tok := range tokens {
		tokens[i] = model.Capitalize(tok)
	}
	return strings.Join(tokens, " ")
}
