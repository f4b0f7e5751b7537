// Package scanner matches page text against a registry of named
// sensitive-data patterns.
package scanner

import (
	"fmt"
	"regexp"
	"sort"
)

// Match maps a pattern name to every matched substring, in order of
// occurrence. Patterns without matches have no key.
type Match map[string][]string

// Keys returns the pattern names present in m, sorted.
func (m Match) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Total counts all matched substrings.
func (m Match) Total() int {
	n := 0
	for _, v := range m {
		n += len(v)
	}
	return n
}

// PatternSpec is the data form of a detector.
type PatternSpec struct {
	Name        string `yaml:"name" json:"name"`
	Expr        string `yaml:"pattern" json:"pattern"`
	Validator   string `yaml:"validator,omitempty" json:"validator,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

type pattern struct {
	spec     PatternSpec
	re       *regexp.Regexp
	validate Validator
}

// Registry holds compiled patterns in registration order.
type Registry struct {
	patterns []pattern
}

// DefaultPatterns are the built-in Korean registration number detectors.
func DefaultPatterns() []PatternSpec {
	return []PatternSpec{
		{Name: "corpReg", Expr: `\d{6}-\d{7}`, Description: "Corporate registration number"},
		{Name: "bizReg", Expr: `\d{3}-\d{2}-\d{5}`, Description: "Business registration number"},
		{Name: "personal", Expr: `\d{6}-\d{7}`, Description: "Resident registration number"},
	}
}

// NewRegistry compiles specs. Names must be unique and validators known.
func NewRegistry(specs []PatternSpec) (*Registry, error) {
	r := &Registry{}
	seen := map[string]struct{}{}
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("pattern %q: missing name", spec.Expr)
		}
		if _, dup := seen[spec.Name]; dup {
			return nil, fmt.Errorf("pattern %s: duplicate name", spec.Name)
		}
		seen[spec.Name] = struct{}{}

		re, err := regexp.Compile(spec.Expr)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: %w", spec.Name, err)
		}

		p := pattern{spec: spec, re: re}
		if spec.Validator != "" {
			v, ok := validators[spec.Validator]
			if !ok {
				return nil, fmt.Errorf("pattern %s: unknown validator %q", spec.Name, spec.Validator)
			}
			p.validate = v
		}
		r.patterns = append(r.patterns, p)
	}
	return r, nil
}

// MustDefault returns the registry of DefaultPatterns.
func MustDefault() *Registry {
	r, err := NewRegistry(DefaultPatterns())
	if err != nil {
		panic(err)
	}
	return r
}

// Specs returns the registered pattern definitions in order.
func (r *Registry) Specs() []PatternSpec {
	out := make([]PatternSpec, len(r.patterns))
	for i, p := range r.patterns {
		out[i] = p.spec
	}
	return out
}

// Names returns the pattern names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.patterns))
	for i, p := range r.patterns {
		out[i] = p.spec.Name
	}
	return out
}

// Scan collects all non-overlapping matches of every pattern in text.
func (r *Registry) Scan(text string) Match {
	found := Match{}
	for _, p := range r.patterns {
		hits := p.re.FindAllString(text, -1)
		if p.validate != nil {
			kept := hits[:0]
			for _, h := range hits {
				if p.validate(h) {
					kept = append(kept, h)
				}
			}
			hits = kept
		}
		if len(hits) > 0 {
			found[p.spec.Name] = hits
		}
	}
	return found
}
