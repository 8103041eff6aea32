// Package schema defines the canonical feature-vector contract: the closed set
// of 60 recognized feature names, their semantic kinds, and the single ordering
// every producer and consumer must agree on.
package schema

import (
	"fmt"
	"sort"
)

// FieldCount is the fixed size of a feature vector.
const FieldCount = 60

// Registry is the immutable feature schema. Build one with New at process
// start and share it by reference; it is never mutated afterwards and is safe
// for concurrent use.
type Registry struct {
	ordered []FieldSpec          // lexicographic by Name
	byName  map[string]FieldSpec
	names   []string             // lexicographic, mirrors ordered
}

// New constructs the registry from the field table. It panics if the table
// itself is malformed (wrong size or duplicate names), since that is a
// programming error, not an input error.
func New() *Registry {
	if len(fieldTable) != FieldCount {
		panic(fmt.Sprintf("schema: field table has %d entries, want %d", len(fieldTable), FieldCount))
	}

	r := &Registry{
		ordered: make([]FieldSpec, len(fieldTable)),
		byName:  make(map[string]FieldSpec, len(fieldTable)),
		names:   make([]string, 0, len(fieldTable)),
	}
	copy(r.ordered, fieldTable)

	// Canonical order is lexicographic by raw name, ascending, case-sensitive.
	// Byte-wise comparison of the raw string, never locale-aware collation.
	sort.Slice(r.ordered, func(i, j int) bool { return r.ordered[i].Name < r.ordered[j].Name })

	for _, f := range r.ordered {
		if _, dup := r.byName[f.Name]; dup {
			panic(fmt.Sprintf("schema: duplicate field %q", f.Name))
		}
		r.byName[f.Name] = f
		r.names = append(r.names, f.Name)
	}
	return r
}

// Size returns the number of fields in the schema.
func (r *Registry) Size() int { return len(r.ordered) }

// Fields returns the field specs in canonical (lexicographic) order.
// The returned slice is a copy.
func (r *Registry) Fields() []FieldSpec {
	out := make([]FieldSpec, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// CanonicalOrder returns the field names in canonical (lexicographic) order.
// This is the one ordering used at every positional boundary; callers must not
// re-derive it. The returned slice is a copy.
func (r *Registry) CanonicalOrder() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Lookup returns the spec for a field name.
func (r *Registry) Lookup(name string) (FieldSpec, bool) {
	f, ok := r.byName[name]
	return f, ok
}

// Validate checks a feature mapping against the schema: exactly FieldCount
// entries, no unknown keys, no missing keys. All violations found are
// reported together in a single *ValidationError so a caller sees the full
// diagnosis at once; nil means the mapping conforms.
func (r *Registry) Validate(features map[string]float64) error {
	verr := &ValidationError{}

	if len(features) != len(r.ordered) {
		verr.Size = &SizeError{Got: len(features), Want: len(r.ordered)}
	}
	for name := range features {
		if _, ok := r.byName[name]; !ok {
			verr.Unknown = append(verr.Unknown, name)
		}
	}
	for _, name := range r.names {
		if _, ok := features[name]; !ok {
			verr.Missing = append(verr.Missing, name)
		}
	}

	if verr.empty() {
		return nil
	}
	sort.Strings(verr.Unknown)
	sort.Strings(verr.Missing)
	return verr
}
