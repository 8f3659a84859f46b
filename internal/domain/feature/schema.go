// Package feature defines the model's input schema and the encoding of raw
// claim attributes into the fixed-order numeric vectors the scoring engine
// consumes. Feature order is a property of the schema, never of the caller's
// input, and must match the training-time export bit for bit.
package feature

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Kind distinguishes numeric (continuous) from categorical (discrete)
// features.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

// String returns the export-format name of the kind.
func (k Kind) String() string {
	switch k {
	case Numeric:
		return "NUMERIC"
	case Categorical:
		return "CATEGORICAL"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// UnmarshalJSON parses the export-format kind names.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "NUMERIC":
		*k = Numeric
	case "CATEGORICAL":
		*k = Categorical
	default:
		return fmt.Errorf("%w: unknown feature type %q", ErrInvalidSchema, s)
	}
	return nil
}

// MarshalJSON writes the export-format kind names.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Definition describes a single feature: its name, kind, position in the
// input vector, and (for categorical features) the value-to-code mapping
// exported by the training pipeline.
type Definition struct {
	Name    string             `json:"name"`
	Kind    Kind               `json:"type"`
	Index   int                `json:"index"`
	Mapping map[string]float64 `json:"mapping,omitempty"`
}

// Schema is the ordered, typed description of the model's input vector.
// Immutable once constructed; shared read-only by all encoding operations.
type Schema struct {
	defs   []Definition
	byName map[string]int
}

// metadataFile mirrors the JSON artifact layout produced by the training
// export: {"features": [...]}.
type metadataFile struct {
	Features []Definition `json:"features"`
}

// LoadSchema reads and validates a feature metadata JSON file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadSchema, err)
	}
	var meta metadataFile
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadSchema, err)
	}
	return NewSchema(meta.Features)
}

// NewSchema validates the definitions and builds a Schema. Definitions are
// re-sorted by index so that iteration order always matches vector order,
// regardless of their order in the source file.
func NewSchema(defs []Definition) (*Schema, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: no features defined", ErrInvalidSchema)
	}

	sorted := make([]Definition, len(defs))
	copy(sorted, defs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	byName := make(map[string]int, len(sorted))
	for i, d := range sorted {
		// Indices must form a dense 0..N-1 permutation.
		if d.Index != i {
			return nil, fmt.Errorf("%w: indices are not a dense 0..%d permutation (feature %q has index %d)",
				ErrInvalidSchema, len(sorted)-1, d.Name, d.Index)
		}
		if d.Name == "" {
			return nil, fmt.Errorf("%w: feature at index %d has no name", ErrInvalidSchema, d.Index)
		}
		if _, dup := byName[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate feature name %q", ErrInvalidSchema, d.Name)
		}
		if d.Kind == Categorical && len(d.Mapping) == 0 {
			return nil, fmt.Errorf("%w: categorical feature %q has no mapping", ErrBadMapping, d.Name)
		}
		byName[d.Name] = i
	}

	return &Schema{defs: sorted, byName: byName}, nil
}

// Count returns the number of features, i.e. the vector width.
func (s *Schema) Count() int {
	return len(s.defs)
}

// Definitions returns all features in vector order. Callers must not modify
// the returned slice.
func (s *Schema) Definitions() []Definition {
	return s.defs
}

// Definition looks up a feature by name.
func (s *Schema) Definition(name string) (Definition, error) {
	i, ok := s.byName[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownFeature, name)
	}
	return s.defs[i], nil
}

// Index returns the vector position of a named feature.
func (s *Schema) Index(name string) (int, error) {
	d, err := s.Definition(name)
	if err != nil {
		return 0, err
	}
	return d.Index, nil
}
