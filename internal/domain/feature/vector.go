package feature

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Vector assembles a complete, correctly ordered numeric vector from a raw
// feature bag. Iteration is schema-driven: every declared feature must be
// present in the bag, extra bag keys are ignored, and the result is placed
// by declared index so the vector layout is independent of map iteration
// order. The build is atomic; any failure returns a nil vector.
func (e *Encoder) Vector(bag Bag) ([]float64, error) {
	out := make([]float64, e.schema.Count())
	for _, def := range e.schema.Definitions() {
		raw, ok := bag[def.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingFeature, def.Name)
		}
		code, err := e.encode(def, raw)
		if err != nil {
			return nil, err
		}
		out[def.Index] = code
	}
	return out, nil
}

// Matrix stacks one vector per bag into an items x features dense matrix,
// preserving bag order. Fails atomically on the first bag that cannot be
// encoded.
func (e *Encoder) Matrix(bags []Bag) (*mat.Dense, error) {
	if len(bags) == 0 {
		return nil, fmt.Errorf("%w: no items to encode", ErrMissingFeature)
	}
	width := e.schema.Count()
	data := make([]float64, 0, len(bags)*width)
	for i, bag := range bags {
		vec, err := e.Vector(bag)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		data = append(data, vec...)
	}
	return mat.NewDense(len(bags), width, data), nil
}
