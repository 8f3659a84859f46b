// Package calibration maps raw model scores to calibrated denial
// probabilities. The method set is closed: the training pipeline exports one
// of Platt scaling, isotonic (piecewise-constant) calibration, or none, and
// no method is ever added at runtime.
package calibration

import (
	"fmt"
	"math"
	"sort"
)

// Calibrator transforms a raw model score into a calibrated probability.
// Implementations are immutable and safe for concurrent use.
type Calibrator interface {
	Calibrate(rawScore float64) float64
}

// Identity returns a no-op calibrator. The result mirrors the raw score and
// is not clamped to [0,1]; only meaningful when raw scores are already
// probabilities.
func Identity() Calibrator {
	return identity{}
}

type identity struct{}

func (identity) Calibrate(rawScore float64) float64 { return rawScore }

// Platt applies sigmoid (Platt scaling) calibration:
//
//	p = 1 / (1 + exp(a*raw + b))
//
// The sign convention is fixed by the fitting procedure: a and b are applied
// inside the exponent as-is, so a < 0 makes the result monotonically
// increasing in the raw score. Swapping the convention silently inverts the
// probabilities.
type Platt struct {
	a, b float64
}

// NewPlatt creates a Platt scaling calibrator with fitted coefficients.
func NewPlatt(a, b float64) *Platt {
	return &Platt{a: a, b: b}
}

// Calibrate applies the sigmoid transformation.
func (p *Platt) Calibrate(rawScore float64) float64 {
	z := p.a*rawScore + p.b
	return 1.0 / (1.0 + math.Exp(z))
}

// A returns the slope coefficient.
func (p *Platt) A() float64 { return p.a }

// B returns the intercept coefficient.
func (p *Platt) B() float64 { return p.b }

// Isotonic applies a piecewise-constant (step function) calibration fitted
// by isotonic regression. The step is left-closed: a score strictly between
// two thresholds takes the value paired with the lower one. This matches the
// binary-search insertion-point behavior of the fitting pipeline and must
// not be replaced with nearest or upper interpolation.
type Isotonic struct {
	thresholds []float64
	values     []float64
}

// NewIsotonic creates an isotonic calibrator from parallel sorted arrays.
func NewIsotonic(thresholds, values []float64) (*Isotonic, error) {
	if len(thresholds) != len(values) {
		return nil, fmt.Errorf("%w: thresholds and values must have the same length: %d vs %d",
			ErrInvalidParams, len(thresholds), len(values))
	}
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i] < thresholds[i-1] {
			return nil, fmt.Errorf("%w: thresholds must be non-decreasing (index %d)", ErrInvalidParams, i)
		}
	}
	return &Isotonic{thresholds: thresholds, values: values}, nil
}

// Calibrate looks up the step value for a raw score. Empty parameter arrays
// make the calibrator a passthrough; that is an explicit degenerate case,
// not an error.
func (c *Isotonic) Calibrate(rawScore float64) float64 {
	if len(c.thresholds) == 0 {
		return rawScore
	}

	// SearchFloat64s returns the insertion point: the count of thresholds
	// strictly less than rawScore, or the index of the first equal element.
	i := sort.SearchFloat64s(c.thresholds, rawScore)

	if i < len(c.thresholds) && c.thresholds[i] == rawScore {
		// Exact threshold match.
		return c.values[i]
	}
	if i == 0 {
		// Below the lowest threshold.
		return c.values[0]
	}
	if i >= len(c.thresholds) {
		// Above the highest threshold.
		return c.values[len(c.values)-1]
	}
	// Between thresholds: take the lower threshold's value.
	return c.values[i-1]
}

// Thresholds returns the fitted threshold array.
func (c *Isotonic) Thresholds() []float64 { return c.thresholds }

// Values returns the fitted value array.
func (c *Isotonic) Values() []float64 { return c.values }
