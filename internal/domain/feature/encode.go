package feature

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/okian/claimscore/pkg/logger"
	"github.com/okian/claimscore/pkg/metrics"
)

// Fallback keys recognized in categorical mappings, tried in order. The
// training export reserves one of these for values not seen during training.
var fallbackKeys = []string{"UNKNOWN", "other"}

// Bag is the raw, dynamically-typed feature map supplied for one scored
// item: numbers for numeric features, strings for categorical ones. Keys not
// declared in the schema are ignored.
type Bag map[string]any

// EncoderOption applies a configuration option to the Encoder.
type EncoderOption func(*Encoder)

// WithLogger sets a custom logger for fallback warnings.
func WithLogger(log logger.Logger) EncoderOption {
	return func(e *Encoder) {
		if log != nil {
			e.log = log
		}
	}
}

// Encoder converts named raw values into numeric codes using the schema.
// Safe for concurrent use; the schema is read-only.
type Encoder struct {
	schema *Schema
	log    logger.Logger
}

// NewEncoder creates an encoder bound to a schema. Without WithLogger the
// fallback warning is recorded in metrics only.
func NewEncoder(schema *Schema, opts ...EncoderOption) *Encoder {
	e := &Encoder{
		schema: schema,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Schema returns the schema the encoder was built with.
func (e *Encoder) Schema() *Schema {
	return e.schema
}

// Encode converts a single named raw value to its numeric code.
//
// Numeric features accept any numeric value and return it widened to
// float64. Categorical features accept a string and look it up in the
// feature's mapping; an unmapped value falls back to the reserved fallback
// entry, which is a warning-level condition, not an error. Encoding fails
// only for unknown features, type mismatches, and unmapped values with no
// fallback.
func (e *Encoder) Encode(name string, value any) (float64, error) {
	def, err := e.schema.Definition(name)
	if err != nil {
		return 0, err
	}
	return e.encode(def, value)
}

func (e *Encoder) encode(def Definition, value any) (float64, error) {
	switch def.Kind {
	case Numeric:
		n, ok := asNumber(value)
		if !ok {
			return 0, fmt.Errorf("%w: feature %q is numeric but got %T", ErrTypeMismatch, def.Name, value)
		}
		return n, nil

	case Categorical:
		s, ok := value.(string)
		if !ok {
			return 0, fmt.Errorf("%w: feature %q is categorical but got %T", ErrTypeMismatch, def.Name, value)
		}
		if code, ok := def.Mapping[s]; ok {
			return code, nil
		}
		for _, key := range fallbackKeys {
			if code, ok := def.Mapping[key]; ok {
				if e.log != nil {
					e.log.Warn(context.Background(), "unknown categorical value, using fallback",
						logger.String("feature", def.Name),
						logger.String("value", s),
						logger.String("fallback", key))
				}
				metrics.RecordEncodeFallback(def.Name)
				return code, nil
			}
		}
		return 0, fmt.Errorf("%w: value %q for feature %q", ErrUnknownCategory, s, def.Name)

	default:
		return 0, fmt.Errorf("%w: feature %q has kind %v", ErrInvalidSchema, def.Name, def.Kind)
	}
}

// asNumber widens any numeric input to float64. JSON decoding yields
// float64 or json.Number; direct callers may pass integer types.
func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
