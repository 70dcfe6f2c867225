package resource

import (
	"fmt"

	"github.com/artpar/resttree/core/schema"
)

// Converter turns path tokens into scalars and back.
type Converter interface {
	// Normalize returns the canonical form of a literal token. The same input
	// always yields the same output.
	Normalize(s string) string

	// Render formats a scalar as a token.
	Render(v any) (string, error)

	ParseInt(s string) (int64, error)
	ParseBool(s string) (bool, error)
	ParseDecimal(s string) (float64, error)
}

// ParseValue parses a token as a value of the given primitive type.
func ParseValue(conv Converter, t schema.Type, s string) (any, error) {
	switch t.Kind() {
	case schema.KindInt:
		return conv.ParseInt(s)
	case schema.KindBool:
		return conv.ParseBool(s)
	case schema.KindDecimal:
		return conv.ParseDecimal(s)
	case schema.KindString:
		if s == "" {
			return nil, fmt.Errorf("empty %s value", t)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("cannot parse %s from a token", t)
	}
}
