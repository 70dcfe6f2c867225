// Package converter provides the strconv based token converter.
package converter

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Standard converts scalars with strconv. Literal tokens are left as is
// unless Lowercase is set.
type Standard struct {
	Lowercase bool
}

// New creates a standard converter.
func New(lowercase bool) *Standard {
	return &Standard{Lowercase: lowercase}
}

// Normalize trims surrounding whitespace and optionally lowercases.
func (c *Standard) Normalize(s string) string {
	s = strings.TrimSpace(s)
	if c.Lowercase {
		return strings.ToLower(s)
	}
	return s
}

// Render formats bool, integer, float and string values.
func (c *Standard) Render(v any) (string, error) {
	if v == nil {
		return "", fmt.Errorf("render: no value")
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("render: unsupported value %T", v)
	}
}

func (c *Standard) ParseInt(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse int %q: %w", s, err)
	}
	return n, nil
}

// ParseBool accepts the strconv forms plus "yes" and "no".
func (c *Standard) ParseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("parse bool %q: %w", s, err)
	}
	return b, nil
}

func (c *Standard) ParseDecimal(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return f, nil
}
