package schema

import (
	"fmt"
	"reflect"
)

// Kind is the scalar class behind a primitive type.
type Kind int

const (
	// KindNone is reported by non-primitive types.
	KindNone Kind = iota
	KindBool
	KindInt
	KindDecimal
	KindString
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDecimal:
		return "decimal"
	case KindString:
		return "string"
	default:
		return "none"
	}
}

// ParseKind resolves a kind from its declared name.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "bool", "boolean":
		return KindBool, nil
	case "int", "integer":
		return KindInt, nil
	case "decimal", "float", "number":
		return KindDecimal, nil
	case "string":
		return KindString, nil
	default:
		return KindNone, fmt.Errorf("unknown kind %q", name)
	}
}

// Type describes a class of values.
type Type interface {
	// IsValid reports whether v is a value of this type.
	IsValid(v any) bool

	// IsPrimitive reports whether the type is backed by a scalar.
	IsPrimitive() bool

	// Kind returns the scalar kind for primitives and KindNone otherwise.
	Kind() Kind

	// Equal reports whether other describes exactly the same type.
	Equal(other Type) bool

	String() string
}

// Primitive is a scalar type.
type Primitive struct {
	kind Kind
}

// The primitive types.
var (
	Bool    Type = Primitive{kind: KindBool}
	Int     Type = Primitive{kind: KindInt}
	Decimal Type = Primitive{kind: KindDecimal}
	String  Type = Primitive{kind: KindString}
)

// PrimitiveOf returns the primitive type for a kind.
func PrimitiveOf(k Kind) (Type, bool) {
	switch k {
	case KindBool:
		return Bool, true
	case KindInt:
		return Int, true
	case KindDecimal:
		return Decimal, true
	case KindString:
		return String, true
	default:
		return nil, false
	}
}

func (p Primitive) IsValid(v any) bool {
	if v == nil {
		return false
	}
	return kindAccepts(p.kind, reflect.TypeOf(v).Kind())
}

func (p Primitive) IsPrimitive() bool { return true }

func (p Primitive) Kind() Kind { return p.kind }

func (p Primitive) Equal(other Type) bool {
	o, ok := other.(Primitive)
	return ok && o.kind == p.kind
}

func (p Primitive) String() string { return p.kind.String() }

// kindAccepts reports whether a Go reflect kind can carry a value of k.
// Decimal accepts integers as well, integers never accept floats.
func kindAccepts(k Kind, rk reflect.Kind) bool {
	switch k {
	case KindBool:
		return rk == reflect.Bool
	case KindInt:
		return isIntegerKind(rk)
	case KindDecimal:
		return rk == reflect.Float32 || rk == reflect.Float64 || isIntegerKind(rk)
	case KindString:
		return rk == reflect.String
	default:
		return false
	}
}

func isIntegerKind(rk reflect.Kind) bool {
	switch rk {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// List is a collection of values of a single item type.
type List struct {
	Item Type
}

// ListOf returns the list type for item.
func ListOf(item Type) List {
	return List{Item: item}
}

// IsValid accepts slices and arrays whose elements are all valid items.
func (l List) IsValid(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if !l.Item.IsValid(rv.Index(i).Interface()) {
			return false
		}
	}
	return true
}

func (l List) IsPrimitive() bool { return false }

func (l List) Kind() Kind { return KindNone }

func (l List) Equal(other Type) bool {
	o, ok := other.(List)
	return ok && o.Item != nil && l.Item != nil && l.Item.Equal(o.Item)
}

func (l List) String() string { return fmt.Sprintf("List(%s)", l.Item) }

// Coerce converts v to the canonical Go representation of a primitive type:
// bool, int64, float64 or string. Decoded JSON numbers and SQLite integers are
// the usual inputs. Non-primitive types return v unchanged.
func Coerce(t Type, v any) (any, error) {
	if v == nil || !t.IsPrimitive() {
		return v, nil
	}

	rv := reflect.ValueOf(v)
	switch t.Kind() {
	case KindBool:
		switch {
		case rv.Kind() == reflect.Bool:
			return rv.Bool(), nil
		case isIntegerKind(rv.Kind()):
			return toInt64(rv) != 0, nil
		}
	case KindInt:
		switch {
		case isIntegerKind(rv.Kind()):
			return toInt64(rv), nil
		case rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64:
			f := rv.Float()
			if f == float64(int64(f)) {
				return int64(f), nil
			}
		}
	case KindDecimal:
		switch {
		case rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64:
			return rv.Float(), nil
		case isIntegerKind(rv.Kind()):
			return float64(toInt64(rv)), nil
		}
	case KindString:
		switch rv.Kind() {
		case reflect.String:
			return rv.String(), nil
		case reflect.Slice:
			if b, ok := v.([]byte); ok {
				return string(b), nil
			}
		}
	}

	return nil, fmt.Errorf("cannot use %T as %s", v, t)
}

func toInt64(rv reflect.Value) int64 {
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	default:
		return rv.Int()
	}
}
