package schema

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Model describes a resource entity. A *Model is also the Type of a whole
// instance of that entity.
type Model struct {
	name       string
	properties []*Property
	byName     map[string]*Property
	id         *Property
	newFn      func() any
	isInstance func(v any) bool
}

// PropertySpec declares one property when building a model by hand.
type PropertySpec struct {
	Name string
	Type Type
	ID   bool
	Get  func(obj any) any
	Set  func(obj any, value any) error
}

// NewModel builds a model from explicit accessors. newFn creates an empty
// instance and isInstance recognizes one.
func NewModel(name string, newFn func() any, isInstance func(v any) bool, specs ...PropertySpec) (*Model, error) {
	if name == "" {
		return nil, errors.New("model name is required")
	}
	if newFn == nil || isInstance == nil {
		return nil, fmt.Errorf("model %s: constructor and instance check are required", name)
	}

	m := &Model{
		name:       name,
		byName:     make(map[string]*Property, len(specs)),
		newFn:      newFn,
		isInstance: isInstance,
	}

	for _, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("model %s: property name is required", name)
		}
		if _, dup := m.byName[s.Name]; dup {
			return nil, fmt.Errorf("model %s: duplicate property %s", name, s.Name)
		}
		if s.Type == nil || !s.Type.IsPrimitive() {
			return nil, fmt.Errorf("model %s: property %s must have a primitive type", name, s.Name)
		}
		if s.Get == nil || s.Set == nil {
			return nil, fmt.Errorf("model %s: property %s needs both accessors", name, s.Name)
		}
		if s.ID && m.id != nil {
			return nil, fmt.Errorf("model %s: both %s and %s are marked as id", name, m.id.name, s.Name)
		}

		p := &Property{
			model: m,
			name:  s.Name,
			typ:   s.Type,
			id:    s.ID,
			get:   s.Get,
			set:   s.Set,
		}
		m.properties = append(m.properties, p)
		m.byName[s.Name] = p
		if s.ID {
			m.id = p
		}
	}

	return m, nil
}

// Name returns the model name. It is also the literal path token of the
// model's collection resource.
func (m *Model) Name() string { return m.name }

// Properties returns the properties in declaration order.
func (m *Model) Properties() []*Property {
	out := make([]*Property, len(m.properties))
	copy(out, m.properties)
	return out
}

// Property returns the named property.
func (m *Model) Property(name string) (*Property, bool) {
	p, ok := m.byName[name]
	return p, ok
}

// IDProperty returns the property marked as id, if any.
func (m *Model) IDProperty() (*Property, bool) {
	return m.id, m.id != nil
}

// New returns an empty instance.
func (m *Model) New() any { return m.newFn() }

func (m *Model) IsValid(v any) bool {
	if v == nil {
		return false
	}
	return m.isInstance(v)
}

func (m *Model) IsPrimitive() bool { return false }

func (m *Model) Kind() Kind { return KindNone }

func (m *Model) Equal(other Type) bool {
	o, ok := other.(*Model)
	return ok && o == m
}

func (m *Model) String() string { return m.name }

// Property is a typed field of a model. A *Property is also a Type: values of
// the property type are values of its primitive type, but the property type is
// only equal to itself.
type Property struct {
	model *Model
	name  string
	typ   Type
	id    bool
	get   func(obj any) any
	set   func(obj any, value any) error
}

// Model returns the owning model.
func (p *Property) Model() *Model { return p.model }

// Name returns the declared property name.
func (p *Property) Name() string { return p.name }

// Primitive returns the primitive type the property is stored as.
func (p *Property) Primitive() Type { return p.typ }

// IsID reports whether this is the identifier property of its model.
func (p *Property) IsID() bool { return p.id }

// Get reads the property from a model instance.
func (p *Property) Get(obj any) (any, error) {
	if !p.model.IsValid(obj) {
		return nil, fmt.Errorf("%s: %T is not a %s", p, obj, p.model.name)
	}
	return p.get(obj), nil
}

// Set writes the property on a model instance. The value must be valid for
// the property type.
func (p *Property) Set(obj any, value any) error {
	if !p.model.IsValid(obj) {
		return fmt.Errorf("%s: %T is not a %s", p, obj, p.model.name)
	}
	if value != nil && !p.typ.IsValid(value) {
		return fmt.Errorf("%s: invalid value %v (%T)", p, value, value)
	}
	return p.set(obj, value)
}

func (p *Property) IsValid(v any) bool { return p.typ.IsValid(v) }

func (p *Property) IsPrimitive() bool { return p.typ.IsPrimitive() }

func (p *Property) Kind() Kind { return p.typ.Kind() }

func (p *Property) Equal(other Type) bool {
	o, ok := other.(*Property)
	return ok && o == p
}

func (p *Property) String() string { return p.model.name + "." + p.name }

// NewStructModel builds a model backed by a Go struct. sample is a pointer to
// the struct type; model instances are pointers to it.
//
// Exported fields of bool, integer, float and string kinds become properties.
// The `rest` struct tag renames a property, marks the id ("Id,id") or skips a
// field ("-").
func NewStructModel(name string, sample any) (*Model, error) {
	pt := reflect.TypeOf(sample)
	if pt == nil || pt.Kind() != reflect.Pointer || pt.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("model %s: sample must be a pointer to a struct, got %T", name, sample)
	}
	st := pt.Elem()

	var specs []PropertySpec
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if !f.IsExported() {
			continue
		}

		propName, id, skip := parseTag(f)
		if skip {
			continue
		}

		typ, ok := primitiveFor(f.Type.Kind())
		if !ok {
			if id {
				return nil, fmt.Errorf("model %s: id field %s has unsupported type %s", name, f.Name, f.Type)
			}
			continue
		}

		index := f.Index
		fieldType := f.Type
		specs = append(specs, PropertySpec{
			Name: propName,
			Type: typ,
			ID:   id,
			Get: func(obj any) any {
				return reflect.ValueOf(obj).Elem().FieldByIndex(index).Interface()
			},
			Set: func(obj any, value any) error {
				field := reflect.ValueOf(obj).Elem().FieldByIndex(index)
				if value == nil {
					field.Set(reflect.Zero(fieldType))
					return nil
				}
				v := reflect.ValueOf(value)
				if !v.Type().ConvertibleTo(fieldType) {
					return fmt.Errorf("cannot assign %T to %s", value, fieldType)
				}
				if overflows(v, fieldType) {
					return fmt.Errorf("value %v overflows %s", value, fieldType)
				}
				field.Set(v.Convert(fieldType))
				return nil
			},
		})
	}

	return NewModel(name,
		func() any { return reflect.New(st).Interface() },
		func(v any) bool {
			rv := reflect.ValueOf(v)
			return rv.Type() == pt && !rv.IsNil()
		},
		specs...,
	)
}

// overflows reports whether the numeric v changes value when converted to t.
func overflows(v reflect.Value, t reflect.Type) bool {
	z := reflect.New(t).Elem()
	switch {
	case v.CanInt():
		n := v.Int()
		switch {
		case z.CanInt():
			return z.OverflowInt(n)
		case z.CanUint():
			return n < 0 || z.OverflowUint(uint64(n))
		}
	case v.CanUint():
		n := v.Uint()
		switch {
		case z.CanInt():
			return n > math.MaxInt64 || z.OverflowInt(int64(n))
		case z.CanUint():
			return z.OverflowUint(n)
		}
	case v.CanFloat():
		if z.CanFloat() {
			return z.OverflowFloat(v.Float())
		}
	}
	return false
}

func parseTag(f reflect.StructField) (name string, id, skip bool) {
	name = f.Name
	tag, ok := f.Tag.Lookup("rest")
	if !ok {
		return name, false, false
	}
	if tag == "-" {
		return "", false, true
	}

	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		name = parts[0]
	}
	for _, opt := range parts[1:] {
		if opt == "id" {
			id = true
		}
	}
	return name, id, false
}

func primitiveFor(rk reflect.Kind) (Type, bool) {
	switch {
	case rk == reflect.Bool:
		return Bool, true
	case isIntegerKind(rk):
		return Int, true
	case rk == reflect.Float32 || rk == reflect.Float64:
		return Decimal, true
	case rk == reflect.String:
		return String, true
	}
	return nil, false
}

// Record is a model instance for models declared without a Go struct.
type Record map[string]any

// NewRecordModel builds a model whose instances are Record values. Stored
// values are kept in their canonical form (see Coerce).
func NewRecordModel(name string, props ...PropertySpec) (*Model, error) {
	declared := make(map[string]Type, len(props))
	specs := make([]PropertySpec, len(props))
	for i, p := range props {
		propName, typ := p.Name, p.Type
		declared[propName] = typ
		specs[i] = PropertySpec{
			Name: propName,
			Type: typ,
			ID:   p.ID,
			Get: func(obj any) any {
				return obj.(Record)[propName]
			},
			Set: func(obj any, value any) error {
				rec := obj.(Record)
				if value == nil {
					delete(rec, propName)
					return nil
				}
				v, err := Coerce(typ, value)
				if err != nil {
					return err
				}
				rec[propName] = v
				return nil
			},
		}
	}

	return NewModel(name,
		func() any { return Record{} },
		func(v any) bool {
			rec, ok := v.(Record)
			if !ok || rec == nil {
				return false
			}
			for k, val := range rec {
				typ, known := declared[k]
				if !known {
					return false
				}
				if val != nil && !typ.IsValid(val) {
					return false
				}
			}
			return true
		},
		specs...,
	)
}
