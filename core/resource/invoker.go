package resource

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/artpar/resttree/core/schema"
)

// InvokerKind tags how an invoker reaches its behavior.
type InvokerKind int

const (
	// KindCall delegates to a method of a registered service implementation.
	KindCall InvokerKind = iota
	// KindFunction delegates to a free function.
	KindFunction
	// KindDerived wraps another invoker and reshapes its inputs.
	KindDerived
)

func (k InvokerKind) String() string {
	switch k {
	case KindCall:
		return "call"
	case KindFunction:
		return "function"
	case KindDerived:
		return "derived"
	default:
		return "unknown"
	}
}

// Func is the callable behind an invoker. args are already validated.
type Func func(ctx context.Context, args []any) (any, error)

// Reshape maps the arguments of a derived invoker to its delegate's.
type Reshape func(args []any) ([]any, error)

// Invoker is a typed wrapper around one operation.
// Invokers are immutable once built.
type Invoker struct {
	kind      InvokerKind
	service   string
	name      string
	output    schema.Type
	inputs    []schema.Input
	mandatory int
	fn        Func
	delegate  *Invoker
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// NewCallInvoker binds a service call to the implementation method of the
// same name. The method must have the signature
//
//	func(ctx context.Context, <one parameter per input>) (T, error)
//
// and is checked here, once, rather than on every invocation.
func NewCallInvoker(svc *schema.Service, call schema.Call, impl any) (*Invoker, error) {
	if err := call.Validate(); err != nil {
		return nil, err
	}
	if impl == nil {
		return nil, fmt.Errorf("%s.%s: no implementation", svc.Name, call.Name)
	}

	method := reflect.ValueOf(impl).MethodByName(call.Name)
	if !method.IsValid() {
		return nil, fmt.Errorf("%s.%s: %T has no method %s", svc.Name, call.Name, impl, call.Name)
	}

	mt := method.Type()
	if mt.NumIn() != len(call.Inputs)+1 || mt.In(0) != contextType {
		return nil, fmt.Errorf("%s.%s: method %s must take a context and %d argument(s), has signature %s",
			svc.Name, call.Name, call.Name, len(call.Inputs), mt)
	}
	if mt.NumOut() != 2 || mt.Out(1) != errorType {
		return nil, fmt.Errorf("%s.%s: method %s must return (value, error), has signature %s",
			svc.Name, call.Name, call.Name, mt)
	}

	params := make([]reflect.Type, len(call.Inputs))
	for i := range params {
		params[i] = mt.In(i + 1)
	}

	fn := func(ctx context.Context, args []any) (any, error) {
		if ctx == nil {
			ctx = context.Background()
		}
		in := make([]reflect.Value, len(params)+1)
		in[0] = reflect.ValueOf(ctx)
		for i, pt := range params {
			var arg any
			if i < len(args) {
				arg = args[i]
			}
			v, err := argValue(arg, pt)
			if err != nil {
				return nil, &InputError{Invoker: call.Name, Input: call.Inputs[i].Name, Reason: err.Error()}
			}
			in[i+1] = v
		}

		out := method.Call(in)
		if errv := out[1]; !errv.IsNil() {
			return nil, errv.Interface().(error)
		}
		return out[0].Interface(), nil
	}

	return &Invoker{
		kind:      KindCall,
		service:   svc.Name,
		name:      call.Name,
		output:    call.Output,
		inputs:    copyInputs(call.Inputs),
		mandatory: call.MandatoryCount,
		fn:        fn,
	}, nil
}

// argValue converts an argument to a method parameter type. nil becomes the
// zero value. Numeric values convert between numeric types only.
func argValue(arg any, pt reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(pt), nil
	}

	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(pt) {
		return v, nil
	}
	if v.Type().ConvertibleTo(pt) && sameFamily(v.Kind(), pt.Kind()) {
		return v.Convert(pt), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", arg, pt)
}

func sameFamily(a, b reflect.Kind) bool {
	numeric := func(k reflect.Kind) bool {
		return k >= reflect.Int && k <= reflect.Float64
	}
	return (numeric(a) && numeric(b)) || a == b
}

// NewFunctionInvoker wraps a free function.
func NewFunctionInvoker(name string, output schema.Type, inputs []schema.Input, mandatory int, fn Func) (*Invoker, error) {
	if err := (schema.Call{Name: name, Output: output, Inputs: inputs, MandatoryCount: mandatory}).Validate(); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, fmt.Errorf("function %s: nil callable", name)
	}

	return &Invoker{
		kind:      KindFunction,
		name:      name,
		output:    output,
		inputs:    copyInputs(inputs),
		mandatory: mandatory,
		fn:        fn,
	}, nil
}

// NewDerivedInvoker wraps delegate with a different input list. On invoke,
// reshape maps the derived arguments to the delegate's before forwarding.
// The output type is the delegate's.
func NewDerivedInvoker(delegate *Invoker, inputs []schema.Input, mandatory int, reshape Reshape) (*Invoker, error) {
	if delegate == nil || reshape == nil {
		return nil, errors.New("derived invoker needs a delegate and a reshape function")
	}
	if err := (schema.Call{Name: delegate.name, Output: delegate.output, Inputs: inputs, MandatoryCount: mandatory}).Validate(); err != nil {
		return nil, err
	}

	return &Invoker{
		kind:      KindDerived,
		service:   delegate.service,
		name:      delegate.name,
		output:    delegate.output,
		inputs:    copyInputs(inputs),
		mandatory: mandatory,
		fn: func(ctx context.Context, args []any) (any, error) {
			reshaped, err := reshape(args)
			if err != nil {
				return nil, err
			}
			return delegate.Invoke(ctx, reshaped...)
		},
		delegate: delegate,
	}, nil
}

func copyInputs(in []schema.Input) []schema.Input {
	out := make([]schema.Input, len(in))
	copy(out, in)
	return out
}

func (inv *Invoker) Kind() InvokerKind { return inv.kind }

// WithService returns a copy of inv attributed to service.
func (inv *Invoker) WithService(service string) *Invoker {
	c := *inv
	c.service = service
	c.inputs = copyInputs(inv.inputs)
	return &c
}

// Service returns the owning service name, empty for functions.
func (inv *Invoker) Service() string { return inv.service }

func (inv *Invoker) Name() string { return inv.name }

func (inv *Invoker) Output() schema.Type { return inv.output }

// Inputs returns the ordered inputs.
func (inv *Invoker) Inputs() []schema.Input { return copyInputs(inv.inputs) }

func (inv *Invoker) MandatoryCount() int { return inv.mandatory }

// Delegate returns the wrapped invoker of a derived invoker.
func (inv *Invoker) Delegate() *Invoker { return inv.delegate }

// Invoke validates args against the inputs, calls the operation and
// validates its result. Arguments bind by position. A nil argument is
// accepted only for an optional input.
//
// Validation failures are *InputError or *OutputError. Other errors from
// the operation are returned wrapped.
func (inv *Invoker) Invoke(ctx context.Context, args ...any) (any, error) {
	if len(args) < inv.mandatory || len(args) > len(inv.inputs) {
		return nil, &InputError{
			Invoker: inv.name,
			Reason:  fmt.Sprintf("expected %d to %d arguments, got %d", inv.mandatory, len(inv.inputs), len(args)),
		}
	}

	for i, arg := range args {
		in := inv.inputs[i]
		if arg == nil {
			if i < inv.mandatory {
				return nil, &InputError{Invoker: inv.name, Input: in.Name, Reason: "required"}
			}
			continue
		}
		if !in.Type.IsValid(arg) {
			return nil, &InputError{
				Invoker: inv.name,
				Input:   in.Name,
				Reason:  fmt.Sprintf("%v (%T) is not a valid %s", arg, arg, in.Type),
			}
		}
	}

	v, err := inv.fn(ctx, args)
	if err != nil {
		var ie *InputError
		var oe *OutputError
		if inv.kind == KindDerived || errors.As(err, &ie) || errors.As(err, &oe) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", inv.name, err)
	}

	if !inv.output.IsValid(v) {
		return nil, &OutputError{Invoker: inv.name, Value: v, Want: inv.output.String()}
	}
	return v, nil
}

// Equal reports structural equality over every field except the callable.
func (inv *Invoker) Equal(o *Invoker) bool {
	if inv == nil || o == nil {
		return inv == o
	}
	if inv.kind != o.kind || inv.service != o.service || inv.name != o.name || inv.mandatory != o.mandatory {
		return false
	}
	if !typesEqual(inv.output, o.output) || len(inv.inputs) != len(o.inputs) {
		return false
	}
	for i := range inv.inputs {
		if !inv.inputs[i].Equal(o.inputs[i]) {
			return false
		}
	}
	return inv.delegate.Equal(o.delegate)
}

func typesEqual(a, b schema.Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

// String renders the signature, optional inputs in brackets.
func (inv *Invoker) String() string {
	parts := make([]string, len(inv.inputs))
	for i, in := range inv.inputs {
		if i >= inv.mandatory {
			parts[i] = "[" + in.String() + "]"
		} else {
			parts[i] = in.String()
		}
	}

	name := inv.name
	if inv.service != "" {
		name = inv.service + "." + name
	}
	return fmt.Sprintf("%s(%s) %s", name, strings.Join(parts, ", "), inv.output)
}
