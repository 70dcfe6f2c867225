package schema

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by service implementations when the addressed
// entity does not exist.
var ErrNotFound = errors.New("not found")

// Input is a named, typed call parameter.
type Input struct {
	Name string
	Type Type
}

// Equal reports whether both inputs have the same name and equal types.
func (i Input) Equal(o Input) bool {
	if i.Name != o.Name {
		return false
	}
	if i.Type == nil || o.Type == nil {
		return i.Type == nil && o.Type == nil
	}
	return i.Type.Equal(o.Type)
}

func (i Input) String() string {
	return fmt.Sprintf("%s %s", i.Name, i.Type)
}

// Call declares one service operation.
type Call struct {
	// Name is the implementation method the call binds to.
	Name string

	Output Type
	Inputs []Input

	// MandatoryCount is the number of leading inputs callers must supply.
	MandatoryCount int
}

// Validate checks the call declaration.
func (c Call) Validate() error {
	if c.Name == "" {
		return errors.New("call name is required")
	}
	if c.Output == nil {
		return fmt.Errorf("call %s: output type is required", c.Name)
	}
	if c.MandatoryCount < 0 || c.MandatoryCount > len(c.Inputs) {
		return fmt.Errorf("call %s: mandatory count %d out of range [0, %d]", c.Name, c.MandatoryCount, len(c.Inputs))
	}

	seen := make(map[string]bool, len(c.Inputs))
	for _, in := range c.Inputs {
		if in.Name == "" {
			return fmt.Errorf("call %s: input name is required", c.Name)
		}
		if in.Type == nil {
			return fmt.Errorf("call %s: input %s has no type", c.Name, in.Name)
		}
		if seen[in.Name] {
			return fmt.Errorf("call %s: duplicate input %s", c.Name, in.Name)
		}
		seen[in.Name] = true
	}
	return nil
}

// Mandatory declares a call whose inputs are all required.
func Mandatory(name string, output Type, inputs ...Input) Call {
	return Call{Name: name, Output: output, Inputs: inputs, MandatoryCount: len(inputs)}
}

// Service groups the calls one implementation provides.
type Service struct {
	Name  string
	Calls []Call
}

// NewService validates and builds a service declaration.
func NewService(name string, calls ...Call) (*Service, error) {
	if name == "" {
		return nil, errors.New("service name is required")
	}

	seen := make(map[string]bool, len(calls))
	for _, c := range calls {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("service %s: %w", name, err)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("service %s: duplicate call %s", name, c.Name)
		}
		seen[c.Name] = true
	}

	return &Service{Name: name, Calls: calls}, nil
}
