package resource

import (
	"errors"
	"fmt"
)

// Request facing errors.
var (
	// ErrInputValidation marks an argument that is missing, mistyped or
	// supplied in the wrong count.
	ErrInputValidation = errors.New("input validation failed")

	// ErrOutputValidation marks a delegate result that violates the
	// declared output type.
	ErrOutputValidation = errors.New("output validation failed")
)

// Tree construction errors.
var (
	ErrSealed        = errors.New("resource tree is sealed")
	ErrDuplicateSlot = errors.New("verb slot already assigned")
	ErrAmbiguousNode = errors.New("ambiguous sibling nodes")
)

// InputError reports an invalid argument.
type InputError struct {
	Invoker string
	Input   string
	Reason  string
}

func (e *InputError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("%s: %s", e.Invoker, e.Reason)
	}
	return fmt.Sprintf("%s: input %s: %s", e.Invoker, e.Input, e.Reason)
}

func (e *InputError) Unwrap() error { return ErrInputValidation }

// OutputError reports a result that violates the output type.
type OutputError struct {
	Invoker string
	Value   any
	Want    string
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("%s: returned %T, want %s", e.Invoker, e.Value, e.Want)
}

func (e *OutputError) Unwrap() error { return ErrOutputValidation }

// SlotError reports an attempt to overwrite an assigned verb slot.
type SlotError struct {
	Node     string
	Verb     Verb
	Existing string
	Incoming string
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("node %s: %s already assigned to %s, cannot assign %s",
		e.Node, e.Verb, e.Existing, e.Incoming)
}

func (e *SlotError) Unwrap() error { return ErrDuplicateSlot }

// AmbiguousError reports two sibling nodes that could accept the same token.
type AmbiguousError struct {
	Parent   string
	Existing string
	Incoming string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("node %s: child %s conflicts with existing child %s",
		e.Parent, e.Incoming, e.Existing)
}

func (e *AmbiguousError) Unwrap() error { return ErrAmbiguousNode }
