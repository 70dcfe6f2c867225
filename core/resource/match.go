package resource

import (
	"fmt"

	"github.com/artpar/resttree/core/schema"
)

// MatchKind distinguishes literal from value matches.
type MatchKind int

const (
	MatchLiteral MatchKind = iota
	MatchValue
)

// Match binds one path token, or one typed value, to the node that accepts
// it. A literal match is always valid. A value match is valid once it holds
// a value.
type Match struct {
	node    *Node
	kind    MatchKind
	literal string
	value   any
}

func (m Match) Node() *Node { return m.node }

func (m Match) Kind() MatchKind { return m.kind }

func (m Match) IsValid() bool {
	return m.kind == MatchLiteral || m.value != nil
}

// Value returns the held value of a value match.
func (m Match) Value() (any, bool) {
	if m.kind != MatchValue || m.value == nil {
		return nil, false
	}
	return m.value, true
}

// Type returns the id property type carried by a value match, nil for a
// literal.
func (m Match) Type() schema.Type {
	if m.kind != MatchValue || m.node == nil {
		return nil
	}
	return m.node.property
}

// Render returns the path token of the match.
func (m Match) Render(conv Converter) (string, error) {
	if m.kind == MatchLiteral {
		return conv.Normalize(m.literal), nil
	}
	if m.value == nil {
		return "", fmt.Errorf("match %s has no value", m.node)
	}
	return conv.Render(m.value)
}

// WithValue returns a copy of a value match holding v.
func (m Match) WithValue(v any) (Match, bool) {
	if m.kind != MatchValue || v == nil || !m.node.property.IsValid(v) {
		return m, false
	}
	cv, err := schema.Coerce(m.node.property, v)
	if err != nil {
		return m, false
	}
	m.value = cv
	return m, true
}

// WithObject returns a copy of a value match holding the id property of obj.
// It reports false, and returns m unchanged, for literal matches and for
// objects that are not instances of the node's model.
func (m Match) WithObject(obj any) (Match, bool) {
	if m.kind != MatchValue {
		return m, false
	}
	prop := m.node.property
	if !prop.Model().IsValid(obj) {
		return m, false
	}
	v, err := prop.Get(obj)
	if err != nil {
		return m, false
	}
	return m.WithValue(v)
}

// Equal reports whether both matches bind the same node to the same token.
func (m Match) Equal(o Match) bool {
	return m.node == o.node && m.kind == o.kind && m.literal == o.literal && m.value == o.value
}

func (m Match) String() string {
	if m.kind == MatchLiteral {
		return m.literal
	}
	if m.value == nil {
		return m.node.String()
	}
	return fmt.Sprint(m.value)
}
