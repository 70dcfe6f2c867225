package resource

import (
	"reflect"
	"strings"

	"github.com/artpar/resttree/core/schema"
)

// Path is an ordered chain of matches plus the node it resolves to. A path
// without a node is incomplete. Paths are immutable values.
type Path struct {
	matches []Match
	node    *Node
}

// NewPath builds a path. node may be nil for an incomplete path.
func NewPath(matches []Match, node *Node) Path {
	return Path{matches: append([]Match(nil), matches...), node: node}
}

// Matches returns the matches in order.
func (p Path) Matches() []Match { return append([]Match(nil), p.matches...) }

// Node returns the terminal node, nil when incomplete.
func (p Path) Node() *Node { return p.node }

// IsResolved reports whether the path reached a terminal node.
func (p Path) IsResolved() bool { return p.node != nil }

// IsValid reports whether the path is resolved and every match can be
// rendered.
func (p Path) IsValid() bool {
	if p.node == nil {
		return false
	}
	for _, m := range p.matches {
		if !m.IsValid() {
			return false
		}
	}
	return true
}

// Tokens renders the path. It fails on a value match without a value.
func (p Path) Tokens(conv Converter) ([]string, error) {
	tokens := make([]string, 0, len(p.matches))
	for _, m := range p.matches {
		t, err := m.Render(conv)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, nil
}

// Render joins the tokens with "/".
func (p Path) Render(conv Converter) (string, error) {
	tokens, err := p.Tokens(conv)
	if err != nil {
		return "", err
	}
	return strings.Join(tokens, "/"), nil
}

// Arguments pairs every value match with the input of inv whose type equals
// the match type, and returns the values keyed by input name. Inputs that no
// match addresses are absent.
func (p Path) Arguments(inv *Invoker) map[string]any {
	args := make(map[string]any)
	for _, m := range p.matches {
		v, ok := m.Value()
		if !ok {
			continue
		}
		for _, in := range inv.inputs {
			if _, taken := args[in.Name]; taken {
				continue
			}
			if in.Type != nil && in.Type.Equal(m.Type()) {
				args[in.Name] = v
				break
			}
		}
	}
	return args
}

// Update returns a copy of the path whose value matches take their values
// from obj. It reports whether any match was updated.
func (p Path) Update(obj any) (Path, bool) {
	out := Path{matches: make([]Match, len(p.matches)), node: p.node}
	updated := false
	for i, m := range p.matches {
		if nm, ok := m.WithObject(obj); ok {
			out.matches[i] = nm
			updated = true
			continue
		}
		out.matches[i] = m
	}
	return out, updated
}

// UpdateValue returns a copy of the path whose value matches of type t hold v.
func (p Path) UpdateValue(t schema.Type, v any) (Path, bool) {
	out := Path{matches: make([]Match, len(p.matches)), node: p.node}
	updated := false
	for i, m := range p.matches {
		if mt := m.Type(); mt != nil && mt.Equal(t) {
			if nm, ok := m.WithValue(v); ok {
				out.matches[i] = nm
				updated = true
				continue
			}
		}
		out.matches[i] = m
	}
	return out, updated
}

// Extend returns a path that keeps the first keep matches of p, appends
// matches and resolves to node.
func (p Path) Extend(keep int, node *Node, matches ...Match) Path {
	if keep > len(p.matches) {
		keep = len(p.matches)
	}
	out := make([]Match, 0, keep+len(matches))
	out = append(out, p.matches[:keep]...)
	out = append(out, matches...)
	return Path{matches: out, node: node}
}

// Equal reports structural equality.
func (p Path) Equal(o Path) bool {
	if p.node != o.node || len(p.matches) != len(o.matches) {
		return false
	}
	for i := range p.matches {
		if !p.matches[i].Equal(o.matches[i]) {
			return false
		}
	}
	return true
}

func (p Path) String() string {
	parts := make([]string, len(p.matches))
	for i, m := range p.matches {
		parts[i] = m.String()
	}
	s := strings.Join(parts, "/")
	if p.node == nil {
		s += " (incomplete)"
	}
	return s
}

// PathType is the type of Path values, used by invokers that return paths.
var PathType schema.Type = pathType{}

type pathType struct{}

var pathReflectType = reflect.TypeOf(Path{})

func (pathType) IsValid(v any) bool { return v != nil && reflect.TypeOf(v) == pathReflectType }

func (pathType) IsPrimitive() bool { return false }

func (pathType) Kind() schema.Kind { return schema.KindNone }

func (pathType) Equal(other schema.Type) bool {
	_, ok := other.(pathType)
	return ok
}

func (pathType) String() string { return "Path" }
