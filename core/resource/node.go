package resource

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/artpar/resttree/core/schema"
)

// NodeKind classifies what token a node accepts.
type NodeKind int

const (
	// NodeRoot is the tree root. It accepts no token.
	NodeRoot NodeKind = iota
	// NodeLiteral accepts the name of its model.
	NodeLiteral
	// NodeTyped accepts a value of its model's id property.
	NodeTyped
)

// Child precedence. Lower orders are tried first.
const (
	OrderRoot    = 0
	OrderLiteral = 1
	OrderTyped   = 2
)

// Node is a vertex of the resource tree. It holds up to one invoker per
// verb. Nodes are created during registration and are read only once the
// tree is sealed.
type Node struct {
	parent   *Node
	kind     NodeKind
	model    *schema.Model
	property *schema.Property
	children []*Node
	slots    [4]*Invoker
	sealed   *atomic.Bool
}

// NewRoot creates an empty tree.
func NewRoot() *Node {
	return &Node{kind: NodeRoot, sealed: new(atomic.Bool)}
}

func (n *Node) Kind() NodeKind { return n.kind }

// Order returns the precedence class of the node.
func (n *Node) Order() int {
	switch n.kind {
	case NodeLiteral:
		return OrderLiteral
	case NodeTyped:
		return OrderTyped
	default:
		return OrderRoot
	}
}

// Parent returns nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Model returns the model the node belongs to, nil for the root.
func (n *Node) Model() *schema.Model { return n.model }

// Property returns the id property accepted by a typed node.
func (n *Node) Property() *schema.Property { return n.property }

// Children returns the children in precedence order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Invoker returns the invoker in the verb slot, nil if empty.
func (n *Node) Invoker(v Verb) *Invoker {
	i, ok := v.slot()
	if !ok {
		return nil
	}
	return n.slots[i]
}

// Allows returns the verbs with an assigned invoker.
func (n *Node) Allows() Verb {
	var allows Verb
	for i, v := range Verbs {
		if n.slots[i] != nil {
			allows |= v
		}
	}
	return allows
}

// SetInvoker assigns the verb slot. An assigned slot is never overwritten.
func (n *Node) SetInvoker(v Verb, inv *Invoker) error {
	if n.sealed.Load() {
		return ErrSealed
	}
	i, ok := v.slot()
	if !ok {
		return fmt.Errorf("node %s: %s is not a single verb", n, v)
	}
	if inv == nil {
		return fmt.Errorf("node %s: nil invoker for %s", n, v)
	}
	if existing := n.slots[i]; existing != nil {
		return &SlotError{Node: n.String(), Verb: v, Existing: existing.String(), Incoming: inv.String()}
	}
	n.slots[i] = inv
	return nil
}

// ChildModel returns the literal child for model, creating it if needed.
func (n *Node) ChildModel(model *schema.Model) (*Node, error) {
	if n.sealed.Load() {
		return nil, ErrSealed
	}

	for _, c := range n.children {
		if c.kind != NodeLiteral {
			continue
		}
		if c.model == model {
			return c, nil
		}
		if strings.EqualFold(c.model.Name(), model.Name()) {
			return nil, &AmbiguousError{Parent: n.String(), Existing: c.String(), Incoming: model.Name()}
		}
	}

	return n.addChild(&Node{kind: NodeLiteral, model: model}), nil
}

// ChildID returns the typed child for an id property, creating it if needed.
// A node has at most one typed child.
func (n *Node) ChildID(prop *schema.Property) (*Node, error) {
	if n.sealed.Load() {
		return nil, ErrSealed
	}
	if !prop.IsPrimitive() {
		return nil, fmt.Errorf("node %s: %s is not primitive", n, prop)
	}

	for _, c := range n.children {
		if c.kind != NodeTyped {
			continue
		}
		if c.property == prop {
			return c, nil
		}
		return nil, &AmbiguousError{Parent: n.String(), Existing: c.String(), Incoming: "{" + prop.String() + "}"}
	}

	return n.addChild(&Node{kind: NodeTyped, model: prop.Model(), property: prop}), nil
}

func (n *Node) addChild(c *Node) *Node {
	c.parent = n
	c.sealed = n.sealed
	n.children = append(n.children, c)
	sort.SliceStable(n.children, func(i, j int) bool {
		return n.children[i].Order() < n.children[j].Order()
	})
	return c
}

// Seal freezes the whole tree the node belongs to.
func (n *Node) Seal() { n.sealed.Store(true) }

// Sealed reports whether the tree is frozen.
func (n *Node) Sealed() bool { return n.sealed.Load() }

// tryMatch attempts to accept the token at offset. It reports the match and
// the number of tokens consumed.
func (n *Node) tryMatch(conv Converter, tokens []string, offset int) (Match, int, bool) {
	if offset >= len(tokens) {
		return Match{}, 0, false
	}
	token := tokens[offset]

	switch n.kind {
	case NodeLiteral:
		if conv.Normalize(n.model.Name()) == conv.Normalize(token) {
			return Match{node: n, kind: MatchLiteral, literal: n.model.Name()}, 1, true
		}
	case NodeTyped:
		v, err := ParseValue(conv, n.property, token)
		if err == nil {
			return Match{node: n, kind: MatchValue, value: v}, 1, true
		}
	}
	return Match{}, 0, false
}

// NewMatch returns the blank match that addresses this node: the literal for
// a literal node and an empty value match for a typed node.
func (n *Node) NewMatch() (Match, bool) {
	switch n.kind {
	case NodeLiteral:
		return Match{node: n, kind: MatchLiteral, literal: n.model.Name()}, true
	case NodeTyped:
		return Match{node: n, kind: MatchValue}, true
	default:
		return Match{}, false
	}
}

// Walk visits n and its descendants depth first in precedence order.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Path returns the blank path that addresses the node from the root.
func (n *Node) Path() Path {
	var matches []Match
	for c := n; c != nil; c = c.parent {
		if m, ok := c.NewMatch(); ok {
			matches = append(matches, m)
		}
	}
	for i, j := 0, len(matches)-1; i < j; i, j = i+1, j-1 {
		matches[i], matches[j] = matches[j], matches[i]
	}
	return Path{matches: matches, node: n}
}

func (n *Node) String() string {
	switch n.kind {
	case NodeLiteral:
		return n.model.Name()
	case NodeTyped:
		return "{" + n.property.String() + "}"
	default:
		return "/"
	}
}
