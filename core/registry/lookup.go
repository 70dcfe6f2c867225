package registry

import (
	"github.com/artpar/resttree/core/resource"
	"github.com/artpar/resttree/core/schema"
)

// FindShortPath returns the first node, in breadth first order, whose GET
// invoker has exactly the given signature. A nil output matches any output.
// The returned path is blank: value matches await values.
func (r *Registry) FindShortPath(output schema.Type, inputs ...schema.Type) (resource.Path, bool) {
	var found resource.Path
	ok := false
	r.breadthFirst(func(n *resource.Node) bool {
		if signatureMatches(n.Invoker(resource.VerbGet), output, inputs) {
			found, ok = n.Path(), true
			return false
		}
		return true
	})
	return found, ok
}

// FindAllPaths returns every node path whose GET invoker has exactly the
// given signature, in breadth first order.
func (r *Registry) FindAllPaths(output schema.Type, inputs ...schema.Type) []resource.Path {
	var paths []resource.Path
	r.breadthFirst(func(n *resource.Node) bool {
		if signatureMatches(n.Invoker(resource.VerbGet), output, inputs) {
			paths = append(paths, n.Path())
		}
		return true
	})
	return paths
}

func (r *Registry) breadthFirst(visit func(*resource.Node) bool) {
	queue := []*resource.Node{r.root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if !visit(n) {
			return
		}
		queue = append(queue, n.Children()...)
	}
}

func signatureMatches(inv *resource.Invoker, output schema.Type, inputs []schema.Type) bool {
	if inv == nil {
		return false
	}
	if output != nil && !inv.Output().Equal(output) {
		return false
	}

	declared := inv.Inputs()
	if len(declared) != len(inputs) {
		return false
	}
	for i, in := range declared {
		if inputs[i] == nil || !in.Type.Equal(inputs[i]) {
			return false
		}
	}
	return true
}

// FindGetModel locates the get-by-id resource of model relative to from. It
// walks the matches of from backwards looking for the model's collection
// node, either on the path itself or as a child of a node on it, and returns
// the path to that collection's typed child. The value match of the result
// is blank; fill it with Path.Update or Path.UpdateValue.
func (r *Registry) FindGetModel(from resource.Path, model *schema.Model) (resource.Path, bool) {
	matches := from.Matches()

	for index := len(matches) - 1; index >= -1; index-- {
		node := r.root
		if index >= 0 {
			node = matches[index].Node()
		}

		if node.Kind() == resource.NodeLiteral && node.Model() == model {
			if id, ok := gettableID(node); ok {
				m, _ := id.NewMatch()
				return from.Extend(index+1, id, m), true
			}
		}

		for _, child := range node.Children() {
			if child.Kind() != resource.NodeLiteral || child.Model() != model {
				continue
			}
			if id, ok := gettableID(child); ok {
				lm, _ := child.NewMatch()
				im, _ := id.NewMatch()
				return from.Extend(index+1, id, lm, im), true
			}
		}
	}

	return resource.Path{}, false
}

func gettableID(n *resource.Node) (*resource.Node, bool) {
	for _, c := range n.Children() {
		if c.Kind() == resource.NodeTyped && c.Invoker(resource.VerbGet) != nil {
			return c, true
		}
	}
	return nil, false
}

// AccessiblePaths returns the paths of every resource reachable below from
// with a GET invoker and no unresolved value, depth first.
func (r *Registry) AccessiblePaths(from resource.Path) []resource.Path {
	node := from.Node()
	if node == nil {
		return nil
	}

	paths := []resource.Path{}
	for _, child := range node.Children() {
		if child.Invoker(resource.VerbGet) == nil {
			continue
		}
		m, ok := child.NewMatch()
		if !ok || !m.IsValid() {
			continue
		}
		extended := from.Extend(len(from.Matches()), child, m)
		paths = append(paths, extended)
		paths = append(paths, r.AccessiblePaths(extended)...)
	}
	return paths
}

// Route describes one assigned verb slot.
type Route struct {
	Path    string
	Verb    resource.Verb
	Invoker *resource.Invoker
}

// Routes lists every assigned verb slot, depth first in precedence order.
func (r *Registry) Routes() []Route {
	var routes []Route
	r.root.Walk(func(n *resource.Node) bool {
		for _, v := range resource.Verbs {
			if inv := n.Invoker(v); inv != nil {
				routes = append(routes, Route{Path: "/" + n.Path().String(), Verb: v, Invoker: inv})
			}
		}
		return true
	})
	return routes
}
