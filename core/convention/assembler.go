// Package convention classifies invokers by their type signature and attaches
// them to the resource tree. No routes are declared: the shape of an
// operation decides which verb slot of which node it serves.
//
// The six shapes, for a model M with id property M.id:
//
//	GetAll      ()               -> List(M) | List(M.id)   GET    /M
//	GetByID     (M.id, [opt...]) -> M                      GET    /M/{id}
//	Insert      (M)              -> M.id | M               INSERT /M
//	UpdateByID  (M.id, M)        -> bool                   UPDATE /M/{id}
//	UpdateWhole (M)              -> bool                   UPDATE /M/{id}
//	Delete      (M.id)           -> bool                   DELETE /M/{id}
//
// Assemblers run in a caller supplied order; the first to claim an invoker
// wins. Default returns the canonical order.
package convention

import (
	"fmt"

	"github.com/artpar/resttree/core/resource"
	"github.com/artpar/resttree/core/schema"
)

// Assembler attaches an invoker to the tree when its signature fits. It
// reports whether the invoker was claimed. An error means the tree rejected
// the attachment and registration must abort.
type Assembler interface {
	Name() string
	Assemble(root *resource.Node, inv *resource.Invoker) (bool, error)
}

// Default returns the assemblers in canonical order.
func Default() []Assembler {
	return []Assembler{
		GetAll{},
		GetByID{},
		Insert{},
		UpdateByID{},
		UpdateWhole{},
		Delete{},
	}
}

// ByName resolves assembler names, as used in configuration.
func ByName(names ...string) ([]Assembler, error) {
	known := make(map[string]Assembler)
	for _, a := range Default() {
		known[a.Name()] = a
	}

	out := make([]Assembler, 0, len(names))
	for _, n := range names {
		a, ok := known[n]
		if !ok {
			return nil, fmt.Errorf("unknown assembler %q", n)
		}
		out = append(out, a)
	}
	return out, nil
}

// GetAll claims list operations: no mandatory input and a list of models or
// of model ids as output.
type GetAll struct{}

func (GetAll) Name() string { return "get-all" }

func (GetAll) Assemble(root *resource.Node, inv *resource.Invoker) (bool, error) {
	if inv.MandatoryCount() != 0 {
		return false, nil
	}
	list, ok := inv.Output().(schema.List)
	if !ok {
		return false, nil
	}

	model := modelOf(list.Item)
	if model == nil {
		return false, nil
	}

	node, err := root.ChildModel(model)
	if err != nil {
		return false, err
	}
	return true, node.SetInvoker(resource.VerbGet, inv)
}

// GetByID claims lookups: exactly one mandatory input typed as the id of the
// output model. Optional inputs may follow.
type GetByID struct{}

func (GetByID) Name() string { return "get-by-id" }

func (GetByID) Assemble(root *resource.Node, inv *resource.Invoker) (bool, error) {
	model, ok := inv.Output().(*schema.Model)
	if !ok || inv.MandatoryCount() != 1 {
		return false, nil
	}
	id, ok := idInput(inv.Inputs()[0], model)
	if !ok {
		return false, nil
	}
	return attachByID(root, model, id, resource.VerbGet, inv)
}

// Insert claims creation: a single whole model input, returning the new id
// or the stored model.
type Insert struct{}

func (Insert) Name() string { return "insert" }

func (Insert) Assemble(root *resource.Node, inv *resource.Invoker) (bool, error) {
	inputs := inv.Inputs()
	if len(inputs) != 1 {
		return false, nil
	}
	model, ok := inputs[0].Type.(*schema.Model)
	if !ok {
		return false, nil
	}

	switch out := inv.Output().(type) {
	case *schema.Model:
		if out != model {
			return false, nil
		}
	case *schema.Property:
		if !out.IsID() || out.Model() != model {
			return false, nil
		}
	default:
		return false, nil
	}

	node, err := root.ChildModel(model)
	if err != nil {
		return false, err
	}
	return true, node.SetInvoker(resource.VerbInsert, inv)
}

// UpdateByID claims updates taking the id and the model: (M.id, M) -> bool.
type UpdateByID struct{}

func (UpdateByID) Name() string { return "update-by-id" }

func (UpdateByID) Assemble(root *resource.Node, inv *resource.Invoker) (bool, error) {
	inputs := inv.Inputs()
	if len(inputs) != 2 || !isBool(inv.Output()) {
		return false, nil
	}
	model, ok := inputs[1].Type.(*schema.Model)
	if !ok {
		return false, nil
	}
	id, ok := idInput(inputs[0], model)
	if !ok {
		return false, nil
	}
	return attachByID(root, model, id, resource.VerbUpdate, inv)
}

// UpdateWhole claims updates taking only the model: (M) -> bool. The id is
// taken from the path: a derived invoker prepends an id input and writes it
// into the model before delegating.
type UpdateWhole struct{}

func (UpdateWhole) Name() string { return "update-whole" }

func (UpdateWhole) Assemble(root *resource.Node, inv *resource.Invoker) (bool, error) {
	inputs := inv.Inputs()
	if len(inputs) != 1 || !isBool(inv.Output()) {
		return false, nil
	}
	model, ok := inputs[0].Type.(*schema.Model)
	if !ok {
		return false, nil
	}
	id, ok := model.IDProperty()
	if !ok {
		return false, nil
	}

	derived, err := resource.NewDerivedInvoker(inv,
		[]schema.Input{{Name: id.Name(), Type: id}, inputs[0]}, 2,
		func(args []any) ([]any, error) {
			if err := id.Set(args[1], args[0]); err != nil {
				return nil, &resource.InputError{Invoker: inv.Name(), Input: id.Name(), Reason: err.Error()}
			}
			return args[1:], nil
		})
	if err != nil {
		return false, err
	}

	return attachByID(root, model, id, resource.VerbUpdate, derived)
}

// Delete claims removals: a single id input and a boolean result.
type Delete struct{}

func (Delete) Name() string { return "delete" }

func (Delete) Assemble(root *resource.Node, inv *resource.Invoker) (bool, error) {
	inputs := inv.Inputs()
	if len(inputs) != 1 || !isBool(inv.Output()) {
		return false, nil
	}
	id, ok := inputs[0].Type.(*schema.Property)
	if !ok || !id.IsID() {
		return false, nil
	}
	return attachByID(root, id.Model(), id, resource.VerbDelete, inv)
}

func attachByID(root *resource.Node, model *schema.Model, id *schema.Property, verb resource.Verb, inv *resource.Invoker) (bool, error) {
	node, err := root.ChildModel(model)
	if err != nil {
		return false, err
	}
	node, err = node.ChildID(id)
	if err != nil {
		return false, err
	}
	return true, node.SetInvoker(verb, inv)
}

// modelOf returns the model behind a whole model or model id type.
func modelOf(t schema.Type) *schema.Model {
	switch v := t.(type) {
	case *schema.Model:
		return v
	case *schema.Property:
		if v.IsID() {
			return v.Model()
		}
	}
	return nil
}

func idInput(in schema.Input, model *schema.Model) (*schema.Property, bool) {
	p, ok := in.Type.(*schema.Property)
	if !ok || !p.IsID() || p.Model() != model {
		return nil, false
	}
	return p, true
}

func isBool(t schema.Type) bool {
	return t != nil && t.Equal(schema.Bool)
}
