package convention

import (
	"context"
	"errors"
	"testing"

	"github.com/artpar/resttree/adapters/converter"
	"github.com/artpar/resttree/core/resource"
	"github.com/artpar/resttree/core/schema"
)

type publication struct {
	ID   int64  `rest:"Id,id"`
	Name string `rest:"Name"`
}

type fixture struct {
	model *schema.Model
	id    *schema.Property
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	m, err := schema.NewStructModel("Publication", (*publication)(nil))
	if err != nil {
		t.Fatal(err)
	}
	id, _ := m.IDProperty()
	return fixture{model: m, id: id}
}

func fn(t *testing.T, name string, out schema.Type, mandatory int, inputs ...schema.Input) *resource.Invoker {
	t.Helper()
	inv, err := resource.NewFunctionInvoker(name, out, inputs, mandatory,
		func(ctx context.Context, args []any) (any, error) { return true, nil })
	if err != nil {
		t.Fatal(err)
	}
	return inv
}

func TestAssemblerShapes(t *testing.T) {
	f := newFixture(t)
	pub := schema.Input{Name: "pub", Type: f.model}
	id := schema.Input{Name: "id", Type: f.id}

	tests := []struct {
		name      string
		assembler Assembler
		inv       *resource.Invoker
		tokens    []string
		verb      resource.Verb
	}{
		{"all models", GetAll{}, fn(t, "All", schema.ListOf(f.model), 0), []string{"Publication"}, resource.VerbGet},
		{"all ids", GetAll{}, fn(t, "Ids", schema.ListOf(f.id), 0), []string{"Publication"}, resource.VerbGet},
		{"all with optional filter", GetAll{}, fn(t, "All", schema.ListOf(f.model), 0, schema.Input{Name: "name", Type: schema.String}), []string{"Publication"}, resource.VerbGet},
		{"by id", GetByID{}, fn(t, "ByID", f.model, 1, id), []string{"Publication", "1"}, resource.VerbGet},
		{"insert returning id", Insert{}, fn(t, "Insert", f.id, 1, pub), []string{"Publication"}, resource.VerbInsert},
		{"insert returning model", Insert{}, fn(t, "Insert", f.model, 1, pub), []string{"Publication"}, resource.VerbInsert},
		{"update by id", UpdateByID{}, fn(t, "Update", schema.Bool, 2, id, pub), []string{"Publication", "1"}, resource.VerbUpdate},
		{"update whole", UpdateWhole{}, fn(t, "Update", schema.Bool, 1, pub), []string{"Publication", "1"}, resource.VerbUpdate},
		{"delete", Delete{}, fn(t, "Delete", schema.Bool, 1, id), []string{"Publication", "1"}, resource.VerbDelete},
	}

	conv := converter.New(false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := resource.NewRoot()
			claimed, err := tt.assembler.Assemble(root, tt.inv)
			if err != nil {
				t.Fatalf("Assemble error: %v", err)
			}
			if !claimed {
				t.Fatalf("%s did not claim %s", tt.assembler.Name(), tt.inv)
			}

			p := resource.Resolve(root, conv, tt.tokens)
			if !p.IsResolved() {
				t.Fatalf("Resolve(%v) is incomplete", tt.tokens)
			}
			if p.Node().Invoker(tt.verb) == nil {
				t.Errorf("node %s has no %s invoker", p.Node(), tt.verb)
			}
			if p.Node().Allows() != tt.verb {
				t.Errorf("Allows = %s, want %s", p.Node().Allows(), tt.verb)
			}
		})
	}
}

func TestAssemblerRejects(t *testing.T) {
	f := newFixture(t)
	other, _ := schema.NewStructModel("Other", (*publication)(nil))
	otherID, _ := other.IDProperty()
	pub := schema.Input{Name: "pub", Type: f.model}
	id := schema.Input{Name: "id", Type: f.id}

	tests := []struct {
		name string
		inv  *resource.Invoker
	}{
		{"list of strings", fn(t, "Names", schema.ListOf(schema.String), 0)},
		{"list with mandatory input", fn(t, "Filter", schema.ListOf(f.model), 1, schema.Input{Name: "q", Type: schema.String})},
		{"by plain int", fn(t, "ByNumber", f.model, 1, schema.Input{Name: "n", Type: schema.Int})},
		{"by foreign id", fn(t, "ByOther", f.model, 1, schema.Input{Name: "id", Type: otherID})},
		{"insert returning string", fn(t, "Insert", schema.String, 1, pub)},
		{"insert returning foreign model", fn(t, "Insert", other, 1, pub)},
		{"update returning int", fn(t, "Update", schema.Int, 2, id, pub)},
		{"delete by plain int", fn(t, "Delete", schema.Bool, 1, schema.Input{Name: "n", Type: schema.Int})},
		{"three inputs", fn(t, "Move", schema.Bool, 3, id, pub, schema.Input{Name: "to", Type: schema.Int})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := resource.NewRoot()
			for _, a := range Default() {
				claimed, err := a.Assemble(root, tt.inv)
				if err != nil {
					t.Fatalf("%s error: %v", a.Name(), err)
				}
				if claimed {
					t.Errorf("%s claimed %s", a.Name(), tt.inv)
				}
			}
			if n := len(root.Children()); n != 0 {
				t.Errorf("tree changed: root has %d children", n)
			}
		})
	}
}

func TestUpdateShapesExclusive(t *testing.T) {
	f := newFixture(t)
	pub := schema.Input{Name: "pub", Type: f.model}
	id := schema.Input{Name: "id", Type: f.id}

	root := resource.NewRoot()
	if _, err := (UpdateByID{}).Assemble(root, fn(t, "UpdateByID", schema.Bool, 2, id, pub)); err != nil {
		t.Fatal(err)
	}

	_, err := (UpdateWhole{}).Assemble(root, fn(t, "Update", schema.Bool, 1, pub))
	if !errors.Is(err, resource.ErrDuplicateSlot) {
		t.Fatalf("second update error = %v, want ErrDuplicateSlot", err)
	}

	p := resource.Resolve(root, converter.New(false), []string{"Publication", "1"})
	if got := p.Node().Invoker(resource.VerbUpdate).Name(); got != "UpdateByID" {
		t.Errorf("UPDATE slot holds %s, want UpdateByID", got)
	}
}

func TestUpdateWholeSetsID(t *testing.T) {
	f := newFixture(t)

	var got *publication
	update, err := resource.NewFunctionInvoker("Update", schema.Bool,
		[]schema.Input{{Name: "pub", Type: f.model}}, 1,
		func(ctx context.Context, args []any) (any, error) {
			got = args[0].(*publication)
			return true, nil
		})
	if err != nil {
		t.Fatal(err)
	}

	root := resource.NewRoot()
	if ok, err := (UpdateWhole{}).Assemble(root, update); err != nil || !ok {
		t.Fatalf("Assemble = %v, %v", ok, err)
	}

	conv := converter.New(false)
	p := resource.Resolve(root, conv, []string{"Publication", "42"})
	inv := p.Node().Invoker(resource.VerbUpdate)
	if inv == nil {
		t.Fatal("no UPDATE invoker at Publication/42")
	}
	if inv.Kind() != resource.KindDerived {
		t.Errorf("UPDATE invoker kind = %s, want derived", inv.Kind())
	}

	args := p.Arguments(inv)
	res, err := inv.Invoke(context.Background(), args["Id"], &publication{Name: "Weekly"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res != true {
		t.Errorf("Invoke = %v, want true", res)
	}
	if got == nil || got.ID != 42 || got.Name != "Weekly" {
		t.Errorf("delegate received %+v, want Id 42", got)
	}
}

func TestByName(t *testing.T) {
	as, err := ByName("delete", "get-all")
	if err != nil {
		t.Fatal(err)
	}
	if len(as) != 2 || as[0].Name() != "delete" || as[1].Name() != "get-all" {
		t.Errorf("ByName returned %v", as)
	}
	if _, err := ByName("get-some"); err == nil {
		t.Error("expected error for unknown assembler")
	}
}

func TestNaming(t *testing.T) {
	tests := []struct {
		in, plural, table string
	}{
		{"Publication", "Publications", "publications"},
		{"Category", "Categories", "categories"},
		{"Box", "Boxes", "boxes"},
		{"Day", "Days", "days"},
		{"Person", "People", "people"},
		{"ArticleType", "ArticleTypes", "article_types"},
		{"Status", "Statuses", "statuses"},
	}

	for _, tt := range tests {
		if got := Pluralize(tt.in); got != tt.plural {
			t.Errorf("Pluralize(%q) = %q, want %q", tt.in, got, tt.plural)
		}
		if got := Table(tt.in); got != tt.table {
			t.Errorf("Table(%q) = %q, want %q", tt.in, got, tt.table)
		}
	}
}
