package resource

import (
	"context"
	"errors"
	"testing"

	"github.com/artpar/resttree/core/schema"
)

type publication struct {
	ID   int64  `rest:"Id,id"`
	Name string `rest:"Name"`
}

type section struct {
	Code string `rest:"Code,id"`
}

func testModels(t *testing.T) (*schema.Model, *schema.Property) {
	t.Helper()
	m, err := schema.NewStructModel("Publication", (*publication)(nil))
	if err != nil {
		t.Fatalf("NewStructModel: %v", err)
	}
	id, _ := m.IDProperty()
	return m, id
}

type publications struct {
	byID map[int64]*publication
}

func (s *publications) ByID(ctx context.Context, id int) (*publication, error) {
	p, ok := s.byID[int64(id)]
	if !ok {
		return nil, schema.ErrNotFound
	}
	return p, nil
}

func (s *publications) Broken(ctx context.Context) (string, error) {
	return "", nil
}

func TestNewCallInvoker(t *testing.T) {
	m, id := testModels(t)
	svc, err := schema.NewService("Publications", schema.Mandatory("ByID", m, schema.Input{Name: "id", Type: id}))
	if err != nil {
		t.Fatal(err)
	}
	impl := &publications{byID: map[int64]*publication{42: {ID: 42, Name: "Daily"}}}

	inv, err := NewCallInvoker(svc, svc.Calls[0], impl)
	if err != nil {
		t.Fatalf("NewCallInvoker: %v", err)
	}
	if inv.Kind() != KindCall || inv.Service() != "Publications" || inv.Name() != "ByID" {
		t.Errorf("invoker = %s, want a call to Publications.ByID", inv)
	}

	got, err := inv.Invoke(context.Background(), int64(42))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got.(*publication).Name != "Daily" {
		t.Errorf("Invoke returned %+v", got)
	}

	_, err = inv.Invoke(context.Background(), int64(7))
	if !errors.Is(err, schema.ErrNotFound) {
		t.Errorf("Invoke(7) error = %v, want ErrNotFound", err)
	}
}

func TestNewCallInvokerSignatureMismatch(t *testing.T) {
	m, id := testModels(t)
	impl := &publications{}

	tests := []struct {
		name string
		call schema.Call
	}{
		{"missing method", schema.Mandatory("All", schema.ListOf(m))},
		{"arity", schema.Mandatory("ByID", m)},
		{"extra input", schema.Mandatory("Broken", schema.String, schema.Input{Name: "id", Type: id})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &schema.Service{Name: "Publications", Calls: []schema.Call{tt.call}}
			if _, err := NewCallInvoker(svc, tt.call, impl); err == nil {
				t.Error("expected registration error")
			}
		})
	}
}

func TestInvokeValidation(t *testing.T) {
	boom := errors.New("boom")
	inv, err := NewFunctionInvoker("sum", schema.Int,
		[]schema.Input{{Name: "a", Type: schema.Int}, {Name: "b", Type: schema.Int}}, 1,
		func(ctx context.Context, args []any) (any, error) {
			if len(args) > 1 && args[1] != nil && args[1].(int) == 13 {
				return nil, boom
			}
			if len(args) > 1 && args[1] != nil && args[1].(int) == 99 {
				return "not an int", nil
			}
			return args[0], nil
		})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    []any
		wantErr error
	}{
		{"only mandatory", []any{1}, nil},
		{"all", []any{1, 2}, nil},
		{"optional nil", []any{1, nil}, nil},
		{"too few", nil, ErrInputValidation},
		{"too many", []any{1, 2, 3}, ErrInputValidation},
		{"mandatory nil", []any{nil}, ErrInputValidation},
		{"wrong type", []any{"1"}, ErrInputValidation},
		{"bad output", []any{1, 99}, ErrOutputValidation},
		{"delegate error", []any{1, 13}, boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inv.Invoke(context.Background(), tt.args...)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Invoke error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Invoke error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDerivedInvoker(t *testing.T) {
	m, id := testModels(t)

	var seen *publication
	update, err := NewFunctionInvoker("update", schema.Bool,
		[]schema.Input{{Name: "pub", Type: m}}, 1,
		func(ctx context.Context, args []any) (any, error) {
			seen = args[0].(*publication)
			return true, nil
		})
	if err != nil {
		t.Fatal(err)
	}

	derived, err := NewDerivedInvoker(update,
		[]schema.Input{{Name: "Id", Type: id}, {Name: "pub", Type: m}}, 2,
		func(args []any) ([]any, error) {
			if err := id.Set(args[1], args[0]); err != nil {
				return nil, err
			}
			return args[1:], nil
		})
	if err != nil {
		t.Fatal(err)
	}

	if derived.Kind() != KindDerived || derived.Delegate() != update {
		t.Errorf("derived = %s, want a derived invoker over update", derived)
	}

	ok, err := derived.Invoke(context.Background(), int64(42), &publication{Name: "Weekly"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if ok != true {
		t.Errorf("Invoke = %v, want true", ok)
	}
	if seen == nil || seen.ID != 42 {
		t.Errorf("delegate saw %+v, want ID 42", seen)
	}
}

func TestInvokerEqual(t *testing.T) {
	fn := func(ctx context.Context, args []any) (any, error) { return true, nil }
	other := func(ctx context.Context, args []any) (any, error) { return false, nil }
	inputs := []schema.Input{{Name: "a", Type: schema.Int}}

	a, _ := NewFunctionInvoker("f", schema.Bool, inputs, 1, fn)
	b, _ := NewFunctionInvoker("f", schema.Bool, inputs, 1, other)
	c, _ := NewFunctionInvoker("f", schema.Bool, inputs, 0, fn)
	d, _ := NewFunctionInvoker("f", schema.Bool, []schema.Input{{Name: "a", Type: schema.String}}, 1, fn)

	if !a.Equal(b) {
		t.Error("invokers differing only by callable should be equal")
	}
	if a.Equal(c) {
		t.Error("invokers with different mandatory counts should differ")
	}
	if a.Equal(d) {
		t.Error("invokers with different input types should differ")
	}
}

func TestInvokerString(t *testing.T) {
	inv, _ := NewFunctionInvoker("list", schema.ListOf(schema.String),
		[]schema.Input{{Name: "q", Type: schema.String}, {Name: "limit", Type: schema.Int}}, 1,
		func(ctx context.Context, args []any) (any, error) { return []string{}, nil })

	want := "list(q string, [limit int]) List(string)"
	if got := inv.String(); got != want {
		t.Errorf("String = %q, want %q", got, want)
	}
}
