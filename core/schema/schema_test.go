package schema

import (
	"os"
	"path/filepath"
	"testing"
)

type article struct {
	ID      int64   `rest:"Id,id"`
	Title   string  `rest:"Title"`
	Rating  float64 `rest:"Rating"`
	Draft   bool    `rest:"Draft"`
	Tags    []string
	private int
}

func TestPrimitiveIsValid(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		v    any
		want bool
	}{
		{"int accepts int", Int, 42, true},
		{"int accepts int64", Int, int64(42), true},
		{"int accepts uint8", Int, uint8(1), true},
		{"int rejects float", Int, 4.2, false},
		{"int rejects string", Int, "42", false},
		{"int rejects nil", Int, nil, false},
		{"decimal accepts float", Decimal, 4.2, true},
		{"decimal accepts int", Decimal, 4, true},
		{"bool accepts bool", Bool, true, true},
		{"bool rejects int", Bool, 1, false},
		{"string accepts string", String, "x", true},
		{"string rejects bytes", String, []byte("x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.IsValid(tt.v); got != tt.want {
				t.Errorf("%s.IsValid(%#v) = %v, want %v", tt.typ, tt.v, got, tt.want)
			}
		})
	}
}

func TestListType(t *testing.T) {
	l := ListOf(Int)

	if !l.IsValid([]int{1, 2, 3}) {
		t.Error("[]int should be a valid List(int)")
	}
	if !l.IsValid([]any{int64(1), 2}) {
		t.Error("[]any of ints should be a valid List(int)")
	}
	if l.IsValid([]any{1, "two"}) {
		t.Error("mixed slice should not be a valid List(int)")
	}
	if l.IsValid(1) {
		t.Error("scalar should not be a valid List(int)")
	}
	if !l.Equal(ListOf(Int)) {
		t.Error("List(int) should equal List(int)")
	}
	if l.Equal(ListOf(String)) {
		t.Error("List(int) should not equal List(string)")
	}
	if l.IsPrimitive() || l.Kind() != KindNone {
		t.Error("List should not be primitive")
	}
}

func TestStructModel(t *testing.T) {
	m, err := NewStructModel("Article", (*article)(nil))
	if err != nil {
		t.Fatalf("NewStructModel failed: %v", err)
	}

	if m.Name() != "Article" {
		t.Errorf("Name = %q, want %q", m.Name(), "Article")
	}

	props := m.Properties()
	if len(props) != 4 {
		t.Fatalf("got %d properties, want 4", len(props))
	}

	id, ok := m.IDProperty()
	if !ok {
		t.Fatal("IDProperty not found")
	}
	if id.Name() != "Id" || !id.IsID() {
		t.Errorf("id property = %s (id=%v), want Id", id.Name(), id.IsID())
	}
	if id.Kind() != KindInt {
		t.Errorf("id Kind = %v, want int", id.Kind())
	}

	a := m.New()
	if !m.IsValid(a) {
		t.Fatalf("New() = %T, not valid for model", a)
	}
	if m.IsValid(&struct{}{}) {
		t.Error("foreign struct should not be a valid instance")
	}
	if m.IsValid((*article)(nil)) {
		t.Error("nil pointer should not be a valid instance")
	}

	if err := id.Set(a, 42); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if a.(*article).ID != 42 {
		t.Errorf("ID = %d, want 42", a.(*article).ID)
	}

	got, err := id.Get(a)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != int64(42) {
		t.Errorf("Get = %#v, want int64(42)", got)
	}

	if err := id.Set(a, "42"); err == nil {
		t.Error("Set with a string id should fail")
	}
	if _, err := id.Get(&struct{}{}); err == nil {
		t.Error("Get on a foreign value should fail")
	}
}

type gauge struct {
	ID    int64 `rest:"Id,id"`
	Level uint8 `rest:"Level"`
	Delta int8  `rest:"Delta"`
}

func TestStructModelRejectsOverflow(t *testing.T) {
	m, err := NewStructModel("Gauge", (*gauge)(nil))
	if err != nil {
		t.Fatal(err)
	}
	level, _ := m.Property("Level")
	delta, _ := m.Property("Delta")

	tests := []struct {
		name    string
		prop    *Property
		value   any
		wantErr bool
	}{
		{"uint8 in range", level, int64(255), false},
		{"uint8 too large", level, int64(300), true},
		{"uint8 negative", level, int64(-1), true},
		{"int8 lower bound", delta, int64(-128), false},
		{"int8 too large", delta, int64(128), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := m.New().(*gauge)
			err := tt.prop.Set(g, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set(%v) err = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if tt.wantErr && (g.Level != 0 || g.Delta != 0) {
				t.Errorf("field written on overflow: %+v", g)
			}
		})
	}
}

func TestStructModelRejectsNonPointer(t *testing.T) {
	if _, err := NewStructModel("Article", article{}); err == nil {
		t.Error("expected error for non-pointer sample")
	}
}

func TestPropertyTypeEquality(t *testing.T) {
	a, _ := NewStructModel("A", (*article)(nil))
	b, _ := NewStructModel("B", (*article)(nil))

	aid, _ := a.IDProperty()
	bid, _ := b.IDProperty()

	if !aid.Equal(aid) {
		t.Error("property should equal itself")
	}
	if aid.Equal(bid) {
		t.Error("id properties of different models should differ")
	}
	if aid.Equal(Int) || Int.Equal(aid) {
		t.Error("id property should not equal plain int")
	}
	if a.Equal(b) {
		t.Error("distinct models should differ")
	}
	if aid.String() != "A.Id" {
		t.Errorf("String = %q, want %q", aid.String(), "A.Id")
	}
}

func TestRecordModel(t *testing.T) {
	def, err := Parse([]byte(`
model: Publication
properties:
  - { name: Id, type: int, id: true }
  - { name: Name, type: string }
  - { name: Active, type: bool }
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	m, err := def.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	rec := m.New()
	if !m.IsValid(rec) {
		t.Fatal("empty record should be valid")
	}

	id, _ := m.IDProperty()
	if err := id.Set(rec, 7); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got := rec.(Record)["Id"]; got != int64(7) {
		t.Errorf("stored Id = %#v, want int64(7)", got)
	}

	if m.IsValid(Record{"Unknown": 1}) {
		t.Error("record with undeclared key should be invalid")
	}
	if m.IsValid(Record{"Name": 5}) {
		t.Error("record with mistyped value should be invalid")
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{
			name: "valid",
			yaml: `
model: Issue
properties:
  - { name: Number, type: int, id: true }
`,
		},
		{
			name: "missing model name",
			yaml: `
properties:
  - { name: Id, type: int, id: true }
`,
			wantErr: true,
		},
		{
			name: "unknown type",
			yaml: `
model: Issue
properties:
  - { name: Id, type: int, id: true }
  - { name: When, type: timestamp }
`,
			wantErr: true,
		},
		{
			name: "no id",
			yaml: `
model: Issue
properties:
  - { name: Title, type: string }
`,
			wantErr: true,
		},
		{
			name: "two ids",
			yaml: `
model: Issue
properties:
  - { name: Id, type: int, id: true }
  - { name: Code, type: string, id: true }
`,
			wantErr: true,
		},
		{
			name: "duplicate property",
			yaml: `
model: Issue
properties:
  - { name: Id, type: int, id: true }
  - { name: Id, type: string }
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	files := []struct{ path, content string }{
		{filepath.Join(dir, "issue.yaml"), "model: Issue\nproperties:\n  - { name: Id, type: int, id: true }\n"},
		{filepath.Join(sub, "section.yml"), "model: Section\nproperties:\n  - { name: Id, type: int, id: true }\n"},
		{filepath.Join(dir, "README.md"), "not a model"},
	}
	for _, f := range files {
		if err := os.WriteFile(f.path, []byte(f.content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	defs, err := ParseDir(dir)
	if err != nil {
		t.Fatalf("ParseDir failed: %v", err)
	}
	if len(defs) != 2 {
		t.Errorf("got %d definitions, want 2", len(defs))
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		typ     Type
		in      any
		want    any
		wantErr bool
	}{
		{Int, float64(42), int64(42), false},
		{Int, float64(4.5), nil, true},
		{Int, int32(3), int64(3), false},
		{Decimal, 3, float64(3), false},
		{Bool, int64(1), true, false},
		{String, []byte("abc"), "abc", false},
		{String, 1, nil, true},
	}

	for _, tt := range tests {
		got, err := Coerce(tt.typ, tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Coerce(%s, %#v) error = %v, wantErr %v", tt.typ, tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Coerce(%s, %#v) = %#v, want %#v", tt.typ, tt.in, got, tt.want)
		}
	}
}

func TestNewService(t *testing.T) {
	m, _ := NewStructModel("Article", (*article)(nil))
	id, _ := m.IDProperty()

	if _, err := NewService("Articles",
		Call{Name: "All", Output: ListOf(m)},
		Mandatory("ByID", m, Input{Name: "id", Type: id}),
	); err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	bad := []struct {
		name  string
		calls []Call
	}{
		{"duplicate call", []Call{Mandatory("All", ListOf(m)), Mandatory("All", ListOf(m))}},
		{"missing output", []Call{{Name: "All"}}},
		{"mandatory out of range", []Call{{Name: "All", Output: m, MandatoryCount: 1}}},
		{"duplicate input", []Call{Mandatory("X", Bool, Input{"a", Int}, Input{"a", Int})}},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewService("S", tt.calls...); err == nil {
				t.Error("expected error")
			}
		})
	}
}
