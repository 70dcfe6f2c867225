package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/artpar/resttree/core/registry"
	"github.com/artpar/resttree/core/resource"
	"github.com/artpar/resttree/core/schema"
)

const articleYAML = `
model: Article
properties:
  - name: Id
    type: int
    id: true
  - name: Title
    type: string
  - name: Score
    type: decimal
  - name: Published
    type: bool
`

func articleModel(t *testing.T) *schema.Model {
	t.Helper()
	def, err := schema.Parse([]byte(articleYAML))
	if err != nil {
		t.Fatal(err)
	}
	m, err := def.Build()
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func newStore(t *testing.T, models ...*schema.Model) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	for _, m := range models {
		if err := store.CreateTable(context.Background(), m); err != nil {
			t.Fatalf("CreateTable failed: %v", err)
		}
	}
	return store
}

func TestBuildCreateTableSQL(t *testing.T) {
	got := BuildCreateTableSQL(articleModel(t))
	want := `CREATE TABLE IF NOT EXISTS "articles" (
  "Id" INTEGER PRIMARY KEY,
  "Title" TEXT,
  "Score" REAL,
  "Published" INTEGER
)`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DDL mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteStore(t *testing.T) {
	m := articleModel(t)
	store := newStore(t, m)
	ctx := context.Background()

	rec := schema.Record{"Title": "Hello", "Score": 4.5, "Published": true}
	id, err := store.Insert(ctx, m, rec)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id != int64(1) {
		t.Errorf("id = %v (%T), want int64 1", id, id)
	}
	if rec["Id"] != int64(1) {
		t.Errorf("id not written back: %v", rec)
	}

	got, err := store.Get(ctx, m, int64(1))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	want := schema.Record{"Id": int64(1), "Title": "Hello", "Score": 4.5, "Published": true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}

	ok, err := store.Update(ctx, m, schema.Record{"Id": int64(1), "Title": "Changed"})
	if err != nil || !ok {
		t.Fatalf("Update = %v, %v; want true", ok, err)
	}
	got, _ = store.Get(ctx, m, int64(1))
	if diff := cmp.Diff(schema.Record{"Id": int64(1), "Title": "Changed"}, got); diff != "" {
		t.Errorf("after update (-want +got):\n%s", diff)
	}

	ok, err = store.Update(ctx, m, schema.Record{"Id": int64(9), "Title": "Ghost"})
	if err != nil || ok {
		t.Errorf("Update missing = %v, %v; want false", ok, err)
	}

	ok, err = store.Delete(ctx, m, int64(1))
	if err != nil || !ok {
		t.Fatalf("Delete = %v, %v; want true", ok, err)
	}
	ok, _ = store.Delete(ctx, m, int64(1))
	if ok {
		t.Error("second Delete reported a removal")
	}

	_, err = store.Get(ctx, m, int64(1))
	if !errors.Is(err, schema.ErrNotFound) {
		t.Errorf("Get after delete err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStoreList(t *testing.T) {
	m := articleModel(t)
	store := newStore(t, m)
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c", "b"} {
		if _, err := store.Insert(ctx, m, schema.Record{"Title": title}); err != nil {
			t.Fatal(err)
		}
	}

	titles := func(items []any) []string {
		var out []string
		for _, it := range items {
			out = append(out, it.(schema.Record)["Title"].(string))
		}
		return out
	}

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"all", ListOptions{}, []string{"a", "b", "c", "b"}},
		{"paged", ListOptions{Offset: 1, Limit: 2}, []string{"b", "c"}},
		{"descending", ListOptions{OrderDesc: true, Limit: 1}, []string{"b"}},
		{"filtered", ListOptions{Filters: map[string]any{"Title": "b"}}, []string{"b", "b"}},
		{"no match", ListOptions{Filters: map[string]any{"Title": "z"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := store.List(ctx, m, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, titles(items)); diff != "" {
				t.Errorf("List mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := store.List(ctx, m, ListOptions{Filters: map[string]any{"Color": "red"}}); err == nil {
		t.Error("unknown filter accepted")
	}
}

type tag struct {
	Code  string `rest:"Code,id"`
	Label string `rest:"Label"`
}

func TestSQLiteStoreStructModelWithStringID(t *testing.T) {
	m, err := schema.NewStructModel("Tag", (*tag)(nil))
	if err != nil {
		t.Fatal(err)
	}
	store := newStore(t, m)
	ctx := context.Background()

	generated := &tag{Label: "generated"}
	id, err := store.Insert(ctx, m, generated)
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := id.(string); len(s) != 36 || generated.Code != s {
		t.Errorf("generated id = %v, struct code = %q", id, generated.Code)
	}

	if _, err := store.Insert(ctx, m, &tag{Code: "go", Label: "Go"}); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, m, "go")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&tag{Code: "go", Label: "Go"}, got); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}
}

func TestUnregisteredModel(t *testing.T) {
	store := newStore(t)
	_, err := store.Get(context.Background(), articleModel(t), int64(1))
	if err == nil || !strings.Contains(err.Error(), "not registered") {
		t.Errorf("err = %v, want not registered", err)
	}
}

func TestInvokersAssemble(t *testing.T) {
	m := articleModel(t)
	store := newStore(t, m)

	invokers, err := Invokers(store, m)
	if err != nil {
		t.Fatal(err)
	}

	reg, err := registry.New(registry.Config{Logger: zerolog.Nop()})
	if err != nil {
		t.Fatal(err)
	}
	report, err := reg.RegisterInvokers(ServiceName(m), invokers...)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Unassembled) != 0 {
		t.Fatalf("unassembled: %v", report.Unassembled)
	}

	var got []string
	for _, p := range report.Assembled {
		got = append(got, p.Assembler+" "+p.Invoker.Name())
	}
	want := []string{
		"get-all allArticles",
		"get-by-id getArticle",
		"insert insertArticle",
		"update-whole updateArticle",
		"delete deleteArticle",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("placements mismatch (-want +got):\n%s", diff)
	}

	if svc := report.Assembled[0].Invoker.Service(); svc != ServiceName(m) {
		t.Errorf("placed invoker service = %q, want %q", svc, ServiceName(m))
	}

	ctx := context.Background()
	insert := invokers[2]
	if _, err := insert.Invoke(ctx, schema.Record{"Title": "x", "Published": false}); err != nil {
		t.Fatal(err)
	}
	if _, err := insert.Invoke(ctx, schema.Record{"Title": "y", "Published": true}); err != nil {
		t.Fatal(err)
	}

	all := invokers[0]
	out, err := all.Invoke(ctx, nil, nil, nil, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	items := out.([]any)
	if len(items) != 1 || items[0].(schema.Record)["Title"] != "y" {
		t.Errorf("filtered list = %v", items)
	}

	_, err = invokers[1].Invoke(ctx, int64(99))
	if !errors.Is(err, schema.ErrNotFound) {
		t.Errorf("get missing err = %v, want ErrNotFound", err)
	}

	if n := len(reg.Routes()); n != 6 {
		t.Errorf("routes = %d, want 6 (root index and five calls)", n)
	}
	if reg.Root().Children()[0].Invoker(resource.VerbInsert) == nil {
		t.Error("collection node has no insert")
	}
}

type marker struct {
	Key string `rest:"Key,id"`
}

func TestSQLiteStoreUpdateWithoutColumns(t *testing.T) {
	m, err := schema.NewStructModel("Marker", (*marker)(nil))
	if err != nil {
		t.Fatal(err)
	}
	store := newStore(t, m)
	ctx := context.Background()

	if _, err := store.Insert(ctx, m, &marker{Key: "a"}); err != nil {
		t.Fatal(err)
	}

	ok, err := store.Update(ctx, m, &marker{Key: "a"})
	if err != nil || !ok {
		t.Errorf("Update existing = %v, %v; want true, nil", ok, err)
	}
	ok, err = store.Update(ctx, m, &marker{Key: "missing"})
	if err != nil || ok {
		t.Errorf("Update missing = %v, %v; want false, nil", ok, err)
	}
}

func TestSQLiteStoreWriteErrorsSurface(t *testing.T) {
	marked, err := schema.NewStructModel("Marker", (*marker)(nil))
	if err != nil {
		t.Fatal(err)
	}
	articles := articleModel(t)
	store := newStore(t, marked, articles)
	ctx := context.Background()

	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	if ok, err := store.Update(ctx, marked, &marker{Key: "a"}); err == nil || ok {
		t.Errorf("Update without columns on closed store = %v, %v; want an error", ok, err)
	}
	if ok, err := store.Delete(ctx, articles, int64(1)); err == nil || ok {
		t.Errorf("Delete on closed store = %v, %v; want an error", ok, err)
	}
}
