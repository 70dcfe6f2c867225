// Package storage persists model instances. Tables are derived from model
// definitions: one column per property, the id property as primary key.
// Any model works, struct backed or record backed, since values are read and
// written through the model's properties.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/artpar/resttree/core/convention"
	"github.com/artpar/resttree/core/schema"
)

// Store provides generic CRUD operations for any model.
type Store interface {
	// CreateTable creates the table of a model and registers the model.
	CreateTable(ctx context.Context, model *schema.Model) error

	// Insert stores a new instance and returns its id. An empty id is
	// generated by the store.
	Insert(ctx context.Context, model *schema.Model, obj any) (any, error)

	// Get returns the instance with the given id or schema.ErrNotFound.
	Get(ctx context.Context, model *schema.Model, id any) (any, error)

	// List returns instances in id order.
	List(ctx context.Context, model *schema.Model, opts ListOptions) ([]any, error)

	// Update replaces the instance carrying obj's id. It reports whether a
	// row was changed.
	Update(ctx context.Context, model *schema.Model, obj any) (bool, error)

	// Delete removes an instance. It reports whether a row was removed.
	Delete(ctx context.Context, model *schema.Model, id any) (bool, error)

	// Close closes the storage connection.
	Close() error
}

// ListOptions configures list queries.
type ListOptions struct {
	// Limit is the maximum number of records to return.
	Limit int

	// Offset is the number of records to skip.
	Offset int

	// Filters are property-value pairs that must all match.
	Filters map[string]any

	// OrderDesc sorts by id in descending order.
	OrderDesc bool
}

// DefaultLimit bounds a list without an explicit limit.
const DefaultLimit = 100

// TableName returns the table of a model.
func TableName(model *schema.Model) string {
	return convention.Table(model.Name())
}

// BuildCreateTableSQL generates CREATE TABLE SQL for a model.
func BuildCreateTableSQL(model *schema.Model) string {
	var columns []string
	for _, p := range model.Properties() {
		columns = append(columns, buildColumnDef(p))
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		quote(TableName(model)),
		strings.Join(columns, ",\n  "),
	)
}

func buildColumnDef(p *schema.Property) string {
	parts := []string{quote(p.Name()), columnType(p.Kind())}
	if p.IsID() {
		parts = append(parts, "PRIMARY KEY")
	}
	return strings.Join(parts, " ")
}

func columnType(k schema.Kind) string {
	switch k {
	case schema.KindInt, schema.KindBool:
		return "INTEGER"
	case schema.KindDecimal:
		return "REAL"
	default:
		return "TEXT"
	}
}

// quote quotes an identifier.
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
