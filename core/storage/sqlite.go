package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/artpar/resttree/core/schema"
)

// SQLiteStore implements Store with SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex

	// tables of registered models
	tables map[*schema.Model]string
}

// NewSQLiteStore opens a SQLite database. ":memory:" gives a private
// in-memory database on a single connection.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	if path == ":memory:" {
		dsn = path
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	return NewSQLiteStoreFromDB(db), nil
}

// NewSQLiteStoreFromDB creates a SQLite storage from an existing connection.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{
		db:     db,
		tables: make(map[*schema.Model]string),
	}
}

// CreateTable creates the table of a model.
func (s *SQLiteStore) CreateTable(ctx context.Context, model *schema.Model) error {
	if _, ok := model.IDProperty(); !ok {
		return fmt.Errorf("model %s has no id property", model.Name())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, BuildCreateTableSQL(model)); err != nil {
		return fmt.Errorf("create table %s: %w", TableName(model), err)
	}
	s.tables[model] = TableName(model)
	return nil
}

func (s *SQLiteStore) table(model *schema.Model) (string, *schema.Property, error) {
	s.mu.RLock()
	table, ok := s.tables[model]
	s.mu.RUnlock()

	if !ok {
		return "", nil, fmt.Errorf("model %q not registered", model.Name())
	}
	id, _ := model.IDProperty()
	return table, id, nil
}

// Insert stores obj. An int id that is zero or unset is assigned by SQLite;
// an empty string id gets a UUID. The id is written back into obj.
func (s *SQLiteStore) Insert(ctx context.Context, model *schema.Model, obj any) (any, error) {
	table, idProp, err := s.table(model)
	if err != nil {
		return nil, err
	}

	id, err := idProp.Get(obj)
	if err != nil {
		return nil, err
	}
	if id, err = schema.Coerce(idProp.Primitive(), id); err != nil {
		return nil, err
	}
	generated := isZero(id)
	if generated && idProp.Kind() == schema.KindString {
		id = uuid.New().String()
		if err := idProp.Set(obj, id); err != nil {
			return nil, err
		}
		generated = false
	}

	var columns, placeholders []string
	var values []any
	for _, p := range model.Properties() {
		if p.IsID() && generated {
			continue
		}
		v, err := p.Get(obj)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		columns = append(columns, quote(p.Name()))
		placeholders = append(placeholders, "?")
		values = append(values, toDB(v))
	}

	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(table), strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	if len(columns) == 0 {
		insertSQL = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", quote(table))
	}

	result, err := s.db.ExecContext(ctx, insertSQL, values...)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", model.Name(), err)
	}

	if generated {
		rowID, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("insert %s: %w", model.Name(), err)
		}
		if err := idProp.Set(obj, rowID); err != nil {
			return nil, err
		}
		id = rowID
	}
	return schema.Coerce(idProp.Primitive(), id)
}

// Get returns the instance with the given id.
func (s *SQLiteStore) Get(ctx context.Context, model *schema.Model, id any) (any, error) {
	table, idProp, err := s.table(model)
	if err != nil {
		return nil, err
	}

	props := model.Properties()
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		columnList(props), quote(table), quote(idProp.Name()))

	row := s.db.QueryRowContext(ctx, query, toDB(id))
	obj, err := scanInstance(row, model, props)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %v: %w", model.Name(), id, schema.ErrNotFound)
	}
	return obj, err
}

// List retrieves instances in id order.
func (s *SQLiteStore) List(ctx context.Context, model *schema.Model, opts ListOptions) ([]any, error) {
	table, idProp, err := s.table(model)
	if err != nil {
		return nil, err
	}

	props := model.Properties()
	query := fmt.Sprintf("SELECT %s FROM %s", columnList(props), quote(table))

	var args []any
	if len(opts.Filters) > 0 {
		var conditions []string
		// Iterate properties, not the map, for a stable statement.
		for _, p := range props {
			v, ok := opts.Filters[p.Name()]
			if !ok {
				continue
			}
			conditions = append(conditions, quote(p.Name())+" = ?")
			args = append(args, toDB(v))
		}
		if len(conditions) != len(opts.Filters) {
			return nil, fmt.Errorf("list %s: unknown filter property", model.Name())
		}
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	order := "ASC"
	if opts.OrderDesc {
		order = "DESC"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	query += fmt.Sprintf(" ORDER BY %s %s LIMIT %d OFFSET %d", quote(idProp.Name()), order, limit, max(opts.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", model.Name(), err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		obj, err := scanInstance(rows, model, props)
		if err != nil {
			return nil, err
		}
		results = append(results, obj)
	}
	return results, rows.Err()
}

// Update replaces every column of the row with obj's id.
func (s *SQLiteStore) Update(ctx context.Context, model *schema.Model, obj any) (bool, error) {
	table, idProp, err := s.table(model)
	if err != nil {
		return false, err
	}

	var sets []string
	var values []any
	for _, p := range model.Properties() {
		if p.IsID() {
			continue
		}
		v, err := p.Get(obj)
		if err != nil {
			return false, err
		}
		sets = append(sets, quote(p.Name())+" = ?")
		values = append(values, toDB(v))
	}

	id, err := idProp.Get(obj)
	if err != nil {
		return false, err
	}
	if len(sets) == 0 {
		_, err := s.Get(ctx, model, id)
		switch {
		case errors.Is(err, schema.ErrNotFound):
			return false, nil
		case err != nil:
			return false, err
		}
		return true, nil
	}
	values = append(values, toDB(id))

	updateSQL := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		quote(table), strings.Join(sets, ", "), quote(idProp.Name()))

	result, err := s.db.ExecContext(ctx, updateSQL, values...)
	if err != nil {
		return false, fmt.Errorf("update %s: %w", model.Name(), err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update %s: %w", model.Name(), err)
	}
	return affected > 0, nil
}

// Delete removes a record.
func (s *SQLiteStore) Delete(ctx context.Context, model *schema.Model, id any) (bool, error) {
	table, idProp, err := s.table(model)
	if err != nil {
		return false, err
	}

	deleteSQL := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", quote(table), quote(idProp.Name()))
	result, err := s.db.ExecContext(ctx, deleteSQL, toDB(id))
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", model.Name(), err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", model.Name(), err)
	}
	return affected > 0, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInstance(row scanner, model *schema.Model, props []*schema.Property) (any, error) {
	values := make([]any, len(props))
	dest := make([]any, len(props))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	obj := model.New()
	for i, p := range props {
		if values[i] == nil {
			continue
		}
		v, err := schema.Coerce(p.Primitive(), values[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", p.Name(), err)
		}
		if err := p.Set(obj, v); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func columnList(props []*schema.Property) string {
	cols := make([]string, len(props))
	for i, p := range props {
		cols[i] = quote(p.Name())
	}
	return strings.Join(cols, ", ")
}

// toDB converts a property value to a database value.
func toDB(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return int64(1)
		}
		return int64(0)
	}
	return v
}

func isZero(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case int64:
		return x == 0
	}
	return false
}
