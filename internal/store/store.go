package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"pricing-portal/internal/models"
	"pricing-portal/internal/util"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// pageSize is the record store's per-call row cap; full-table reads paginate
// past it and concatenate until a short page comes back.
const pageSize = 1000

type Store struct {
	db            *sqlx.DB
	retryAttempts int
	retryBase     time.Duration
}

// NewStore creates a new database store
func NewStore(databaseURL string, retryAttempts int, retryBase time.Duration) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, retryAttempts: retryAttempts, retryBase: retryBase}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// ListOptions controls ordering of a full-table read.
type ListOptions struct {
	OrderBy   string
	Ascending bool
}

// ListRows reads an entire inventory table, page by page, with each page
// retried on transient failure. Rows come back as generic maps with driver
// bytes normalized (jsonb decoded, numerics parsed) so they serialize
// straight to JSON.
func (s *Store) ListRows(ctx context.Context, table string, opts ListOptions) ([]map[string]any, error) {
	spec, ok := models.TableFor(table)
	if !ok {
		return nil, fmt.Errorf("unknown table: %s", table)
	}

	orderBy := spec.OrderBy
	if opts.OrderBy != "" && safeIdentifier(opts.OrderBy) {
		orderBy = opts.OrderBy
	}
	direction := "ASC"
	if !opts.Ascending && opts.OrderBy != "" {
		direction = "DESC"
	}

	start := time.Now()
	defer func() {
		util.StoreReadLatency.WithLabelValues(table).Observe(time.Since(start).Seconds())
	}()

	var rows []map[string]any
	for page := 0; ; page++ {
		query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s %s LIMIT %d OFFSET %d",
			spec.Name, orderBy, direction, pageSize, page*pageSize)

		var batch []map[string]any
		err := util.Retry(ctx, s.retryAttempts, s.retryBase, func(ctx context.Context) error {
			var err error
			batch, err = s.selectPage(ctx, query)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read %s page %d: %w", table, page, err)
		}

		rows = append(rows, batch...)
		if len(batch) < pageSize {
			break
		}
	}

	return rows, nil
}

func (s *Store) selectPage(ctx context.Context, query string) ([]map[string]any, error) {
	dbRows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer dbRows.Close()

	var page []map[string]any
	for dbRows.Next() {
		row := map[string]any{}
		if err := dbRows.MapScan(row); err != nil {
			return nil, err
		}
		normalizeRow(row)
		page = append(page, row)
	}

	return page, dbRows.Err()
}

// InsertRow inserts a generic record into an inventory table and returns the
// new row id.
func (s *Store) InsertRow(ctx context.Context, table string, fields map[string]any) (string, error) {
	if !models.IsKnownTable(table) {
		return "", fmt.Errorf("unknown table: %s", table)
	}

	columns, values := splitFields(fields)
	if len(columns) == 0 {
		return "", fmt.Errorf("no fields to insert into %s", table)
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	var id string
	if err := s.db.GetContext(ctx, &id, query, values...); err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return id, nil
}

// UpdateRow updates the given fields of one record.
func (s *Store) UpdateRow(ctx context.Context, table, id string, fields map[string]any) error {
	if !models.IsKnownTable(table) {
		return fmt.Errorf("unknown table: %s", table)
	}

	columns, values := splitFields(fields)
	if len(columns) == 0 {
		return fmt.Errorf("no fields to update in %s", table)
	}

	assignments := make([]string, len(columns))
	for i, col := range columns {
		assignments[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	values = append(values, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d",
		table, strings.Join(assignments, ", "), len(values))

	result, err := s.db.ExecContext(ctx, query, values...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("record %s in %s: %w", id, table, ErrNotFound)
	}
	return nil
}

// DeleteRow deletes one record from an inventory table.
func (s *Store) DeleteRow(ctx context.Context, table, id string) error {
	if !models.IsKnownTable(table) {
		return fmt.Errorf("unknown table: %s", table)
	}

	_, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	return err
}

// splitFields orders map fields deterministically and marshals nested
// structures to jsonb-compatible values, rejecting unsafe column names.
func splitFields(fields map[string]any) ([]string, []any) {
	columns := make([]string, 0, len(fields))
	for col := range fields {
		if safeIdentifier(col) {
			columns = append(columns, col)
		}
	}
	sort.Strings(columns)

	values := make([]any, len(columns))
	for i, col := range columns {
		switch v := fields[col].(type) {
		case []any, map[string]any:
			encoded, _ := json.Marshal(v)
			values[i] = string(encoded)
		default:
			values[i] = v
		}
	}
	return columns, values
}

func safeIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}

// normalizeRow rewrites driver byte slices into JSON-friendly values: jsonb
// columns decode to maps/arrays, numeric columns parse to float64, and
// anything else becomes a string.
func normalizeRow(row map[string]any) {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = normalizeBytes(b)
		}
	}
}

func normalizeBytes(b []byte) any {
	if len(b) > 0 && (b[0] == '{' || b[0] == '[') {
		var decoded any
		if err := json.Unmarshal(b, &decoded); err == nil {
			return decoded
		}
	}
	s := string(b)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
