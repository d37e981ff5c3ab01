// Package dataset provides read access to the relational database the user
// converses with: schema extraction for the prompt and query execution for
// the answer round-trip.
package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB wraps one queryable dataset.
type DB struct {
	db     *sql.DB
	driver string
	name   string
}

// Open connects to a dataset. SQLite DSNs are file paths; postgres DSNs are
// standard connection strings.
func Open(ctx context.Context, name, driver, dsn string) (*DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("dataset DSN is required")
	}

	var db *sql.DB
	var err error
	switch driver {
	case DriverSQLite:
		conn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", dsn)
		db, err = sql.Open("sqlite", conn)
	case DriverPostgres:
		db, err = sql.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("unsupported dataset driver: %s", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s dataset: %w", driver, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s dataset: %w", driver, err)
	}

	return &DB{db: db, driver: driver, name: name}, nil
}

// Name returns the registry handle of this dataset.
func (d *DB) Name() string { return d.name }

// Driver returns the backing driver name.
func (d *DB) Driver() string { return d.driver }

// Close releases the connection pool.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Schema returns the dataset structure as CREATE TABLE text suitable for
// embedding in the task prompt.
func (d *DB) Schema(ctx context.Context) (string, error) {
	switch d.driver {
	case DriverSQLite:
		return d.sqliteSchema(ctx)
	case DriverPostgres:
		return d.postgresSchema(ctx)
	}
	return "", fmt.Errorf("unsupported dataset driver: %s", d.driver)
}

func (d *DB) sqliteSchema(ctx context.Context) (string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT sql FROM sqlite_master WHERE type = 'table' AND sql IS NOT NULL`)
	if err != nil {
		return "", fmt.Errorf("read sqlite schema: %w", err)
	}
	defer rows.Close()

	var stmts []string
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return "", fmt.Errorf("scan sqlite schema row: %w", err)
		}
		stmts = append(stmts, stmt)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate sqlite schema: %w", err)
	}
	return strings.Join(stmts, "\n"), nil
}

func (d *DB) postgresSchema(ctx context.Context) (string, error) {
	rows, err := d.db.QueryContext(ctx, `
SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = 'public'
ORDER BY table_name, ordinal_position`)
	if err != nil {
		return "", fmt.Errorf("read postgres schema: %w", err)
	}
	defer rows.Close()

	type column struct{ name, typ string }
	tables := make(map[string][]column)
	var order []string
	for rows.Next() {
		var table, name, typ string
		if err := rows.Scan(&table, &name, &typ); err != nil {
			return "", fmt.Errorf("scan postgres schema row: %w", err)
		}
		if _, ok := tables[table]; !ok {
			order = append(order, table)
		}
		tables[table] = append(tables[table], column{name: name, typ: typ})
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate postgres schema: %w", err)
	}

	var builder strings.Builder
	for i, table := range order {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString("CREATE TABLE ")
		builder.WriteString(table)
		builder.WriteString(" (\n")
		for j, col := range tables[table] {
			builder.WriteString("  ")
			builder.WriteString(col.name)
			builder.WriteString(" ")
			builder.WriteString(col.typ)
			if j < len(tables[table])-1 {
				builder.WriteString(",")
			}
			builder.WriteString("\n")
		}
		builder.WriteString(");")
	}
	return builder.String(), nil
}

// Result holds the rows of an executed fetch query, formatted as text.
type Result struct {
	Columns []string
	Rows    [][]string
}

// Lines renders each row as a parenthesized tuple, one per line, matching
// what the model is prompted to expect as query output.
func (r *Result) Lines() string {
	lines := make([]string, len(r.Rows))
	for i, row := range r.Rows {
		lines[i] = "(" + strings.Join(row, ", ") + ")"
	}
	return strings.Join(lines, "\n")
}

// Query executes a statement against the dataset. Statements that fetch
// (select/with/pragma/explain/show) return rows; everything else is executed
// for its side effect and returns an empty result.
func (d *DB) Query(ctx context.Context, query string) (*Result, error) {
	if !isFetch(query) {
		if _, err := d.db.ExecContext(ctx, query); err != nil {
			return nil, fmt.Errorf("execute statement: %w", err)
		}
		return &Result{}, nil
	}

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read result columns: %w", err)
	}

	result := &Result{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}
	return result, nil
}

// ExecScript runs a multi-statement SQL script, used to seed datasets.
func (d *DB) ExecScript(ctx context.Context, script string) error {
	for _, stmt := range splitStatements(script) {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute script statement: %w", err)
		}
	}
	return nil
}

var fetchVerbs = []string{"select", "with", "pragma", "explain", "show", "values"}

func isFetch(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, verb := range fetchVerbs {
		if strings.HasPrefix(q, verb) {
			return true
		}
	}
	return false
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// splitStatements breaks a script on semicolons, honoring single- and
// double-quoted literals so seed data can contain them.
func splitStatements(script string) []string {
	var stmts []string
	var current strings.Builder
	var quote rune

	for _, r := range script {
		switch {
		case quote != 0:
			current.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
			current.WriteRune(r)
		case r == ';':
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				stmts = append(stmts, stmt)
			}
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		stmts = append(stmts, stmt)
	}
	return stmts
}
