/*
Package pgsink inserts raw event records into a Postgres table, used to
check the connection to the hosted events database.
*/
package pgsink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const (
	// DefaultTable receives records when the request names no table.
	DefaultTable = "smartlead_events_raw"

	driverName   = "pgx"
	maxOpenConns = 4
	connLifetime = 5 * time.Minute
)

// ErrNotConfigured is returned when no database URL is set.
var ErrNotConfigured = errors.New("postgres event sink is not configured")

// Sink writes records to Postgres.
type Sink struct {
	db *sql.DB
}

// Open returns a sink for the database at dsn. No connection is made until
// the first insert.
func Open(dsn string) (*Sink, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, ErrNotConfigured
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "problem opening postgres connection pool")
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetConnMaxLifetime(connLifetime)

	return New(db), nil
}

// New wraps an open database handle.
func New(db *sql.DB) *Sink { return &Sink{db: db} }

func (s *Sink) Close() error { return errors.WithStack(s.db.Close()) }

// Insert writes one record into table and returns the inserted rows as
// column to value maps.
func (s *Sink) Insert(ctx context.Context, table string, record map[string]interface{}) ([]map[string]interface{}, error) {
	query, args, err := BuildInsert(table, record)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	grip.Info(message.Fields{
		"message":  "inserted event record",
		"table":    table,
		"columns":  len(record),
		"returned": len(out),
	})

	return out, nil
}

// BuildInsert renders the insert statement for the record. Columns are
// sorted so the statement is stable, and maps and slices are sent as JSON.
func BuildInsert(table string, record map[string]interface{}) (string, []interface{}, error) {
	ident, err := tableIdentifier(table)
	if err != nil {
		return "", nil, err
	}

	if len(record) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING *", ident.Sanitize()), nil, nil
	}

	columns := make([]string, 0, len(record))
	for col := range record {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for idx, col := range columns {
		quoted[idx] = pgx.Identifier{col}.Sanitize()
		placeholders[idx] = fmt.Sprintf("$%d", idx+1)
		args[idx], err = columnValue(record[col])
		if err != nil {
			return "", nil, errors.Wrapf(err, "problem encoding column '%s'", col)
		}
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		ident.Sanitize(), strings.Join(quoted, ", "), strings.Join(placeholders, ", ")), args, nil
}

// tableIdentifier accepts "table" or "schema.table".
func tableIdentifier(table string) (pgx.Identifier, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return nil, errors.New("table name is required")
	}
	parts := strings.Split(table, ".")
	if len(parts) > 2 {
		return nil, errors.Errorf("table name '%s' is not valid", table)
	}
	for _, p := range parts {
		if p == "" {
			return nil, errors.Errorf("table name '%s' is not valid", table)
		}
	}
	return pgx.Identifier(parts), nil
}

func columnValue(v interface{}) (interface{}, error) {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	default:
		return v, nil
	}
}

func scanRows(rows *sql.Rows) ([]map[string]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []map[string]interface{}{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for idx := range values {
			ptrs[idx] = &values[idx]
		}
		if err = rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for idx, col := range columns {
			if b, ok := values[idx].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[idx]
			}
		}
		out = append(out, row)
	}

	return out, rows.Err()
}
