// Package sqlstore implements the entity backend on top of database/sql for PostgreSQL.
// Key-set finders compile to a single "column = ANY($n)" predicate per condition so a
// whole batch of owners is served by one round trip.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/conduit-lang/projector/internal/entity"
	"github.com/lib/pq"
)

// Querier is an interface for executing SQL queries, allowing for testing and instrumentation
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// Backend executes entity queries against a SQL database
type Backend struct {
	db Querier
}

// New creates a SQL backend
func New(db Querier) *Backend {
	return &Backend{db: db}
}

// Select implements entity.Backend
func (b *Backend) Select(ctx context.Context, q entity.Query) ([]entity.Row, error) {
	query, args, err := Build(q)
	if err != nil {
		return nil, err
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", q.Table, err)
	}
	defer rows.Close()

	results, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s records: %w", q.Table, err)
	}
	return results, nil
}

// Build compiles a query into SQL and its arguments
// Example:
//
//	SELECT * FROM "xf_conversation_message" WHERE "message_id" = ANY($1) ORDER BY "message_date"
func Build(q entity.Query) (string, []interface{}, error) {
	if q.Table == "" {
		return "", nil, fmt.Errorf("no table for entity type %s", q.Type)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT * FROM %s", pq.QuoteIdentifier(q.Table))

	args := make([]interface{}, 0, len(q.Conditions))
	for i, c := range q.Conditions {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		args = append(args, pq.Array(c.Values))
		fmt.Fprintf(&b, "%s = ANY($%d)", pq.QuoteIdentifier(c.Field), len(args))
	}

	if q.OrderBy != "" {
		clause, err := quoteSortClause(q.OrderBy)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(clause)
	}

	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}

	return b.String(), args, nil
}

// quoteSortClause safely quotes column identifiers in an ORDER BY clause
// Handles formats like "message_date DESC" or "name ASC, id DESC"
func quoteSortClause(orderBy string) (string, error) {
	parts := strings.Split(orderBy, ",")
	quoted := make([]string, 0, len(parts))

	for _, part := range parts {
		tokens := strings.Fields(part)
		if len(tokens) == 0 {
			continue
		}

		quotedCol := pq.QuoteIdentifier(tokens[0])
		if len(tokens) == 1 {
			quoted = append(quoted, quotedCol)
			continue
		}

		direction := strings.ToUpper(tokens[1])
		if direction != "ASC" && direction != "DESC" {
			return "", fmt.Errorf("invalid sort direction %q", tokens[1])
		}
		quoted = append(quoted, quotedCol+" "+direction)
	}

	return strings.Join(quoted, ", "), nil
}

// scanRows scans multiple SQL rows into entity rows
func scanRows(rows *sql.Rows) ([]entity.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []entity.Row
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		record := make(entity.Row, len(columns))
		for i, col := range columns {
			// Handle []byte conversion to string for text fields
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
			} else {
				record[col] = values[i]
			}
		}

		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
