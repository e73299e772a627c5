// Package memstore provides an in-memory entity backend. It is used by tests and by the
// CLI's fixture mode, and counts executed queries so batching can be asserted.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/conduit-lang/projector/internal/entity"
	"github.com/spf13/cast"
)

// Backend stores rows per table
type Backend struct {
	mu      sync.RWMutex
	tables  map[string][]entity.Row
	queries atomic.Int64
	log     []entity.Query
}

// New creates an empty backend
func New() *Backend {
	return &Backend{tables: make(map[string][]entity.Row)}
}

// Insert appends rows to a table
func (b *Backend) Insert(table string, rows ...entity.Row) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range rows {
		copied := make(entity.Row, len(r))
		for k, v := range r {
			copied[k] = v
		}
		b.tables[table] = append(b.tables[table], copied)
	}
}

// QueryCount returns the number of executed queries
func (b *Backend) QueryCount() int {
	return int(b.queries.Load())
}

// Queries returns the executed queries in order
func (b *Backend) Queries() []entity.Query {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]entity.Query(nil), b.log...)
}

// Reset clears the query counter and log
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queries.Store(0)
	b.log = nil
}

// Select implements entity.Backend
func (b *Backend) Select(ctx context.Context, q entity.Query) ([]entity.Row, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	b.queries.Add(1)

	b.mu.Lock()
	b.log = append(b.log, q)
	rows := b.tables[q.Table]
	b.mu.Unlock()

	var matched []entity.Row
	for _, row := range rows {
		if matches(row, q.Conditions) {
			matched = append(matched, row)
		}
	}

	if q.OrderBy != "" {
		if err := orderRows(matched, q.OrderBy); err != nil {
			return nil, err
		}
	}

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]entity.Row, len(matched))
	for i, r := range matched {
		copied := make(entity.Row, len(r))
		for k, v := range r {
			copied[k] = v
		}
		out[i] = copied
	}
	return out, nil
}

func matches(row entity.Row, conditions []entity.Condition) bool {
	for _, c := range conditions {
		actual := entity.KeyOf(row[c.Field])
		found := false
		for _, v := range c.Values {
			if entity.KeyOf(v) == actual {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// orderRows sorts rows by a clause such as "message_date" or "user_id DESC, name"
func orderRows(rows []entity.Row, clause string) error {
	type term struct {
		field string
		desc  bool
	}

	var terms []term
	for _, part := range strings.Split(clause, ",") {
		tokens := strings.Fields(part)
		if len(tokens) == 0 {
			continue
		}
		t := term{field: tokens[0]}
		if len(tokens) > 1 {
			switch strings.ToUpper(tokens[1]) {
			case "DESC":
				t.desc = true
			case "ASC":
			default:
				return fmt.Errorf("invalid sort direction %q", tokens[1])
			}
		}
		terms = append(terms, t)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, t := range terms {
			c := compare(rows[i][t.field], rows[j][t.field])
			if c == 0 {
				continue
			}
			if t.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return nil
}

func compare(a, b interface{}) int {
	ai, aerr := cast.ToInt64E(a)
	bi, berr := cast.ToInt64E(b)
	if aerr == nil && berr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	return strings.Compare(cast.ToString(a), cast.ToString(b))
}
