package entity

import (
	"context"
	"sort"
)

// Finder is a not-yet-executed query for entities of one type. Builder methods return
// a modified copy, so a finder handed to a hook can be extended without affecting the
// caller's instance.
type Finder struct {
	store      *Store
	typ        string
	conditions []Condition
	with       []string
	orderBy    string
	limit      int
}

// Type returns the entity type the finder loads
func (f *Finder) Type() string {
	return f.typ
}

// Where restricts field to the given set of values
func (f *Finder) Where(field string, values ...interface{}) *Finder {
	c := f.clone()
	c.conditions = append(c.conditions, Condition{Field: field, Values: append([]interface{}(nil), values...)})
	return c
}

// With requests relations to be eager-loaded together with the results
func (f *Finder) With(relations ...string) *Finder {
	c := f.clone()
	for _, r := range relations {
		if !c.has(r) {
			c.with = append(c.with, r)
		}
	}
	return c
}

// Order sets the ORDER BY clause
func (f *Finder) Order(clause string) *Finder {
	c := f.clone()
	c.orderBy = clause
	return c
}

// Limit caps the number of results; zero means unlimited
func (f *Finder) Limit(n int) *Finder {
	c := f.clone()
	c.limit = n
	return c
}

// Relations returns the eager-load directives in the order they were added
func (f *Finder) Relations() []string {
	return append([]string(nil), f.with...)
}

// Query returns the backend query the finder will execute
func (f *Finder) Query() (Query, error) {
	t, err := f.store.schema.Lookup(f.typ)
	if err != nil {
		return Query{}, err
	}
	return Query{
		Type:       f.typ,
		Table:      t.Table,
		Conditions: append([]Condition(nil), f.conditions...),
		OrderBy:    f.orderBy,
		Limit:      f.limit,
	}, nil
}

// Fetch executes the finder, adds results to g and eager-loads requested relations.
// A condition with an empty value set matches nothing and skips the query entirely.
func (f *Finder) Fetch(ctx context.Context, g *Graph) (*Collection, error) {
	q, err := f.Query()
	if err != nil {
		return nil, err
	}

	results := NewCollection()
	for _, c := range q.Conditions {
		if len(c.Values) == 0 {
			return results, nil
		}
	}

	rows, err := f.store.selectRows(ctx, q)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		e, err := f.store.schema.New(f.typ, row)
		if err != nil {
			return nil, err
		}
		e = g.Add(e)
		results.Set(e.Identity(), e)
	}

	if err := f.store.EagerLoad(ctx, g, results, f.with); err != nil {
		return nil, err
	}

	return results, nil
}

func (f *Finder) has(relation string) bool {
	for _, r := range f.with {
		if r == relation {
			return true
		}
	}
	return false
}

func (f *Finder) clone() *Finder {
	c := *f
	c.conditions = append([]Condition(nil), f.conditions...)
	c.with = append([]string(nil), f.with...)
	return &c
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
