package versioning

import (
	"fmt"
	"strings"
)

// Clause is one column/value pair of an assignment or predicate.
type Clause struct {
	Column string
	Value  any
}

// ConditionalUpdate assembles a single UPDATE with positional arguments.
// Correctness of the demote depends only on which clauses are present,
// so the builder exposes nothing beyond adding them.
type ConditionalUpdate struct {
	table string
	set   []Clause
	where []Clause
}

// NewConditionalUpdate starts a statement against the given table.
func NewConditionalUpdate(table string) *ConditionalUpdate {
	return &ConditionalUpdate{table: table}
}

// Set adds a column assignment.
func (c *ConditionalUpdate) Set(column string, value any) *ConditionalUpdate {
	c.set = append(c.set, Clause{Column: column, Value: value})
	return c
}

// Where adds an equality predicate. Predicates are ANDed in the order
// they were added.
func (c *ConditionalUpdate) Where(column string, value any) *ConditionalUpdate {
	c.where = append(c.where, Clause{Column: column, Value: value})
	return c
}

// HasPredicate reports whether a predicate on the given column was added.
func (c *ConditionalUpdate) HasPredicate(column string) bool {
	for _, w := range c.where {
		if w.Column == column {
			return true
		}
	}
	return false
}

// Table returns the target table.
func (c *ConditionalUpdate) Table() string {
	return c.table
}

// Assignments returns the SET clauses in order.
func (c *ConditionalUpdate) Assignments() []Clause {
	return c.set
}

// Predicates returns the WHERE clauses in order.
func (c *ConditionalUpdate) Predicates() []Clause {
	return c.where
}

// Build renders the SQL text and its argument list.
func (c *ConditionalUpdate) Build() (string, []any) {
	var sb strings.Builder
	args := make([]any, 0, len(c.set)+len(c.where))

	sb.WriteString("UPDATE ")
	sb.WriteString(c.table)
	sb.WriteString(" SET ")
	for i, s := range c.set {
		if i > 0 {
			sb.WriteString(", ")
		}
		args = append(args, s.Value)
		fmt.Fprintf(&sb, "%s = $%d", s.Column, len(args))
	}
	for i, w := range c.where {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		args = append(args, w.Value)
		fmt.Fprintf(&sb, "%s = $%d", w.Column, len(args))
	}

	return sb.String(), args
}
