// internal/repository/postgres/query.go
package postgres

import (
	"fmt"
	"strings"
)

// conditions collects AND-ed WHERE clauses with positional arguments.
type conditions struct {
	clauses []string
	args    []any
}

// add appends clause, whose single %d is replaced by the next placeholder index.
func (c *conditions) add(clause string, arg any) {
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, fmt.Sprintf(clause, len(c.args)))
}

// fixed appends a clause that takes no argument.
func (c *conditions) fixed(clause string) {
	c.clauses = append(c.clauses, clause)
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// page returns the LIMIT/OFFSET suffix and the full argument list for it.
func (c *conditions) page(limit, offset int) (string, []any) {
	n := len(c.args)
	args := append(append([]any{}, c.args...), limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2), args
}
