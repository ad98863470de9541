package repository

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// predicates accumulates WHERE conditions with their positional arguments.
type predicates struct {
	conds []string
	args  []any
}

// bind appends value to the arguments and returns its placeholder.
func (p *predicates) bind(value any) string {
	p.args = append(p.args, value)
	return fmt.Sprintf("$%d", len(p.args))
}

// add appends a condition. Each %s verb in format receives the placeholder of
// the matching value; use %[1]s to repeat one placeholder.
func (p *predicates) add(format string, values ...any) {
	placeholders := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = p.bind(v)
	}
	p.conds = append(p.conds, fmt.Sprintf(format, placeholders...))
}

// addText adds the condition only for a non-blank value, trimmed.
func (p *predicates) addText(format string, value *string) {
	if v, ok := trimmed(value); ok {
		p.add(format, v)
	}
}

func (p *predicates) where() string {
	if len(p.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(p.conds, " AND ")
}

func trimmed(value *string) (string, bool) {
	if value == nil {
		return "", false
	}
	v := strings.TrimSpace(*value)
	return v, v != ""
}

// collect drains rows with scan, closing them.
func collect[T any](rows pgx.Rows, err error, scan func(pgx.Row) (T, error)) ([]T, error) {
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		return scan(row)
	})
}

func clampLimit(limit, fallback, max int) int {
	switch {
	case limit <= 0:
		return fallback
	case limit > max:
		return max
	default:
		return limit
	}
}
