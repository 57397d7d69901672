package querybuilder

import (
	"fmt"
	"strings"
)

type UpdateBuilder struct {
	table string
	sets  []func(w *sqlWriter)
	where []Condition
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, func(w *sqlWriter) {
		w.raw(column, " = ")
		w.bind(value)
	})
	return b
}

// SetExpr assigns a raw expression using '?' placeholders.
func (b *UpdateBuilder) SetExpr(column, expr string, args ...any) *UpdateBuilder {
	b.sets = append(b.sets, func(w *sqlWriter) {
		w.raw(column, " = ")
		w.expr(expr, args)
	})
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("update table is required")
	}
	if len(b.sets) == 0 {
		return "", nil, fmt.Errorf("update sets are required")
	}

	w := &sqlWriter{}
	w.raw("UPDATE ", b.table, " SET ")
	for i, set := range b.sets {
		if i > 0 {
			w.raw(", ")
		}
		set(w)
	}
	w.where(b.where)
	return w.result()
}
