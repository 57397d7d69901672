package querybuilder

// Condition renders one predicate of a WHERE clause. Multiple conditions are
// joined with AND.
type Condition func(w *sqlWriter)

func Eq(column string, value any) Condition {
	return func(w *sqlWriter) {
		w.raw(column, " = ")
		w.bind(value)
	}
}

func Gte(column string, value any) Condition {
	return func(w *sqlWriter) {
		w.raw(column, " >= ")
		w.bind(value)
	}
}

func In(column string, values []any) Condition {
	return func(w *sqlWriter) {
		if len(values) == 0 {
			w.raw("1=0")
			return
		}
		w.raw(column, " IN (")
		for i, v := range values {
			if i > 0 {
				w.raw(", ")
			}
			w.bind(v)
		}
		w.raw(")")
	}
}

func IsTrue(column string) Condition {
	return func(w *sqlWriter) {
		w.raw(column, " IS TRUE")
	}
}

// Expr is a raw predicate using '?' placeholders.
func Expr(text string, args ...any) Condition {
	return func(w *sqlWriter) {
		w.expr(text, args)
	}
}
