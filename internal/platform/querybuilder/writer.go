package querybuilder

import (
	"strconv"
	"strings"
)

// sqlWriter accumulates SQL text and numbered postgres arguments.
type sqlWriter struct {
	buf  strings.Builder
	args []any
}

func (w *sqlWriter) raw(parts ...string) {
	for _, part := range parts {
		w.buf.WriteString(part)
	}
}

func (w *sqlWriter) bind(value any) {
	w.args = append(w.args, value)
	w.buf.WriteString("$")
	w.buf.WriteString(strconv.Itoa(len(w.args)))
}

// expr writes an expression where every '?' is replaced by the next bound arg.
// Extra '?' characters with no arg left are written as is.
func (w *sqlWriter) expr(text string, exprArgs []any) {
	next := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '?' && next < len(exprArgs) {
			w.bind(exprArgs[next])
			next++
			continue
		}
		w.buf.WriteByte(text[i])
	}
}

func (w *sqlWriter) where(conditions []Condition) {
	if len(conditions) == 0 {
		return
	}
	w.raw(" WHERE ")
	for i, c := range conditions {
		if i > 0 {
			w.raw(" AND ")
		}
		c(w)
	}
}

func (w *sqlWriter) list(keyword string, parts []string) {
	if len(parts) == 0 {
		return
	}
	w.raw(" ", keyword, " ", strings.Join(parts, ", "))
}

func (w *sqlWriter) result() (string, []any, error) {
	return w.buf.String(), w.args, nil
}
