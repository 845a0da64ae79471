package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// writer accumulates SQL text and numbered postgres arguments.
type writer struct {
	buf  strings.Builder
	args []any
}

func (w *writer) arg(v any) {
	w.args = append(w.args, v)
	w.buf.WriteString("$" + strconv.Itoa(len(w.args)))
}

// expr writes raw SQL, replacing each ? with the next bound argument.
func (w *writer) expr(sql string, args []any) {
	next := 0
	for i := 0; i < len(sql); i++ {
		if sql[i] == '?' && next < len(args) {
			w.arg(args[next])
			next++
			continue
		}
		w.buf.WriteByte(sql[i])
	}
}

func (w *writer) where(conditions []Condition) {
	for i, c := range conditions {
		if i == 0 {
			w.buf.WriteString(" WHERE ")
		} else {
			w.buf.WriteString(" AND ")
		}
		c.write(w)
	}
}

func (w *writer) list(keyword string, parts []string) {
	if len(parts) == 0 {
		return
	}
	w.buf.WriteString(keyword)
	w.buf.WriteString(strings.Join(parts, ", "))
}

type Condition interface {
	write(w *writer)
}

type condFunc func(w *writer)

func (f condFunc) write(w *writer) { f(w) }

func Eq(column string, value any) Condition {
	return condFunc(func(w *writer) {
		w.buf.WriteString(column + " = ")
		w.arg(value)
	})
}

// In renders an IN list; an empty list matches nothing.
func In[T any](column string, values []T) Condition {
	return condFunc(func(w *writer) {
		if len(values) == 0 {
			w.buf.WriteString("1=0")
			return
		}
		w.buf.WriteString(column + " IN (")
		for i, v := range values {
			if i > 0 {
				w.buf.WriteString(", ")
			}
			w.arg(v)
		}
		w.buf.WriteString(")")
	})
}

func IsNull(column string) Condition {
	return condFunc(func(w *writer) { w.buf.WriteString(column + " IS NULL") })
}

func IsNotNull(column string) Condition {
	return condFunc(func(w *writer) { w.buf.WriteString(column + " IS NOT NULL") })
}

// Expr binds args to the ? markers of a raw SQL fragment.
func Expr(sql string, args ...any) Condition {
	return condFunc(func(w *writer) { w.expr(sql, args) })
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	groupBy []string
	orderBy []string
	limit   int
	offset  int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) GroupBy(parts ...string) *SelectBuilder {
	b.groupBy = append(b.groupBy, parts...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) Offset(offset int) *SelectBuilder {
	b.offset = offset
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	var w writer
	w.buf.WriteString("SELECT " + strings.Join(b.columns, ", ") + " FROM " + b.table)
	w.where(b.where)
	w.list(" GROUP BY ", b.groupBy)
	w.list(" ORDER BY ", b.orderBy)
	if b.limit > 0 {
		w.buf.WriteString(" LIMIT " + strconv.Itoa(b.limit))
	}
	if b.offset > 0 {
		w.buf.WriteString(" OFFSET " + strconv.Itoa(b.offset))
	}

	return w.buf.String(), w.args, nil
}

type InsertBuilder struct {
	table    string
	columns  []string
	rows     [][]any
	conflict []string
	update   []string
	nothing  bool
	suffix   string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

// OnConflictUpdate turns the insert into an upsert that overwrites the given
// columns from EXCLUDED. With no columns every non-key column is overwritten.
func (b *InsertBuilder) OnConflictUpdate(keys []string, columns ...string) *InsertBuilder {
	b.conflict = append([]string(nil), keys...)
	b.update = append([]string(nil), columns...)
	b.nothing = false
	return b
}

func (b *InsertBuilder) OnConflictDoNothing(keys ...string) *InsertBuilder {
	b.conflict = append([]string(nil), keys...)
	b.nothing = true
	return b
}

func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert columns are required")
	}
	if len(b.rows) == 0 {
		return "", nil, fmt.Errorf("insert values are required")
	}

	var w writer
	w.buf.WriteString("INSERT INTO " + b.table + " (" + strings.Join(b.columns, ", ") + ") VALUES ")
	for rowIdx, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", rowIdx, len(row), len(b.columns))
		}
		if rowIdx > 0 {
			w.buf.WriteString(", ")
		}
		w.buf.WriteString("(")
		for i, v := range row {
			if i > 0 {
				w.buf.WriteString(", ")
			}
			w.arg(v)
		}
		w.buf.WriteString(")")
	}

	if len(b.conflict) > 0 {
		w.buf.WriteString(" ON CONFLICT (" + strings.Join(b.conflict, ", ") + ")")
		if b.nothing {
			w.buf.WriteString(" DO NOTHING")
		} else {
			cols := b.update
			if len(cols) == 0 {
				cols = without(b.columns, b.conflict)
			}
			sets := make([]string, 0, len(cols))
			for _, c := range cols {
				sets = append(sets, c+" = EXCLUDED."+c)
			}
			w.buf.WriteString(" DO UPDATE SET " + strings.Join(sets, ", "))
		}
	}
	if b.suffix != "" {
		w.buf.WriteString(" " + b.suffix)
	}

	return w.buf.String(), w.args, nil
}

type setClause struct {
	column string
	value  any
	sql    string
	args   []any
	raw    bool
}

type UpdateBuilder struct {
	table  string
	sets   []setClause
	where  []Condition
	suffix string
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, setClause{column: column, value: value})
	return b
}

func (b *UpdateBuilder) SetExpr(column, sql string, args ...any) *UpdateBuilder {
	b.sets = append(b.sets, setClause{column: column, sql: sql, args: args, raw: true})
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *UpdateBuilder) Suffix(sql string) *UpdateBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("update table is required")
	}
	if len(b.sets) == 0 {
		return "", nil, fmt.Errorf("update sets are required")
	}

	var w writer
	w.buf.WriteString("UPDATE " + b.table + " SET ")
	for i, s := range b.sets {
		if i > 0 {
			w.buf.WriteString(", ")
		}
		w.buf.WriteString(s.column + " = ")
		if s.raw {
			w.expr(s.sql, s.args)
			continue
		}
		w.arg(s.value)
	}
	w.where(b.where)
	if b.suffix != "" {
		w.buf.WriteString(" " + b.suffix)
	}

	return w.buf.String(), w.args, nil
}

type DeleteBuilder struct {
	table string
	where []Condition
}

func DeleteFrom(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

func (b *DeleteBuilder) Where(conditions ...Condition) *DeleteBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *DeleteBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("delete table is required")
	}
	if len(b.where) == 0 {
		return "", nil, fmt.Errorf("delete without where is not allowed")
	}

	var w writer
	w.buf.WriteString("DELETE FROM " + b.table)
	w.where(b.where)
	return w.buf.String(), w.args, nil
}

func without(columns, drop []string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		keep := true
		for _, d := range drop {
			if c == d {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, c)
		}
	}
	return out
}
