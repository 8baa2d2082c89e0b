// Package querybuilder implements the schema-aware query composition
// and version-gated dispatch layer sitting between the query/runtime
// core and the storage interface.
package querybuilder

import (
	"fmt"
	"strings"
)

// Column-alias constants. All consumers bind results by alias, never by
// column position.
const (
	AliasStartTs      = "startTs"
	AliasEndTs        = "endTs"
	AliasNodeID       = "nodeId"
	AliasProcessID    = "processId"
	AliasThreadID     = "threadId"
	AliasAgentID      = "agentId"
	AliasQueueID      = "queueId"
	AliasStreamID     = "streamId"
	AliasCounterID    = "counterId"
	AliasCounterValue = "counterValue"
	AliasEventLevel   = "eventLevel"
	AliasEventNameID  = "eventNameId"
	AliasCategoryID   = "categoryId"
	AliasEventID      = "eventId"
)

// Column is a single SELECT expression with its bound alias.
type Column struct {
	Expr  string
	Alias string
}

// Join is a single JOIN clause.
type Join struct {
	Kind  string // "INNER JOIN", "LEFT JOIN", ...
	Table string
	On    string
}

// Builder composes a SELECT statement from a column list, a FROM/JOIN
// chain, and optional WHERE/GROUP BY/ORDER BY/LIMIT/OFFSET clauses,
// emitting alias-bound columns.
type Builder struct {
	from       string
	columns    []Column
	joins      []Join
	conditions []string
	args       []any
	groupBy    []string
	orderBy    []string
	limit      int
	offset     int
}

// New starts a builder selecting from table.
func New(from string) *Builder {
	return &Builder{from: from}
}

// Select appends a column with its alias.
func (b *Builder) Select(expr, alias string) *Builder {
	b.columns = append(b.columns, Column{Expr: expr, Alias: alias})
	return b
}

// Join appends a JOIN clause.
func (b *Builder) Join(kind, table, on string) *Builder {
	b.joins = append(b.joins, Join{Kind: kind, Table: table, On: on})
	return b
}

// Where adds a WHERE condition using ? placeholders, which Build
// renumbers into $N.
func (b *Builder) Where(condition string, args ...any) *Builder {
	b.conditions = append(b.conditions, condition)
	b.args = append(b.args, args...)
	return b
}

// GroupBy adds a GROUP BY column.
func (b *Builder) GroupBy(column string) *Builder {
	b.groupBy = append(b.groupBy, column)
	return b
}

// OrderBy adds an ORDER BY clause.
func (b *Builder) OrderBy(column string, desc bool) *Builder {
	order := "ASC"
	if desc {
		order = "DESC"
	}
	b.orderBy = append(b.orderBy, fmt.Sprintf("%s %s", column, order))
	return b
}

// Limit sets LIMIT.
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	return b
}

// Offset sets OFFSET.
func (b *Builder) Offset(n int) *Builder {
	b.offset = n
	return b
}

// Build renders the final SQL and its positional arguments, rewriting
// any "?" placeholders left in Where() conditions into Postgres's
// "$N" form.
func (b *Builder) Build() (string, []any) {
	cols := make([]string, len(b.columns))
	for i, c := range b.columns {
		cols[i] = fmt.Sprintf("%s AS %s", c.Expr, c.Alias)
	}
	colList := "*"
	if len(cols) > 0 {
		colList = strings.Join(cols, ", ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", colList, b.from)
	for _, j := range b.joins {
		fmt.Fprintf(&sb, " %s %s ON %s", j.Kind, j.Table, j.On)
	}

	args := make([]any, 0, len(b.args))
	argIndex := 1
	if len(b.conditions) > 0 {
		conds := make([]string, len(b.conditions))
		for i, cond := range b.conditions {
			for strings.Contains(cond, "?") {
				cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", argIndex), 1)
				argIndex++
			}
			conds[i] = cond
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
		args = append(args, b.args...)
	}

	if len(b.groupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(b.groupBy, ", "))
	}
	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", b.limit)
	}
	if b.offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", b.offset)
	}

	return sb.String(), args
}
