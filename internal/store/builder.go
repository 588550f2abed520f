// Package store implements core.Store on PostgreSQL via pgx.
package store

import (
	"fmt"
	"strings"

	"github.com/logidesk/backoffice/internal/core"
)

// allowedColumns whitelists the identifiers condition and order clauses may
// reference. Anything else is dropped before SQL generation.
var allowedColumns = map[string]bool{
	core.ColTicketID:                true,
	core.ColSPXTN:                   true,
	core.ColCreatedTime:             true,
	core.ColDriverName:              true,
	core.ColStation:                 true,
	core.ColPNRValue:                true,
	core.ColOriginalStatus:          true,
	core.ColSLADeadline:             true,
	core.ColInternalStatus:          true,
	core.ColInternalNotes:           true,
	core.ColInternalStatusUpdatedAt: true,
	core.ColUpdatedAt:               true,
}

// whereBuilder accumulates parameterized WHERE conditions, mirroring the
// query-builder protocol the core composes against.
type whereBuilder struct {
	conditions []string
	args       []any
	argIndex   int
}

func newWhereBuilder() *whereBuilder {
	return &whereBuilder{argIndex: 1}
}

// AddClause appends one AND-level clause. OR groups become a parenthesized
// disjunction. Clauses referencing unknown columns are skipped entirely.
func (wb *whereBuilder) AddClause(clause core.Clause) {
	var parts []string
	for _, cond := range clause.Any {
		frag, ok := wb.condSQL(cond)
		if !ok {
			continue
		}
		parts = append(parts, frag)
	}

	switch len(parts) {
	case 0:
	case 1:
		wb.conditions = append(wb.conditions, parts[0])
	default:
		wb.conditions = append(wb.conditions, "("+strings.Join(parts, " OR ")+")")
	}
}

// condSQL renders a single condition, registering its argument.
func (wb *whereBuilder) condSQL(c core.Cond) (string, bool) {
	if !allowedColumns[c.Column] {
		return "", false
	}
	col := quoteIdentifier(c.Column)

	switch c.Op {
	case core.OpEq:
		frag := fmt.Sprintf("%s = $%d", col, wb.argIndex)
		wb.args = append(wb.args, c.Value)
		wb.argIndex++
		return frag, true

	case core.OpIn:
		values, ok := c.Value.([]string)
		if !ok || len(values) == 0 {
			return "", false
		}
		frag := fmt.Sprintf("%s = ANY($%d)", col, wb.argIndex)
		wb.args = append(wb.args, values)
		wb.argIndex++
		return frag, true

	case core.OpILike:
		frag := fmt.Sprintf("%s ILIKE $%d", col, wb.argIndex)
		wb.args = append(wb.args, c.Value)
		wb.argIndex++
		return frag, true

	case core.OpGte:
		frag := fmt.Sprintf("%s >= $%d", col, wb.argIndex)
		wb.args = append(wb.args, c.Value)
		wb.argIndex++
		return frag, true

	case core.OpLte:
		frag := fmt.Sprintf("%s <= $%d", col, wb.argIndex)
		wb.args = append(wb.args, c.Value)
		wb.argIndex++
		return frag, true

	default:
		return "", false
	}
}

// Build returns the WHERE clause (with leading space) and its arguments.
// An empty builder yields an empty clause.
func (wb *whereBuilder) Build() (string, []any) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}

// NextArgIndex is the placeholder index the next appended argument would get.
func (wb *whereBuilder) NextArgIndex() int {
	return wb.argIndex
}

// orderSQL renders the ORDER BY clause for a validated order spec, falling
// back to the deadline when the column is unknown.
func orderSQL(o core.OrderBy) string {
	col := o.Column
	if !allowedColumns[col] {
		col = core.ColSLADeadline
	}

	dir := "ASC"
	if o.Descending {
		dir = "DESC"
	}

	clause := fmt.Sprintf(" ORDER BY %s %s", quoteIdentifier(col), dir)
	if o.NullsLast {
		clause += " NULLS LAST"
	}
	return clause
}

// quoteIdentifier quotes a SQL identifier to prevent injection.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
