package repositories

import (
	"fmt"
	"strings"
)

// dialect captures the only two things that differ between backends
type dialect struct {
	quote       func(ident string) string
	placeholder func(n int) string
}

func doubleQuote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

var (
	postgresDialect = dialect{
		quote:       doubleQuote,
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	}
	sqliteDialect = dialect{
		quote:       doubleQuote,
		placeholder: func(int) string { return "?" },
	}
)

// whereClause renders equality predicates starting at placeholder index start
func (d dialect) whereClause(table string, filter Filter, start int) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	keys, err := sortedKeys(table, filter)
	if err != nil {
		return "", nil, err
	}

	parts := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	n := start
	for _, k := range keys {
		v := filter[k]
		if v == nil {
			parts = append(parts, d.quote(k)+" IS NULL")
			continue
		}
		parts = append(parts, d.quote(k)+" = "+d.placeholder(n))
		args = append(args, v)
		n++
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

func (d dialect) columnList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.quote(c)
	}
	return strings.Join(quoted, ", ")
}

func (d dialect) buildSelect(table string, columns []string, filter Filter, order []OrderBy) (string, []any, error) {
	cols, err := resolveColumns(table, columns)
	if err != nil {
		return "", nil, err
	}
	where, args, err := d.whereClause(table, filter, 1)
	if err != nil {
		return "", nil, err
	}
	orderBy, err := orderClause(table, order, d.quote)
	if err != nil {
		return "", nil, err
	}

	query := "SELECT " + d.columnList(cols) + " FROM " + d.quote(table) + where + orderBy
	return query, args, nil
}

func (d dialect) buildInsert(table string, row Row) (string, []any, error) {
	all, err := checkTable(table)
	if err != nil {
		return "", nil, err
	}
	if len(row) == 0 {
		return "", nil, fmt.Errorf("%w: empty insert", ErrInvalidQuery)
	}
	keys, err := sortedKeys(table, row)
	if err != nil {
		return "", nil, err
	}

	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		placeholders[i] = d.placeholder(i + 1)
		args[i] = row[k]
	}

	query := "INSERT INTO " + d.quote(table) +
		" (" + d.columnList(keys) + ") VALUES (" + strings.Join(placeholders, ", ") + ")" +
		" RETURNING " + d.columnList(all)
	return query, args, nil
}

func (d dialect) buildUpdate(table string, patch Row, filter Filter) (string, []any, error) {
	if _, err := checkTable(table); err != nil {
		return "", nil, err
	}
	if len(patch) == 0 {
		return "", nil, fmt.Errorf("%w: empty update", ErrInvalidQuery)
	}
	if len(filter) == 0 {
		// Unfiltered updates are never issued by the registry
		return "", nil, fmt.Errorf("%w: update without filter", ErrInvalidQuery)
	}
	keys, err := sortedKeys(table, patch)
	if err != nil {
		return "", nil, err
	}

	sets := make([]string, len(keys))
	args := make([]any, 0, len(keys)+len(filter))
	for i, k := range keys {
		sets[i] = d.quote(k) + " = " + d.placeholder(i+1)
		args = append(args, patch[k])
	}

	where, whereArgs, err := d.whereClause(table, filter, len(keys)+1)
	if err != nil {
		return "", nil, err
	}
	args = append(args, whereArgs...)

	query := "UPDATE " + d.quote(table) + " SET " + strings.Join(sets, ", ") + where
	return query, args, nil
}
