package postgres

import (
	"fmt"

	"marketserver/internal/domain"
)

func listColumn(field string) (string, bool) {
	switch field {
	case "name", "email":
		return field, true
	}
	return "", false
}

// listTail renders the WHERE/ORDER BY/LIMIT fragment for a listing query and
// the arguments that go with it, starting at placeholder $1. Column names
// come from the whitelist above, never from user input.
func listTail(f domain.ListFilter) (string, []any) {
	var (
		tail string
		args []any
	)

	if col, ok := listColumn(f.SearchField); ok && f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		tail += fmt.Sprintf(" WHERE %s ILIKE $%d", col, len(args))
	}

	order := "created_at"
	if col, ok := listColumn(f.SortField); ok {
		order = col
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	tail += fmt.Sprintf(" ORDER BY %s %s", order, dir)

	if f.Limit > 0 {
		args = append(args, f.Limit)
		tail += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, f.Offset)
		tail += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return tail, args
}

// countTail renders just the WHERE fragment for a COUNT query.
func countTail(f domain.ListFilter) (string, []any) {
	if col, ok := listColumn(f.SearchField); ok && f.Search != "" {
		return fmt.Sprintf(" WHERE %s ILIKE $1", col), []any{"%" + f.Search + "%"}
	}
	return "", nil
}
