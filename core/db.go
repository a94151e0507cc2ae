package core

import "strings"

// DBOrdering is one ORDER BY term, passed from the API layer down to the
// repositories. Field names are whitelisted at the binding site, never taken
// raw from the request.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// OrderByClause renders orderings into an ORDER BY body, or the fallback when
// none were requested.
func OrderByClause(ordering []DBOrdering, fallback string) string {
	if len(ordering) == 0 {
		return fallback
	}
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		clauses = append(clauses, ord.String())
	}
	return strings.Join(clauses, ", ")
}
