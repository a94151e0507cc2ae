// Package database implements the core repositories on PostgreSQL.
package database

import (
	"database/sql"
	"time"
)

// uuidOrNull maps an empty ID to NULL; uuid columns reject empty strings.
func uuidOrNull(id string) sql.NullString {
	return sql.NullString{String: id, Valid: id != ""}
}

func timeOrNull(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func fromNullStr(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

func fromNullTime(nt sql.NullTime) time.Time {
	if !nt.Valid {
		return time.Time{}
	}
	return nt.Time.UTC()
}
