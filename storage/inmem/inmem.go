// Package inmem provides map-backed repository implementations. They honor
// the same contracts as the sqlx repositories and back the admin dry-run
// mode and the test suites, where spinning up Postgres is not worth it.
package inmem

import "github.com/google/uuid"

func newID() string { return uuid.New().String() }
