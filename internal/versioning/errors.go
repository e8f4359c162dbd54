package versioning

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// StaleVersionError reports that the conditional demote did not match
// exactly one row: the caller's view of the current version was outdated
// or lost a race. Retrying is the caller's decision; the subsystem never
// retries on its own.
type StaleVersionError struct {
	Dimension string
	RecordID  uuid.UUID
	// ExpectedLock is the lock value the demote predicate carried, zero
	// when the dimension runs without a lock column.
	ExpectedLock int64
	Affected     int64
}

func (e *StaleVersionError) Error() string {
	return fmt.Sprintf(
		"stale version: demote of %s row %s (expected lock %d) affected %d rows",
		e.Dimension, e.RecordID, e.ExpectedLock, e.Affected,
	)
}

// IsStaleVersion reports whether err wraps a StaleVersionError.
func IsStaleVersion(err error) bool {
	var stale *StaleVersionError
	return errors.As(err, &stale)
}
