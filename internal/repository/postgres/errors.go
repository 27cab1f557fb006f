package postgres

import (
	"errors"

	"github.com/lib/pq"
)

// pq error code for unique_violation
const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation, the storage-level signal behind every CONFLICT in this service.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
