package database

import "errors"

// Sentinel errors returned by the repositories. Callers classify them with
// errors.Is; everything else coming out of this package is a wrapped driver
// error and should be treated as the store being unavailable.
var (
	// ErrNotFound means no record exists for the requested key.
	ErrNotFound = errors.New("database: record not found")

	// ErrDuplicateKey means an insert lost a creation race: a record for the
	// key already exists.
	ErrDuplicateKey = errors.New("database: duplicate key")

	// ErrVersionConflict means a versioned update observed a stale record: a
	// concurrent writer committed first and the caller must reload.
	ErrVersionConflict = errors.New("database: version conflict")
)
