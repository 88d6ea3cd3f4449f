// Package repository implements the storage layer: one repository per
// aggregate root over plain database/sql.  Every read predicates on
// is_deleted = 0 explicitly; soft deletion is a storage concern that is
// never left to an implicit filter.
//
// The sentinel errors below let handlers distinguish failure scenarios
// without string matching: ErrNotFound maps to 404, the *Exists pair to
// 400/409 on unique-key conflicts, ErrHasRecords to the "referenced
// rows exist" conflict on hard deletes.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when the requested row does not exist or is
// soft-deleted.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a user insert collides with the
// unique email key.
var ErrEmailExists = errors.New("email already exists")

// ErrCodeExists is returned when a product insert or update collides
// with the unique product code key.
var ErrCodeExists = errors.New("product code already exists")

// ErrHasRecords is returned when a hard delete is refused because
// dependent temperature records exist.
var ErrHasRecords = errors.New("has associated records")

// isDuplicate reports whether err is a MySQL duplicate-key violation
// (error 1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
