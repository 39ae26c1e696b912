// Package repository defines error types that are reused across
// multiple repositories. These sentinel values allow higher layers
// such as handlers to distinguish between different failure scenarios.
// ErrConflict signals that an operation cannot proceed due to existing
// dependent records (e.g. deleting a package that still has
// reservations, or deactivating a user who owns bookings).
package repository

import "errors"

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as removing a category that still
// has packages. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when registering with an email that is
// already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrPackageNotFound is returned when a package lookup matches no row.
var ErrPackageNotFound = errors.New("package not found")

// ErrCategoryNotFound is returned when a category lookup matches no row.
var ErrCategoryNotFound = errors.New("category not found")

// ErrDiscountNotFound is returned when a discount lookup matches no row.
var ErrDiscountNotFound = errors.New("discount not found")

// ErrUserNotFound is returned when a user lookup matches no row.
var ErrUserNotFound = errors.New("user not found")
