// Package ledger owns the reservation status state machine and the
// package capacity invariant: the guest counts of all CONFIRMED
// reservations on a package never exceed its configured capacity.
// Every capacity mutation is paired with the corresponding status
// write inside one storage transaction.
package ledger

import "errors"

// ErrNotFound is returned when the referenced package or reservation
// does not exist. Handlers translate this into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrCapacityExceeded is returned when an admission check or a
// confirmation debit would breach the package capacity. Handlers
// translate this into HTTP 409.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// ErrInvalidTransition is returned when the requested status change is
// not an edge of the reservation state machine, for example confirming
// an already confirmed reservation. Handlers translate this into
// HTTP 422.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrValidation is returned for malformed input such as a non-positive
// guest count. Handlers translate this into HTTP 400.
var ErrValidation = errors.New("validation failed")
