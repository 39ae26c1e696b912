package ledger

import (
	"context"

	"github.com/iliyamo/tour-agency-booking/internal/model"
)

// Store is the transactional view of the persistence layer that the
// ledger operates on. Every method runs inside the transaction that
// produced the Store; the SQL implementation lives in the repository
// package, tests use an in-memory one.
type Store interface {
	// FindPackage loads a package and locks its row for the duration
	// of the transaction so that concurrent capacity checks on the
	// same package serialize. Returns ErrNotFound when absent.
	FindPackage(ctx context.Context, id uint64) (*model.TourPackage, error)

	// FindReservation loads a reservation. Returns ErrNotFound when absent.
	FindReservation(ctx context.Context, id uint64) (*model.Reservation, error)

	// SumActiveGuests returns the total guest count of all
	// non-cancelled reservations on a package. Used by the soft
	// admission check at reservation creation. The sum is 64-bit so
	// aggregate demand can exceed the range of a single guest count.
	SumActiveGuests(ctx context.Context, packageID uint64) (uint64, error)

	// AdjustCapacity atomically adds delta to the package capacity.
	// For negative deltas the update is conditional on the capacity
	// staying non-negative; it reports false (and changes nothing)
	// when the condition fails.
	AdjustCapacity(ctx context.Context, packageID uint64, delta int32) (bool, error)

	// InsertReservation persists a new reservation and fills in its
	// generated ID and timestamps.
	InsertReservation(ctx context.Context, r *model.Reservation) error

	// UpdateReservationStatus writes the new status of a reservation.
	UpdateReservationStatus(ctx context.Context, id uint64, status model.ReservationStatus) error

	// DeleteReservation removes a reservation row.
	DeleteReservation(ctx context.Context, id uint64) error
}

// Runner opens a storage transaction and runs fn against it. A nil
// return from fn commits; any error rolls the whole transaction back,
// so a failed capacity update never leaves a stray status write behind.
type Runner interface {
	InTx(ctx context.Context, fn func(Store) error) error
}
