package ledger

import (
	"context"

	"github.com/iliyamo/tour-agency-booking/internal/auth"
	"github.com/iliyamo/tour-agency-booking/internal/model"
)

// Ledger applies reservation lifecycle operations against a
// transactional store. Each operation is a single transaction: the
// status write and the capacity adjustment either both land or neither
// does.
type Ledger struct {
	txs Runner
}

// New returns a Ledger running its operations through the given
// transaction runner.
func New(txs Runner) *Ledger {
	if txs == nil {
		panic("nil runner passed to ledger.New")
	}
	return &Ledger{txs: txs}
}

// CreateReservation admits a new PENDING reservation for a client.
// Admission is a soft check: the new guest count plus the guests of
// all existing non-cancelled reservations must fit in the package
// capacity. Capacity itself is not debited until confirmation, so
// pending demand provisionally holds a claim without being promised
// a slot.
func (l *Ledger) CreateReservation(ctx context.Context, id auth.Identity, packageID uint64, guests uint32) (*model.Reservation, error) {
	if id.Role != model.RoleClient {
		return nil, auth.ErrForbidden
	}
	if guests == 0 || guests > model.MaxCapacity {
		return nil, ErrValidation
	}
	var out *model.Reservation
	err := l.txs.InTx(ctx, func(s Store) error {
		pkg, err := s.FindPackage(ctx, packageID)
		if err != nil {
			return err
		}
		reserved, err := s.SumActiveGuests(ctx, packageID)
		if err != nil {
			return err
		}
		// 64-bit so aggregate demand cannot wrap the comparison.
		if reserved+uint64(guests) > uint64(pkg.Capacity) {
			return ErrCapacityExceeded
		}
		r := &model.Reservation{
			UserID:         id.UserID,
			PackageID:      packageID,
			NumberOfGuests: guests,
			Status:         model.StatusPending,
		}
		if err := s.InsertReservation(ctx, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TransitionReservation moves a reservation to the target status,
// debiting or crediting package capacity as the state machine
// requires. Confirmation debits by the reservation's guest count
// through a conditional update; when the package cannot cover the
// guests the whole transaction rolls back and ErrCapacityExceeded is
// reported.
func (l *Ledger) TransitionReservation(ctx context.Context, id auth.Identity, reservationID uint64, target model.ReservationStatus) (*model.Reservation, error) {
	if !model.ValidStatus(string(target)) {
		return nil, ErrValidation
	}
	var out *model.Reservation
	err := l.txs.InTx(ctx, func(s Store) error {
		r, err := s.FindReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		pkg, err := s.FindPackage(ctx, r.PackageID)
		if err != nil {
			return err
		}
		if !validEdge(r.Status, target) {
			return ErrInvalidTransition
		}
		if err := transitionAllowed(id, target, r, pkg); err != nil {
			return err
		}
		switch {
		case target == model.StatusConfirmed:
			// Guest counts above the bound would flip the sign of the
			// debit and bypass the conditional update.
			if r.NumberOfGuests > model.MaxCapacity {
				return ErrValidation
			}
			ok, err := s.AdjustCapacity(ctx, pkg.ID, -int32(r.NumberOfGuests))
			if err != nil {
				return err
			}
			if !ok {
				return ErrCapacityExceeded
			}
		case target == model.StatusCancelled && r.Status == model.StatusConfirmed:
			if _, err := s.AdjustCapacity(ctx, pkg.ID, int32(r.NumberOfGuests)); err != nil {
				return err
			}
		}
		if err := s.UpdateReservationStatus(ctx, r.ID, target); err != nil {
			return err
		}
		r.Status = target
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteReservation removes a reservation. Admins may delete any
// reservation; a client may delete only their own while it is still
// PENDING (a confirmed reservation must be cancelled instead, which
// keeps the capacity bookkeeping in one place). Deleting a CONFIRMED
// reservation credits its guests back to the package exactly once.
func (l *Ledger) DeleteReservation(ctx context.Context, id auth.Identity, reservationID uint64) error {
	return l.txs.InTx(ctx, func(s Store) error {
		r, err := s.FindReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		switch id.Role {
		case model.RoleAdmin:
			// unrestricted
		case model.RoleClient:
			if r.UserID != id.UserID || r.Status != model.StatusPending {
				return auth.ErrForbidden
			}
		default:
			return auth.ErrForbidden
		}
		if r.Status == model.StatusConfirmed {
			if _, err := s.AdjustCapacity(ctx, r.PackageID, int32(r.NumberOfGuests)); err != nil {
				return err
			}
		}
		return s.DeleteReservation(ctx, r.ID)
	})
}

// validEdge reports whether the state machine contains the edge
// from -> to. PENDING is a creation-only state and never a target.
func validEdge(from, to model.ReservationStatus) bool {
	switch to {
	case model.StatusConfirmed:
		return from == model.StatusPending
	case model.StatusCancelled:
		return from == model.StatusPending || from == model.StatusConfirmed
	case model.StatusCompleted:
		return from == model.StatusConfirmed
	}
	return false
}

// transitionAllowed applies the role column of the transition table.
// Confirmation and completion are staff operations: admins always,
// agents only on packages they created. Cancellation is additionally
// open to the client who owns the reservation.
func transitionAllowed(id auth.Identity, target model.ReservationStatus, r *model.Reservation, pkg *model.TourPackage) error {
	switch id.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleAgent:
		if pkg.CreatedByID != id.UserID {
			return auth.ErrForbidden
		}
		return nil
	case model.RoleClient:
		if target == model.StatusCancelled && r.UserID == id.UserID {
			return nil
		}
		return auth.ErrForbidden
	}
	return auth.ErrForbidden
}
