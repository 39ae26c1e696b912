package model

import "time"

// ReservationStatus enumerates the states of the reservation state
// machine. A reservation starts PENDING; confirmation debits package
// capacity, cancellation of a confirmed reservation credits it back,
// completion leaves capacity untouched. CANCELLED and COMPLETED are
// terminal.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusCancelled ReservationStatus = "CANCELLED"
	StatusCompleted ReservationStatus = "COMPLETED"
)

// ValidStatus reports whether s names a known reservation status.
func ValidStatus(s string) bool {
	switch ReservationStatus(s) {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Reservation records a client's request to occupy guest slots on a
// package.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – client who made the reservation.
//  PackageID      – package being reserved.
//  NumberOfGuests – guest slots requested (positive).
//  Status         – current state in the reservation state machine.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Reservation struct {
	ID             uint64            // reservations.id
	UserID         uint64            // reservations.user_id
	PackageID      uint64            // reservations.package_id
	NumberOfGuests uint32            // reservations.number_of_guests
	Status         ReservationStatus // reservations.status
	CreatedAt      time.Time         // reservations.created_at
	UpdatedAt      time.Time         // reservations.updated_at
}
