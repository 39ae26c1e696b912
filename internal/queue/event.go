// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationConfirmedEvent is published when a reservation is successfully
// confirmed. It carries enough information for downstream consumers to log,
// notify, or trigger analytics without querying the primary database.
type ReservationConfirmedEvent struct {
	ReservationID  uint64  `json:"reservation_id"`
	UserID         uint64  `json:"user_id"`
	PackageID      uint64  `json:"package_id"`
	Destination    string  `json:"destination"`
	NumberOfGuests uint32  `json:"number_of_guests"`
	TotalPrice     float64 `json:"total_price"`
	ConfirmedAt    string  `json:"confirmed_at"`
}
