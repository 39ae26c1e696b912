package model

import "time"

// TourPackage represents a travel arrangement offered by the agency.
// Capacity counts the guest slots not yet committed to a CONFIRMED
// reservation. It is decremented when a reservation is confirmed and
// incremented back when a confirmed reservation is cancelled or
// deleted; it must never go below zero.
//
// Fields:
//  ID             – primary key identifier.
//  Destination    – destination name shown to clients.
//  Description    – free-form description.
//  Price          – price per guest; positive and bounded above.
//  NumberOfNights – nightly duration of the trip (must be positive).
//  Capacity       – remaining unconfirmed-safe guest slots (>= 0).
//  StartDate      – trip start; strictly before EndDate.
//  EndDate        – trip end.
//  CategoryID     – category the package belongs to.
//  CreatedByID    – user (AGENT or ADMIN) who created the package.
//  Image          – optional image reference.
//  IsActive       – inactive packages are hidden from public browsing.
type TourPackage struct {
	ID             uint64    // packages.id
	Destination    string    // packages.destination
	Description    string    // packages.description
	Price          float64   // packages.price
	NumberOfNights uint32    // packages.number_of_nights
	Capacity       uint32    // packages.capacity
	StartDate      time.Time // packages.start_date
	EndDate        time.Time // packages.end_date
	CategoryID     uint64    // packages.category_id
	CreatedByID    uint64    // packages.created_by_id
	Image          *string   // packages.image (nullable)
	IsActive       bool      // packages.is_active
	CreatedAt      time.Time // packages.created_at
	UpdatedAt      time.Time // packages.updated_at
}

// DefaultCapacity is used when a package is created without an
// explicit capacity.
const DefaultCapacity = 20

// MaxPrice bounds the per-guest price of a package.
const MaxPrice = 10000

// MaxCapacity bounds staff-set package capacity and the guest count of
// a single reservation. Capacity arithmetic stays within 32-bit range
// as long as both respect it.
const MaxCapacity = 100000

// Category groups packages (e.g. "Summer", "City break"). Categories
// with packages attached cannot be deleted.
type Category struct {
	ID        uint64    // categories.id
	Name      string    // categories.name
	CreatedAt time.Time // categories.created_at
}
