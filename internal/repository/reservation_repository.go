package repository

import (
	"context"
	"database/sql"
	"time"
)

// ReservationRepo serves the read side of reservations: role-scoped
// listings and single-reservation detail. All lifecycle writes go
// through the ledger and its transactional store, never through this
// type.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given
// database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ReservationDetail is a reservation joined with its package and the
// client who made it, as shown in listings. DiscountedPrice is set
// when the package has an active discount at query time.
type ReservationDetail struct {
	ID              uint64   `json:"id"`
	PackageID       uint64   `json:"package_id"`
	UserID          uint64   `json:"user_id"`
	UserEmail       string   `json:"user_email"`
	NumberOfGuests  uint32   `json:"number_of_guests"`
	Status          string   `json:"status"`
	CreatedAt       string   `json:"created_at"`
	Destination     string   `json:"destination"`
	Price           float64  `json:"price"`
	DiscountedPrice *float64 `json:"discounted_price,omitempty"`
	PackageOwnerID  uint64   `json:"-"`
}

// listBase is the shared listing query. The LEFT JOIN picks the
// highest-value discount whose window contains NOW() for each package.
const listBase = `SELECT r.id, r.package_id, r.user_id, u.email,
	r.number_of_guests, r.status, r.created_at,
	p.destination, p.price, p.created_by_id,
	d.type, d.value
	FROM reservations r
	JOIN users u ON u.id = r.user_id
	JOIN packages p ON p.id = r.package_id
	LEFT JOIN discounts d ON d.id = (
		SELECT d2.id FROM discounts d2
		WHERE d2.package_id = p.id AND d2.start_date <= NOW() AND d2.end_date >= NOW()
		ORDER BY d2.value DESC LIMIT 1
	)`

// ListAll returns every reservation, newest first. Admin view.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]ReservationDetail, error) {
	return r.list(ctx, listBase+` ORDER BY r.created_at DESC`)
}

// ListByAgent returns reservations on packages created by the given
// agent, newest first.
func (r *ReservationRepo) ListByAgent(ctx context.Context, agentID uint64) ([]ReservationDetail, error) {
	return r.list(ctx, listBase+` WHERE p.created_by_id = ? ORDER BY r.created_at DESC`, agentID)
}

// ListByUser returns the client's own reservations, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
	return r.list(ctx, listBase+` WHERE r.user_id = ? ORDER BY r.created_at DESC`, userID)
}

// GetDetail returns a single reservation with package and user info.
// Ownership checks against UserID / PackageOwnerID are the caller's
// job; sql.ErrNoRows is passed through when the id matches nothing.
func (r *ReservationRepo) GetDetail(ctx context.Context, id uint64) (ReservationDetail, error) {
	rows, err := r.list(ctx, listBase+` WHERE r.id = ?`, id)
	if err != nil {
		return ReservationDetail{}, err
	}
	if len(rows) == 0 {
		return ReservationDetail{}, sql.ErrNoRows
	}
	return rows[0], nil
}

func (r *ReservationRepo) list(ctx context.Context, query string, args ...interface{}) ([]ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ReservationDetail, 0)
	for rows.Next() {
		var (
			d         ReservationDetail
			createdAt time.Time
			dType     sql.NullString
			dValue    sql.NullFloat64
		)
		if err := rows.Scan(
			&d.ID, &d.PackageID, &d.UserID, &d.UserEmail,
			&d.NumberOfGuests, &d.Status, &createdAt,
			&d.Destination, &d.Price, &d.PackageOwnerID,
			&dType, &dValue,
		); err != nil {
			return nil, err
		}
		d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		if dType.Valid && dValue.Valid {
			dp := applyDiscount(d.Price, dType.String, dValue.Float64)
			d.DiscountedPrice = &dp
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// applyDiscount mirrors model.Discount.Apply for rows scanned straight
// out of the join.
func applyDiscount(price float64, dType string, value float64) float64 {
	var out float64
	switch dType {
	case "PERCENTAGE":
		out = price * (1 - value/100)
	case "FIXED":
		out = price - value
	default:
		out = price
	}
	if out < 0 {
		return 0
	}
	return out
}
