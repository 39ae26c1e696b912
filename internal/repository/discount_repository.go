package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/tour-agency-booking/internal/model"
)

// DiscountRepo provides CRUD operations for package discounts.
type DiscountRepo struct {
	db *sql.DB
}

// NewDiscountRepo returns a new DiscountRepo bound to the given database.
func NewDiscountRepo(db *sql.DB) *DiscountRepo { return &DiscountRepo{db: db} }

// DiscountDetail is a discount joined with the destination of its
// package for listings.
type DiscountDetail struct {
	ID             uint64  `json:"id"`
	PackageID      uint64  `json:"package_id"`
	Destination    string  `json:"destination"`
	Type           string  `json:"type"`
	Value          float64 `json:"value"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	PackageOwnerID uint64  `json:"-"`
}

const discountSelect = `SELECT d.id, d.package_id, p.destination, d.type, d.value,
	d.start_date, d.end_date, p.created_by_id
	FROM discounts d JOIN packages p ON p.id = d.package_id`

// List returns all discounts, newest first.
func (r *DiscountRepo) List(ctx context.Context) ([]DiscountDetail, error) {
	return r.list(ctx, discountSelect+` ORDER BY d.id DESC`)
}

// ListByCreator returns the discounts attached to packages created by
// the given agent, newest first.
func (r *DiscountRepo) ListByCreator(ctx context.Context, creatorID uint64) ([]DiscountDetail, error) {
	return r.list(ctx, discountSelect+` WHERE p.created_by_id = ? ORDER BY d.id DESC`, creatorID)
}

// GetByID fetches one discount together with its package owner, so the
// handler can run the ownership predicate before mutating it.
func (r *DiscountRepo) GetByID(ctx context.Context, id uint64) (DiscountDetail, error) {
	rows, err := r.list(ctx, discountSelect+` WHERE d.id = ?`, id)
	if err != nil {
		return DiscountDetail{}, err
	}
	if len(rows) == 0 {
		return DiscountDetail{}, ErrDiscountNotFound
	}
	return rows[0], nil
}

// Create inserts a new discount and returns its ID.
func (r *DiscountRepo) Create(ctx context.Context, d *model.Discount) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO discounts (package_id, type, value, start_date, end_date) VALUES (?, ?, ?, ?, ?)`,
		d.PackageID, d.Type, d.Value, d.StartDate, d.EndDate)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites a discount's type, value and validity window.
func (r *DiscountRepo) Update(ctx context.Context, d *model.Discount) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE discounts SET type = ?, value = ?, start_date = ?, end_date = ? WHERE id = ?`,
		d.Type, d.Value, d.StartDate, d.EndDate, d.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDiscountNotFound
	}
	return nil
}

// Delete removes a discount.
func (r *DiscountRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM discounts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDiscountNotFound
	}
	return nil
}

func (r *DiscountRepo) list(ctx context.Context, query string, args ...interface{}) ([]DiscountDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]DiscountDetail, 0)
	for rows.Next() {
		var (
			d          DiscountDetail
			start, end sql.NullTime
		)
		if err := rows.Scan(&d.ID, &d.PackageID, &d.Destination, &d.Type, &d.Value,
			&start, &end, &d.PackageOwnerID); err != nil {
			return nil, err
		}
		if start.Valid {
			d.StartDate = start.Time.UTC().Format("2006-01-02")
		}
		if end.Valid {
			d.EndDate = end.Time.UTC().Format("2006-01-02")
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
