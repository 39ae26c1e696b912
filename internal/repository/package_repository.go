package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/tour-agency-booking/internal/model"
)

// PackageRepo provides CRUD operations for travel packages. Capacity
// is only written here on create and on explicit edits by staff;
// reservation-driven capacity arithmetic belongs to the ledger store.
type PackageRepo struct {
	db *sql.DB
}

// NewPackageRepo returns a new PackageRepo bound to the given database.
func NewPackageRepo(db *sql.DB) *PackageRepo { return &PackageRepo{db: db} }

// Create inserts a new package and populates its generated ID.
func (r *PackageRepo) Create(ctx context.Context, p *model.TourPackage) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO packages (destination, description, price, number_of_nights, capacity,
			start_date, end_date, category_id, created_by_id, image, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Destination, p.Description, p.Price, p.NumberOfNights, p.Capacity,
		p.StartDate, p.EndDate, p.CategoryID, p.CreatedByID, p.Image, p.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID fetches a single package regardless of its active flag.
func (r *PackageRepo) GetByID(ctx context.Context, id uint64) (model.TourPackage, error) {
	const q = `SELECT id, destination, description, price, number_of_nights, capacity,
		start_date, end_date, category_id, created_by_id, image, is_active, created_at, updated_at
		FROM packages WHERE id = ? LIMIT 1`
	var (
		p     model.TourPackage
		image sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.Destination, &p.Description, &p.Price, &p.NumberOfNights, &p.Capacity,
		&p.StartDate, &p.EndDate, &p.CategoryID, &p.CreatedByID, &image, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.TourPackage{}, ErrPackageNotFound
	}
	if err != nil {
		return model.TourPackage{}, err
	}
	if image.Valid {
		img := image.String
		p.Image = &img
	}
	return p, nil
}

// Update rewrites the editable fields of a package. Direct capacity
// edits are permitted here (and only here) as staff operations that
// bypass the reservation flow.
func (r *PackageRepo) Update(ctx context.Context, p *model.TourPackage) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE packages SET destination = ?, description = ?, price = ?, number_of_nights = ?,
			capacity = ?, start_date = ?, end_date = ?, category_id = ?, image = ?, is_active = ?
		 WHERE id = ?`,
		p.Destination, p.Description, p.Price, p.NumberOfNights,
		p.Capacity, p.StartDate, p.EndDate, p.CategoryID, p.Image, p.IsActive,
		p.ID)
	return err
}

// Delete removes a package. Packages with any reservation attached
// cannot be deleted; the check and the delete run in one transaction
// so a reservation created in between cannot be orphaned.
func (r *PackageRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var refs uint64
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE package_id = ?`, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrConflict
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM packages WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPackageNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// PublicPackage is the browse view of a package: category name joined
// in and the currently active discount applied to the price.
type PublicPackage struct {
	ID              uint64   `json:"id"`
	Destination     string   `json:"destination"`
	Description     string   `json:"description"`
	Price           float64  `json:"price"`
	DiscountedPrice *float64 `json:"discounted_price,omitempty"`
	NumberOfNights  uint32   `json:"number_of_nights"`
	Capacity        uint32   `json:"capacity"`
	StartDate       string   `json:"start_date"`
	EndDate         string   `json:"end_date"`
	CategoryID      uint64   `json:"category_id"`
	CategoryName    string   `json:"category_name"`
	Image           *string  `json:"image,omitempty"`
}

const publicSelect = `SELECT p.id, p.destination, p.description, p.price, p.number_of_nights,
	p.capacity, p.start_date, p.end_date, p.category_id, c.name, p.image,
	d.type, d.value
	FROM packages p
	JOIN categories c ON c.id = p.category_id
	LEFT JOIN discounts d ON d.id = (
		SELECT d2.id FROM discounts d2
		WHERE d2.package_id = p.id AND d2.start_date <= NOW() AND d2.end_date >= NOW()
		ORDER BY d2.value DESC LIMIT 1
	)
	WHERE p.is_active = 1`

// ListPublic returns all active packages for guests, optionally
// filtered by category.
func (r *PackageRepo) ListPublic(ctx context.Context, categoryID uint64) ([]PublicPackage, error) {
	q := publicSelect + ` ORDER BY p.start_date ASC`
	args := []interface{}{}
	if categoryID != 0 {
		q = publicSelect + ` AND p.category_id = ? ORDER BY p.start_date ASC`
		args = append(args, categoryID)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PublicPackage, 0)
	for rows.Next() {
		p, err := scanPublic(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPublic returns one active package for the public detail page.
func (r *PackageRepo) GetPublic(ctx context.Context, id uint64) (PublicPackage, error) {
	rows, err := r.db.QueryContext(ctx, publicSelect+` AND p.id = ?`, id)
	if err != nil {
		return PublicPackage{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return PublicPackage{}, err
		}
		return PublicPackage{}, ErrPackageNotFound
	}
	return scanPublic(rows)
}

// ListByCreator returns the packages created by the given staff user,
// for the agent dashboard.
func (r *PackageRepo) ListByCreator(ctx context.Context, creatorID uint64) ([]model.TourPackage, error) {
	const q = `SELECT id, destination, description, price, number_of_nights, capacity,
		start_date, end_date, category_id, created_by_id, image, is_active, created_at, updated_at
		FROM packages WHERE created_by_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.TourPackage, 0)
	for rows.Next() {
		var (
			p     model.TourPackage
			image sql.NullString
		)
		if err := rows.Scan(
			&p.ID, &p.Destination, &p.Description, &p.Price, &p.NumberOfNights, &p.Capacity,
			&p.StartDate, &p.EndDate, &p.CategoryID, &p.CreatedByID, &image, &p.IsActive,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if image.Valid {
			img := image.String
			p.Image = &img
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPublic(rows *sql.Rows) (PublicPackage, error) {
	var (
		p          PublicPackage
		start, end sql.NullTime
		image      sql.NullString
		dType      sql.NullString
		dValue     sql.NullFloat64
	)
	if err := rows.Scan(
		&p.ID, &p.Destination, &p.Description, &p.Price, &p.NumberOfNights,
		&p.Capacity, &start, &end, &p.CategoryID, &p.CategoryName, &image,
		&dType, &dValue); err != nil {
		return PublicPackage{}, err
	}
	if start.Valid {
		p.StartDate = start.Time.UTC().Format("2006-01-02")
	}
	if end.Valid {
		p.EndDate = end.Time.UTC().Format("2006-01-02")
	}
	if image.Valid {
		img := image.String
		p.Image = &img
	}
	if dType.Valid && dValue.Valid {
		dp := applyDiscount(p.Price, dType.String, dValue.Float64)
		p.DiscountedPrice = &dp
	}
	return p, nil
}
