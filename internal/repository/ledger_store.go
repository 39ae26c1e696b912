package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/tour-agency-booking/internal/ledger"
	"github.com/iliyamo/tour-agency-booking/internal/model"
)

// LedgerStore adapts the MySQL database to the ledger's transactional
// store contract. InTx opens one transaction per ledger operation so
// that the reservation status write and the capacity adjustment commit
// or roll back together.
type LedgerStore struct {
	DB *sql.DB
}

// NewLedgerStore returns a LedgerStore bound to the given database.
func NewLedgerStore(db *sql.DB) *LedgerStore { return &LedgerStore{DB: db} }

// InTx runs fn inside a transaction. A nil return from fn commits;
// any error (or a panic) rolls the transaction back and nothing fn did
// becomes visible.
func (s *LedgerStore) InTx(ctx context.Context, fn func(ledger.Store) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&txStore{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// txStore implements ledger.Store over a single open transaction.
type txStore struct {
	tx *sql.Tx
}

// FindPackage loads a package row with FOR UPDATE so that concurrent
// admission checks and capacity adjustments on the same package
// serialize on the row lock for the rest of the transaction.
func (s *txStore) FindPackage(ctx context.Context, id uint64) (*model.TourPackage, error) {
	const q = `SELECT id, destination, description, price, number_of_nights, capacity,
		start_date, end_date, category_id, created_by_id, image, is_active, created_at, updated_at
		FROM packages WHERE id = ? FOR UPDATE`
	var (
		p     model.TourPackage
		image sql.NullString
	)
	err := s.tx.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.Destination, &p.Description, &p.Price, &p.NumberOfNights, &p.Capacity,
		&p.StartDate, &p.EndDate, &p.CategoryID, &p.CreatedByID, &image, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if image.Valid {
		img := image.String
		p.Image = &img
	}
	return &p, nil
}

// FindReservation loads a reservation row inside the transaction.
func (s *txStore) FindReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT id, user_id, package_id, number_of_guests, status, created_at, updated_at
		FROM reservations WHERE id = ? FOR UPDATE`
	var r model.Reservation
	err := s.tx.QueryRowContext(ctx, q, id).Scan(
		&r.ID, &r.UserID, &r.PackageID, &r.NumberOfGuests, &r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// SumActiveGuests totals the guests of all non-cancelled reservations
// on a package. The caller holds the package row lock (FindPackage),
// so the sum cannot be invalidated by a concurrent admission.
func (s *txStore) SumActiveGuests(ctx context.Context, packageID uint64) (uint64, error) {
	const q = `SELECT COALESCE(SUM(number_of_guests), 0) FROM reservations
		WHERE package_id = ? AND status <> 'CANCELLED'`
	var sum uint64
	if err := s.tx.QueryRowContext(ctx, q, packageID).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

// AdjustCapacity applies delta to the package capacity as one atomic
// statement. Debits are conditional on the counter staying
// non-negative; a debit that would underflow affects zero rows and is
// reported as ok=false without touching anything.
func (s *txStore) AdjustCapacity(ctx context.Context, packageID uint64, delta int32) (bool, error) {
	if delta < 0 {
		n := uint32(-delta)
		res, err := s.tx.ExecContext(ctx,
			`UPDATE packages SET capacity = capacity - ? WHERE id = ? AND capacity >= ?`,
			n, packageID, n)
		if err != nil {
			return false, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		return affected == 1, nil
	}
	_, err := s.tx.ExecContext(ctx,
		`UPDATE packages SET capacity = capacity + ? WHERE id = ?`,
		uint32(delta), packageID)
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertReservation persists a new reservation and reads the row back
// to populate generated fields.
func (s *txStore) InsertReservation(ctx context.Context, r *model.Reservation) error {
	res, err := s.tx.ExecContext(ctx,
		`INSERT INTO reservations (user_id, package_id, number_of_guests, status) VALUES (?, ?, ?, ?)`,
		r.UserID, r.PackageID, r.NumberOfGuests, r.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = uint64(id)
	return s.tx.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM reservations WHERE id = ?`, r.ID,
	).Scan(&r.CreatedAt, &r.UpdatedAt)
}

// UpdateReservationStatus writes the reservation's new status.
func (s *txStore) UpdateReservationStatus(ctx context.Context, id uint64, status model.ReservationStatus) error {
	_, err := s.tx.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ?`, status, id)
	return err
}

// DeleteReservation removes the reservation row.
func (s *txStore) DeleteReservation(ctx context.Context, id uint64) error {
	_, err := s.tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	return err
}
