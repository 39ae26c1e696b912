package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/tour-agency-booking/internal/model"
	"github.com/iliyamo/tour-agency-booking/internal/utils"
)

// UserRepo persists application users.
type UserRepo struct{ DB *sql.DB }

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userSelect = `SELECT id, first_name, last_name, email, password_hash, role, is_active,
	created_at, updated_at FROM users`

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, firstName, lastName, email, password string, role model.Role, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (first_name, last_name, email, password_hash, role) VALUES (?,?,?,?,?)`,
		firstName, lastName, email, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx, userSelect+` WHERE email=? LIMIT 1`, email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx, userSelect+` WHERE id=? LIMIT 1`, id))
}

// List returns all users, newest first. Admin view.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, userSelect+` ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
			&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// CountOwnedResources returns how many reservations the user has made
// and how many packages they created. A user with either cannot be
// deleted or deactivated; the referential guard lives at the
// application layer, not only in the schema.
func (r *UserRepo) CountOwnedResources(ctx context.Context, id uint64) (reservations, packages uint64, err error) {
	if err = r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE user_id = ?`, id).Scan(&reservations); err != nil {
		return 0, 0, err
	}
	if err = r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM packages WHERE created_by_id = ?`, id).Scan(&packages); err != nil {
		return 0, 0, err
	}
	return reservations, packages, nil
}

// UpdateRoleActive changes a user's role and/or active flag. Nil
// pointers leave the corresponding column untouched.
func (r *UserRepo) UpdateRoleActive(ctx context.Context, id uint64, role *model.Role, isActive *bool) error {
	sets := make([]string, 0, 2)
	args := make([]interface{}, 0, 3)
	if role != nil {
		sets = append(sets, "role = ?")
		args = append(args, *role)
	}
	if isActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *isActive)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes a user row. Callers must run the owned-resources
// guard first.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
