package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// StatsRepo aggregates dashboard statistics for staff. All queries are
// read-only; revenue counts CONFIRMED and COMPLETED reservations at
// the package's list price.
type StatsRepo struct {
	db *sql.DB
}

// NewStatsRepo returns a StatsRepo bound to the given database.
func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// StatusCount is the number of reservations in one status.
type StatusCount struct {
	Status string `json:"status"`
	Count  uint64 `json:"count"`
}

// MonthCount is the number of reservations created in one month.
type MonthCount struct {
	Month string `json:"month"` // "2025-07"
	Count uint64 `json:"count"`
}

// DestinationCount ranks destinations by reservation count.
type DestinationCount struct {
	Destination string `json:"destination"`
	Count       uint64 `json:"count"`
}

// CategoryRevenue is the revenue generated under one category.
type CategoryRevenue struct {
	Category string  `json:"category"`
	Revenue  float64 `json:"revenue"`
}

// Totals carries the headline numbers of the dashboard.
type Totals struct {
	Reservations uint64  `json:"total_reservations"`
	Packages     uint64  `json:"total_packages"`
	Users        uint64  `json:"total_users"`
	Revenue      float64 `json:"total_revenue"`
}

// Statistics is the full dashboard payload.
type Statistics struct {
	ReservationsByStatus []StatusCount      `json:"reservations_by_status"`
	ReservationsByMonth  []MonthCount       `json:"reservations_by_month"`
	TopDestinations      []DestinationCount `json:"top_destinations"`
	RevenueByCategory    []CategoryRevenue  `json:"revenue_by_category"`
	Totals               Totals             `json:"totals"`
}

// Collect runs all dashboard queries. When agentID is non-zero the
// results are scoped to packages created by that agent; zero means the
// admin-wide view.
func (r *StatsRepo) Collect(ctx context.Context, agentID uint64) (Statistics, error) {
	var out Statistics

	scope := ""
	args := []interface{}{}
	if agentID != 0 {
		scope = " AND p.created_by_id = ?"
		args = append(args, agentID)
	}

	byStatus := fmt.Sprintf(`SELECT r.status, COUNT(*) FROM reservations r
		JOIN packages p ON p.id = r.package_id WHERE 1=1%s GROUP BY r.status`, scope)
	if err := r.queryPairs(ctx, byStatus, args, func(rows *sql.Rows) error {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return err
		}
		out.ReservationsByStatus = append(out.ReservationsByStatus, sc)
		return nil
	}); err != nil {
		return Statistics{}, err
	}

	byMonth := fmt.Sprintf(`SELECT DATE_FORMAT(r.created_at, '%%Y-%%m') AS month, COUNT(*)
		FROM reservations r JOIN packages p ON p.id = r.package_id
		WHERE 1=1%s GROUP BY month ORDER BY month ASC`, scope)
	if err := r.queryPairs(ctx, byMonth, args, func(rows *sql.Rows) error {
		var mc MonthCount
		if err := rows.Scan(&mc.Month, &mc.Count); err != nil {
			return err
		}
		out.ReservationsByMonth = append(out.ReservationsByMonth, mc)
		return nil
	}); err != nil {
		return Statistics{}, err
	}

	topDest := fmt.Sprintf(`SELECT p.destination, COUNT(r.id) AS cnt
		FROM packages p LEFT JOIN reservations r ON r.package_id = p.id
		WHERE 1=1%s GROUP BY p.id, p.destination ORDER BY cnt DESC LIMIT 5`, scope)
	if err := r.queryPairs(ctx, topDest, args, func(rows *sql.Rows) error {
		var dc DestinationCount
		if err := rows.Scan(&dc.Destination, &dc.Count); err != nil {
			return err
		}
		out.TopDestinations = append(out.TopDestinations, dc)
		return nil
	}); err != nil {
		return Statistics{}, err
	}

	revenue := fmt.Sprintf(`SELECT c.name, COALESCE(SUM(p.price * r.number_of_guests), 0)
		FROM reservations r
		JOIN packages p ON p.id = r.package_id
		JOIN categories c ON c.id = p.category_id
		WHERE r.status IN ('CONFIRMED','COMPLETED')%s
		GROUP BY c.id, c.name`, scope)
	if err := r.queryPairs(ctx, revenue, args, func(rows *sql.Rows) error {
		var cr CategoryRevenue
		if err := rows.Scan(&cr.Category, &cr.Revenue); err != nil {
			return err
		}
		out.RevenueByCategory = append(out.RevenueByCategory, cr)
		return nil
	}); err != nil {
		return Statistics{}, err
	}

	totalRes := fmt.Sprintf(`SELECT COUNT(*) FROM reservations r
		JOIN packages p ON p.id = r.package_id WHERE 1=1%s`, scope)
	if err := r.db.QueryRowContext(ctx, totalRes, args...).Scan(&out.Totals.Reservations); err != nil {
		return Statistics{}, err
	}
	totalPkg := `SELECT COUNT(*) FROM packages p WHERE 1=1` + scope
	if err := r.db.QueryRowContext(ctx, totalPkg, args...).Scan(&out.Totals.Packages); err != nil {
		return Statistics{}, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&out.Totals.Users); err != nil {
		return Statistics{}, err
	}
	totalRev := fmt.Sprintf(`SELECT COALESCE(SUM(p.price * r.number_of_guests), 0)
		FROM reservations r JOIN packages p ON p.id = r.package_id
		WHERE r.status IN ('CONFIRMED','COMPLETED')%s`, scope)
	if err := r.db.QueryRowContext(ctx, totalRev, args...).Scan(&out.Totals.Revenue); err != nil {
		return Statistics{}, err
	}
	return out, nil
}

func (r *StatsRepo) queryPairs(ctx context.Context, query string, args []interface{}, scan func(*sql.Rows) error) error {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
