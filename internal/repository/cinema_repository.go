// This file defines repository methods for partner cinemas: listing for
// customers, counting for the admin overview and archiving.
package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"errors"       // errors is used to define custom error values

	"github.com/khIbrahim/popcornon/internal/model"
)

// ErrCinemaNotFound is returned when a cinema cannot be found in the DB.
var ErrCinemaNotFound = errors.New("cinema not found")

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CinemaRepo encapsulates all database queries related to cinemas.
type CinemaRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewCinemaRepo constructs a CinemaRepo with the provided DB handle.
func NewCinemaRepo(db *sql.DB) *CinemaRepo {
	return &CinemaRepo{db: db}
}

const cinemaColumns = "id, partner_id, name, city, status, created_at, updated_at"

func scanCinema(row interface{ Scan(...any) error }) (*model.Cinema, error) {
	var (
		c         model.Cinema
		partnerID sql.NullInt64
	)
	if err := row.Scan(&c.ID, &partnerID, &c.Name, &c.City, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if partnerID.Valid {
		c.PartnerID = uint64(partnerID.Int64)
	}
	return &c, nil
}

// GetByID fetches a cinema by its ID.  It returns ErrCinemaNotFound if no
// row is found.
func (r *CinemaRepo) GetByID(ctx context.Context, id uint64) (*model.Cinema, error) {
	c, err := scanCinema(r.db.QueryRowContext(ctx, "SELECT "+cinemaColumns+" FROM cinemas WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCinemaNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListActive returns active cinemas ordered by name.  A non-empty city
// restricts the list to that city (case-insensitive under the default
// collation).
func (r *CinemaRepo) ListActive(ctx context.Context, city string) ([]*model.Cinema, error) {
	q := "SELECT " + cinemaColumns + " FROM cinemas WHERE status = ?"
	args := []any{model.CinemaActive}
	if city != "" {
		q += " AND city = ?"
		args = append(args, city)
	}
	q += " ORDER BY name, id"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Cinema{}
	for rows.Next() {
		c, err := scanCinema(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByStatus returns the number of active and archived cinemas.
func (r *CinemaRepo) CountByStatus(ctx context.Context) (active, archived int, err error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM cinemas GROUP BY status")
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status model.CinemaStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return 0, 0, err
		}
		switch status {
		case model.CinemaActive:
			active = n
		case model.CinemaArchived:
			archived = n
		}
	}
	return active, archived, rows.Err()
}

// Archive hides a cinema from customer listings.  It returns
// ErrCinemaNotFound when the cinema does not exist and ErrConflict when it
// is already archived.
func (r *CinemaRepo) Archive(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var status model.CinemaStatus
	if err = tx.QueryRowContext(ctx, "SELECT status FROM cinemas WHERE id = ? FOR UPDATE", id).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrCinemaNotFound
		}
		return err
	}
	if status == model.CinemaArchived {
		err = ErrConflict
		return err
	}
	if _, err = tx.ExecContext(ctx,
		"UPDATE cinemas SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		model.CinemaArchived, id); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// insertCinema creates an active cinema owned by partnerID inside an
// existing transaction.
func insertCinema(ctx context.Context, ex execer, partnerID uint64, name, city string) (uint64, error) {
	res, err := ex.ExecContext(ctx,
		"INSERT INTO cinemas (partner_id, name, city, status) VALUES (?, ?, ?, ?)",
		partnerID, name, city, model.CinemaActive)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}
