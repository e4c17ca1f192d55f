// This file holds the partner request queue: cinemas applying to join
// PopcornON and the admin decisions on them.  Requests double as the
// "recent activity" feed of the admin overview.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/khIbrahim/popcornon/internal/model"
)

// ErrRequestNotFound is returned when a partner request does not exist.
var ErrRequestNotFound = errors.New("partner request not found")

// PartnerRequestRepo encapsulates queries on the partner_requests table.
type PartnerRequestRepo struct {
	db *sql.DB
}

func NewPartnerRequestRepo(db *sql.DB) *PartnerRequestRepo {
	return &PartnerRequestRepo{db: db}
}

const requestColumns = "id, cinema_name, city, contact_email, status, created_at, decided_at, decided_by"

func scanRequest(row interface{ Scan(...any) error }) (*model.Activity, error) {
	var (
		a         model.Activity
		decidedAt sql.NullTime
		decidedBy sql.NullInt64
	)
	if err := row.Scan(&a.ID, &a.CinemaName, &a.City, &a.ContactEmail, &a.Status, &a.CreatedAt, &decidedAt, &decidedBy); err != nil {
		return nil, err
	}
	if decidedAt.Valid {
		t := decidedAt.Time
		a.DecidedAt = &t
	}
	if decidedBy.Valid {
		id := uint64(decidedBy.Int64)
		a.DecidedBy = &id
	}
	return &a, nil
}

// Create stores a new pending request and fills in its ID, status and
// creation time.
func (r *PartnerRequestRepo) Create(ctx context.Context, a *model.Activity) error {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO partner_requests (cinema_name, city, contact_email, status, created_at) VALUES (?, ?, ?, ?, ?)",
		a.CinemaName, a.City, a.ContactEmail, model.StatusPending, now)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	a.Status = model.StatusPending
	a.CreatedAt = now
	return nil
}

// GetByID fetches one request.
func (r *PartnerRequestRepo) GetByID(ctx context.Context, id uint64) (*model.Activity, error) {
	a, err := scanRequest(r.db.QueryRowContext(ctx, "SELECT "+requestColumns+" FROM partner_requests WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return a, nil
}

// Recent returns the newest requests first.  An empty status matches all.
func (r *PartnerRequestRepo) Recent(ctx context.Context, limit int, status model.RequestStatus) ([]model.Activity, error) {
	q := "SELECT " + requestColumns + " FROM partner_requests"
	var args []any
	if status != "" {
		q += " WHERE status = ?"
		args = append(args, status)
	}
	q += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Activity{}
	for rows.Next() {
		a, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountPending returns how many requests await review.
func (r *PartnerRequestRepo) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM partner_requests WHERE status = ?", model.StatusPending).Scan(&n)
	return n, err
}

// DailyCounts returns, per UTC date (YYYY-MM-DD) since the given time, the
// number of requests received and the number of requests approved.
func (r *PartnerRequestRepo) DailyCounts(ctx context.Context, since time.Time) (requests, approvals map[string]int, err error) {
	requests, err = r.countByDay(ctx,
		`SELECT DATE_FORMAT(created_at, '%Y-%m-%d') AS d, COUNT(*)
		 FROM partner_requests WHERE created_at >= ? GROUP BY d`, since)
	if err != nil {
		return nil, nil, err
	}
	approvals, err = r.countByDay(ctx,
		`SELECT DATE_FORMAT(decided_at, '%Y-%m-%d') AS d, COUNT(*)
		 FROM partner_requests WHERE status = 'approved' AND decided_at >= ? GROUP BY d`, since)
	if err != nil {
		return nil, nil, err
	}
	return requests, approvals, nil
}

func (r *PartnerRequestRepo) countByDay(ctx context.Context, q string, since time.Time) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, q, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var (
			day string
			n   int
		)
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		out[day] = n
	}
	return out, rows.Err()
}

// Decide records an admin decision on a pending request.  Approving a
// request links (or creates) the PARTNER account for its contact email and
// creates the matching active cinema in the same transaction.
// It returns ErrRequestNotFound for unknown ids and ErrConflict when the
// request was already decided.
func (r *PartnerRequestRepo) Decide(ctx context.Context, id uint64, status model.RequestStatus, adminID uint64) (*model.Activity, error) {
	if status != model.StatusApproved && status != model.StatusRejected {
		return nil, errors.New("decision must be approved or rejected")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	a, err := scanRequest(tx.QueryRowContext(ctx, "SELECT "+requestColumns+" FROM partner_requests WHERE id = ? FOR UPDATE", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if a.Status != model.StatusPending {
		return nil, ErrConflict
	}

	now := time.Now().UTC().Truncate(time.Second)
	if _, err := tx.ExecContext(ctx,
		"UPDATE partner_requests SET status = ?, decided_at = ?, decided_by = ? WHERE id = ?",
		status, now, adminID, id); err != nil {
		return nil, err
	}
	if status == model.StatusApproved {
		partnerID, err := linkPartner(ctx, tx, a.ContactEmail)
		if err != nil {
			return nil, err
		}
		if _, err := insertCinema(ctx, tx, partnerID, a.CinemaName, a.City); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	a.Status = status
	a.DecidedAt = &now
	a.DecidedBy = &adminID
	return a, nil
}
