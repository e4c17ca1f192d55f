package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/khIbrahim/popcornon/internal/model"
	"github.com/khIbrahim/popcornon/internal/utils"
)

var ErrEmailExists = errors.New("email already exists")

const userColumns = "id,email,password_hash,role,is_active,created_at,updated_at"

// UserRepo stores back-office accounts: admins created by the seeder and
// partners linked to approved cinemas.  Lookups return sql.ErrNoRows for
// unknown accounts.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create hashes password with the given bcrypt cost and inserts an active
// account.  It returns ErrEmailExists when the address is taken.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	if role != model.RoleAdmin && role != model.RolePartner {
		return 0, fmt.Errorf("unknown role %q", role)
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role) VALUES (?,?,?)",
		normalizeEmail(email), hash, role)
	if isDuplicate(err) {
		return 0, ErrEmailExists
	}
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// GetByEmail looks an account up by its case-insensitive email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", normalizeEmail(email)))
}

func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// CountByRole counts active accounts holding role.
func (r *UserRepo) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE role=? AND is_active=1", role).Scan(&n)
	return n, err
}

// unusableHash never matches a bcrypt comparison.  Partner accounts created
// on approval keep it until a password is set for them.
const unusableHash = "!"

// linkPartner returns the id of the account owning email, creating an
// active PARTNER account inside the caller's transaction when none exists.
func linkPartner(ctx context.Context, ex execer, email string) (uint64, error) {
	res, err := ex.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role) VALUES (?,?,?) ON DUPLICATE KEY UPDATE id=LAST_INSERT_ID(id)",
		normalizeEmail(email), unusableHash, model.RolePartner)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}
