package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserRepository defines the interface for account persistence.
type UserRepository interface {
	// Create inserts a new account. The ID is generated if empty.
	// Returns ErrEmailExists when the email is already registered.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if no such user exists.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail retrieves a user by email, matched case-insensitively.
	// Returns ErrUserNotFound if no such user exists.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Count returns the total number of accounts.
	Count(ctx context.Context) (int, error)
}

// SQLiteUserRepository implements UserRepository using SQLite.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed user repository.
func NewUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

const userColumns = "id, email, name, password_hash, role, created_at"

// Create inserts a new account. The ID is generated if empty.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = "usr-" + uuid.NewString()[:8]
	}
	user.Email = strings.ToLower(user.Email)

	now := time.Now().UTC()
	user.CreatedAt = now.Truncate(time.Second)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Name, user.PasswordHash,
		string(user.Role), user.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their unique ID.
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getUser(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

// GetByEmail retrieves a user by email, matched case-insensitively.
func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUser(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ?", strings.ToLower(email))
}

// Count returns the total number of accounts.
func (r *SQLiteUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// getUser runs a single-row user query.
func (r *SQLiteUserRepository) getUser(ctx context.Context, query string, arg any) (*User, error) {
	var (
		u         User
		role      string
		createdAt string
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}

	u.Role = Role(role)
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled
	return &u, nil
}

// isUniqueViolation reports whether an SQLite error is a UNIQUE
// constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
