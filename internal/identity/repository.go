package identity

import (
	"context"
	"strings"

	"github.com/healthreach/platform/internal/shared/errors"
	"github.com/healthreach/platform/internal/shared/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides database operations for operator accounts
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new identity repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new operator account
func (r *Repository) Create(ctx context.Context, o *Operator) error {
	query := `
		INSERT INTO operators (id, email, password_hash, full_name, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, o.ID, o.Email, o.PasswordHash, o.FullName, o.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("an account with this email already exists")
		}
		return errors.Wrap(err, "failed to create operator")
	}

	return nil
}

// GetByEmail retrieves an operator by email, lowercased
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Operator, error) {
	query := `
		SELECT id, email, password_hash, full_name, created_at
		FROM operators
		WHERE email = $1`

	o := &Operator{}
	err := r.pool.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))).
		Scan(&o.ID, &o.Email, &o.PasswordHash, &o.FullName, &o.CreatedAt)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("operator", email)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get operator")
	}

	return o, nil
}

// Get retrieves an operator by ID
func (r *Repository) Get(ctx context.Context, id types.ID) (*Operator, error) {
	query := `
		SELECT id, email, password_hash, full_name, created_at
		FROM operators
		WHERE id = $1`

	o := &Operator{}
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&o.ID, &o.Email, &o.PasswordHash, &o.FullName, &o.CreatedAt)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("operator", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get operator")
	}

	return o, nil
}
