package identity

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/healthreach/platform/internal/shared/errors"
	"github.com/healthreach/platform/internal/shared/types"
)

// Operator is a staff account that can sign in to the platform
type Operator struct {
	ID           types.ID  `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginRequest is the payload for the login endpoint
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterOperatorRequest is the payload for creating an operator account
type RegisterOperatorRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

const minPasswordLength = 8

// NewOperator builds an operator account with a bcrypt password hash
func NewOperator(req RegisterOperatorRequest) (*Operator, *errors.AppError) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	details := map[string]string{}
	if email == "" || !strings.Contains(email, "@") {
		details["email"] = "a valid email address is required"
	}
	if len(req.Password) < minPasswordLength {
		details["password"] = "password must be at least 8 characters"
	}
	if strings.TrimSpace(req.FullName) == "" {
		details["full_name"] = "full name is required"
	}
	if len(details) > 0 {
		return nil, errors.Validation("invalid operator details", details)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	return &Operator{
		ID:           types.NewID(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		CreatedAt:    time.Now(),
	}, nil
}

// CheckPassword reports whether the candidate matches the stored hash
func (o *Operator) CheckPassword(candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(candidate)) == nil
}
