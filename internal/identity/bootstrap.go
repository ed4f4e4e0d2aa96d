package identity

import (
	"context"

	"github.com/healthreach/platform/internal/shared/config"
	"github.com/healthreach/platform/internal/shared/errors"
)

// Bootstrap seeds the first operator account from config. It does
// nothing when no bootstrap email is configured or when the account
// already exists.
func Bootstrap(ctx context.Context, repo *Repository, cfg config.AuthConfig) error {
	if cfg.BootstrapEmail == "" || cfg.BootstrapPassword == "" {
		return nil
	}

	_, err := repo.GetByEmail(ctx, cfg.BootstrapEmail)
	if err == nil {
		return nil
	}
	if !errors.IsNotFound(err) {
		return err
	}

	operator, verr := NewOperator(RegisterOperatorRequest{
		Email:    cfg.BootstrapEmail,
		Password: cfg.BootstrapPassword,
		FullName: cfg.BootstrapName,
	})
	if verr != nil {
		return verr
	}

	return repo.Create(ctx, operator)
}
