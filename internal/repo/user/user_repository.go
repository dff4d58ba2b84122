package user

import (
	"context"

	"github.com/mkrupp/shopzone/internal/domain"
)

// Repository persists server-side accounts.
type Repository interface {
	// CreateAccount stores account and fills in its ID and timestamps.
	// Returns domain.ErrDuplicateAccount if the email is taken.
	CreateAccount(ctx context.Context, account *domain.Account) error

	// GetAccountByEmail returns domain.ErrAccountNotFound when no account matches.
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)

	// GetAccountByID returns domain.ErrAccountNotFound when no account matches.
	GetAccountByID(ctx context.Context, id string) (*domain.Account, error)

	Close() error
}

// RepositoryFactory opens a Repository.
type RepositoryFactory func(ctx context.Context) (Repository, error)

// Config selects the account store.
type Config struct {
	// Driver is "sqlite" or "mongo".
	Driver string                     `env:"DRIVER" default:"sqlite"`
	SQLite SQLiteUserRepositoryConfig `envPrefix:"SQLITE_"`
	Mongo  MongoUserRepositoryConfig  `envPrefix:"MONGO_"`
}

// Factory returns the RepositoryFactory selected by cfg.Driver.
func Factory(cfg Config) RepositoryFactory {
	if cfg.Driver == "mongo" {
		return MongoUserRepositoryFactory(cfg.Mongo)
	}

	return SQLiteUserRepositoryFactory(cfg.SQLite)
}
