package user

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mkrupp/shopzone/internal/domain"
	"github.com/mkrupp/shopzone/internal/infra/logging"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteUserRepositoryConfig holds configuration for the SQLite user repository.
type SQLiteUserRepositoryConfig struct {
	DatabasePath string        `env:"DATABASE_PATH" default:"var/storage/authsvc.db"`
	BusyTimeout  time.Duration `env:"BUSY_TIMEOUT" default:"5s"`
}

// SQLiteUserRepository implements Repository on SQLite.
type SQLiteUserRepository struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // sqlite does not support concurrent writers
}

var _ Repository = (*SQLiteUserRepository)(nil)

// SQLiteUserRepositoryFactory returns a RepositoryFactory for cfg.
func SQLiteUserRepositoryFactory(cfg SQLiteUserRepositoryConfig) RepositoryFactory {
	return func(ctx context.Context) (Repository, error) {
		return NewSQLiteUserRepository(ctx, cfg)
	}
}

// NewSQLiteUserRepository opens the database and applies pending migrations.
func NewSQLiteUserRepository(ctx context.Context, cfg SQLiteUserRepositoryConfig) (*SQLiteUserRepository, error) {
	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir all: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	pragma := fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds())
	if _, err := db.ExecContext(ctx, pragma); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()

		return nil, err
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	repo := NewSQLiteUserRepositoryWithDB(db)
	repo.log = repo.log.With(logging.Group("db", "path", cfg.DatabasePath))
	repo.log.DebugContext(ctx, "user repository opened")

	return repo, nil
}

// NewSQLiteUserRepositoryWithDB wraps an already migrated database.
func NewSQLiteUserRepositoryWithDB(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{
		db:        db,
		log:       logging.GetLogger("repo.user.sqlite"),
		writeLock: new(sync.Mutex),
	}
}

// Migrate applies the embedded schema migrations to db.
func Migrate(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	// m.Close would close db, which the repository keeps using.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	return nil
}

func (r *SQLiteUserRepository) CreateAccount(ctx context.Context, account *domain.Account) (err error) {
	defer func() {
		if err != nil && !errors.Is(err, domain.ErrDuplicateAccount) {
			r.log.ErrorContext(ctx, "create account failed", "error", err)
		}
	}()

	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	now := time.Now().UTC().Truncate(time.Second)
	if account.Role == "" {
		account.Role = domain.RoleUser
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO accounts (name, email, password_hash, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		account.Name,
		account.Email,
		account.PasswordHash,
		account.Role,
		now.Unix(),
		now.Unix(),
	)
	if err != nil {
		var liteErr *sqlite.Error
		if errors.As(err, &liteErr) {
			switch liteErr.Code() {
			case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
				err = errors.Join(domain.ErrDuplicateAccount, err)
			}
		}

		return fmt.Errorf("insert account: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	account.ID = strconv.FormatInt(id, 10)
	account.CreatedAt = now
	account.UpdatedAt = now

	return nil
}

const selectAccount = "SELECT id, name, email, password_hash, role, created_at, updated_at FROM accounts"

func (r *SQLiteUserRepository) scanAccount(row *sql.Row) (*domain.Account, error) {
	var (
		account          domain.Account
		id               int64
		created, updated int64
	)

	err := row.Scan(&id, &account.Name, &account.Email, &account.PasswordHash, &account.Role, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Join(domain.ErrAccountNotFound, err)
	} else if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}

	account.ID = strconv.FormatInt(id, 10)
	account.CreatedAt = time.Unix(created, 0).UTC()
	account.UpdatedAt = time.Unix(updated, 0).UTC()

	return &account, nil
}

func (r *SQLiteUserRepository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	account, err := r.scanAccount(r.db.QueryRowContext(ctx, selectAccount+" WHERE email = ? COLLATE NOCASE", email))
	if err != nil {
		return nil, fmt.Errorf("query account by email: %w", err)
	}

	return account, nil
}

func (r *SQLiteUserRepository) GetAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("query account by id %q: %w", id, domain.ErrAccountNotFound)
	}

	account, err := r.scanAccount(r.db.QueryRowContext(ctx, selectAccount+" WHERE id = ?", rowID))
	if err != nil {
		return nil, fmt.Errorf("query account by id: %w", err)
	}

	return account, nil
}

func (r *SQLiteUserRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}
