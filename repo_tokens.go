package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// tokenRowID pins the store to a single row: one session per client context.
const tokenRowID = 1

type tokenRecord struct {
	bun.BaseModel `bun:"table:auth_tokens,alias:tok"`
	ID            int64     `bun:"id,pk"`
	AccessToken   string    `bun:"access_token,notnull"`
	RefreshToken  string    `bun:"refresh_token,notnull"`
	IssuedAt      time.Time `bun:"issued_at,notnull"`
}

var _ TokenStore = (*BunTokenStore)(nil)

// BunTokenStore persists the token pair through Bun so a restarted client
// resumes its session. Set replaces the whole row in one statement, so no
// reader ever observes a half-written pair.
type BunTokenStore struct {
	db  *bun.DB
	now func() time.Time
}

// NewBunTokenStore wraps an existing Bun handle. Call Init once before use.
func NewBunTokenStore(db *bun.DB) *BunTokenStore {
	return &BunTokenStore{db: db, now: time.Now}
}

// OpenSQLiteTokenDB opens (or creates) the SQLite file backing the durable
// token store. Pass "file::memory:?cache=shared" for an in-memory database.
func OpenSQLiteTokenDB(path string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to open token database")
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// Init creates the auth_tokens table if it does not exist yet.
func (s *BunTokenStore) Init(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*tokenRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create auth_tokens table")
	}
	return nil
}

// Set overwrites both tokens as one unit.
func (s *BunTokenStore) Set(ctx context.Context, access, refresh string) error {
	rec := &tokenRecord{
		ID:           tokenRowID,
		AccessToken:  access,
		RefreshToken: refresh,
		IssuedAt:     s.now(),
	}

	if _, err := s.db.NewInsert().
		Model(rec).
		On("CONFLICT (id) DO UPDATE").
		Set("access_token = EXCLUDED.access_token").
		Set("refresh_token = EXCLUDED.refresh_token").
		Set("issued_at = EXCLUDED.issued_at").
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to persist token pair")
	}

	return nil
}

func (s *BunTokenStore) AccessToken(ctx context.Context) (string, error) {
	rec, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", nil
	}
	return rec.AccessToken, nil
}

func (s *BunTokenStore) RefreshToken(ctx context.Context) (string, error) {
	rec, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", nil
	}
	return rec.RefreshToken, nil
}

func (s *BunTokenStore) IssuedAt(ctx context.Context) (time.Time, error) {
	rec, err := s.load(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if rec == nil {
		return time.Time{}, nil
	}
	return rec.IssuedAt, nil
}

// Clear removes the stored pair. Idempotent: clearing an empty store is not
// an error.
func (s *BunTokenStore) Clear(ctx context.Context) error {
	if _, err := s.db.NewDelete().
		Model((*tokenRecord)(nil)).
		Where("id = ?", tokenRowID).
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to clear token pair")
	}
	return nil
}

func (s *BunTokenStore) load(ctx context.Context) (*tokenRecord, error) {
	rec := new(tokenRecord)
	err := s.db.NewSelect().
		Model(rec).
		Where("id = ?", tokenRowID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to read token pair")
	}
	return rec, nil
}
