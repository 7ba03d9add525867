package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/heyrat/heyrat-server/internal/auth"
	"github.com/heyrat/heyrat-server/internal/corpus"
	"github.com/heyrat/heyrat-server/internal/corpus/corpustest"
	"github.com/heyrat/heyrat-server/internal/domain"
	"github.com/heyrat/heyrat-server/internal/logger"
	"github.com/heyrat/heyrat-server/internal/store/sqlite"
	"github.com/heyrat/heyrat-server/internal/validation"
)

// testEnv bundles the services over a temporary database and corpus.
type testEnv struct {
	store    *sqlite.Store
	dbPath   string
	library  *corpus.Library
	identity *IdentityService
	posts    *PostService
	feed     *FeedService
	tokens   *auth.TokenService
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()
	log := logger.Discard().Logger

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := sqlite.Open(dbPath, log)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck // test cleanup

	lib, err := corpus.NewLibrary(corpustest.New(t), log)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(make([]byte, 32), time.Hour)
	require.NoError(t, err)

	hasher := &auth.PasswordHasher{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	v := validation.New()

	return &testEnv{
		store:    s,
		dbPath:   dbPath,
		library:  lib,
		identity: NewIdentityService(s, hasher, tokens, v, log),
		posts:    NewPostService(s, lib, v, log),
		feed:     NewFeedService(s, log),
		tokens:   tokens,
	}
}

// newUser creates a local account, optionally with a display name.
func (e *testEnv) newUser(t *testing.T, email, displayName string) *domain.User {
	t.Helper()
	ctx := context.Background()

	u, err := e.identity.ResolveLocal(ctx, email)
	require.NoError(t, err)
	if displayName == "" {
		return u
	}
	u, err = e.identity.SetDisplayName(ctx, u.ID, DisplayNameRequest{DisplayName: displayName})
	require.NoError(t, err)
	return u
}

// rawDB opens a separate connection to the test database.
func (e *testEnv) rawDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", e.dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup
	return db
}

func (e *testEnv) countRows(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, e.rawDB(t).QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
