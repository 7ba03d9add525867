package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/heyrat/heyrat-server/internal/auth"
	"github.com/heyrat/heyrat-server/internal/corpus"
	"github.com/heyrat/heyrat-server/internal/corpus/corpustest"
	"github.com/heyrat/heyrat-server/internal/domain"
	"github.com/heyrat/heyrat-server/internal/logger"
	"github.com/heyrat/heyrat-server/internal/search"
	"github.com/heyrat/heyrat-server/internal/service"
	"github.com/heyrat/heyrat-server/internal/store/sqlite"
	"github.com/heyrat/heyrat-server/internal/validation"
)

// testServer is a Server over a temporary database and fixture corpus.
type testServer struct {
	*Server
	api    humatest.TestAPI
	tokens *auth.TokenService
}

// testEnvelope is the decoded response envelope.
type testEnvelope[T any] struct {
	Version  int               `json:"v"`
	Success  bool              `json:"success"`
	Data     T                 `json:"data"`
	Code     string            `json:"code"`
	Error    string            `json:"error"`
	Details  map[string]string `json:"details"`
	Redirect string            `json:"redirect"`
}

func setupTestServer(t *testing.T, configure ...func(*Deps)) *testServer {
	t.Helper()
	log := logger.Discard().Logger

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck // test cleanup

	lib, err := corpus.NewLibrary(corpustest.New(t), log)
	require.NoError(t, err)

	idx, err := search.New(log)
	require.NoError(t, err)
	require.NoError(t, idx.Rebuild(lib.Snapshot()))
	t.Cleanup(func() { idx.Close() }) //nolint:errcheck // test cleanup

	tokens, err := auth.NewTokenService(make([]byte, 32), time.Hour)
	require.NoError(t, err)

	hasher := &auth.PasswordHasher{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	v := validation.New()

	deps := Deps{
		Store:   st,
		Library: lib,
		Search:  idx,
		Services: &Services{
			Identity: service.NewIdentityService(st, hasher, tokens, v, log),
			Posts:    service.NewPostService(st, lib, v, log),
			Feed:     service.NewFeedService(st, log),
		},
		Options: Options{SessionDuration: time.Hour, DevLogin: true},
		Logger:  log,
	}
	for _, fn := range configure {
		fn(&deps)
	}

	srv := NewServer(deps)
	t.Cleanup(srv.Close)

	return &testServer{
		Server: srv,
		api:    humatest.Wrap(t, srv.API()),
		tokens: tokens,
	}
}

// signIn creates an account and returns an Authorization header for it.
func (ts *testServer) signIn(t *testing.T, email, displayName string) (*domain.User, string) {
	t.Helper()
	ctx := t.Context()

	user, err := ts.services.Identity.ResolveLocal(ctx, email)
	require.NoError(t, err)
	if displayName != "" {
		user, err = ts.services.Identity.SetDisplayName(ctx, user.ID, service.DisplayNameRequest{DisplayName: displayName})
		require.NoError(t, err)
	}

	token, _, err := ts.tokens.Issue(user.ID)
	require.NoError(t, err)
	return user, "Authorization: Bearer " + token
}

// get sends a plain request through the full router, for non-huma routes.
func (ts *testServer) get(path string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Add(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

func findCookie(resp *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range resp.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
