package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyrat/heyrat-server/internal/corpus/corpustest"
	"github.com/heyrat/heyrat-server/internal/domain"
	"github.com/heyrat/heyrat-server/internal/service"
)

func postBody(indexes ...int) map[string]any {
	couplets := make([]map[string]any, 0, len(indexes))
	for _, i := range indexes {
		couplets = append(couplets, map[string]any{"coupletIndex": i})
	}
	return map[string]any{
		"poetId":    corpustest.PoetID,
		"bookId":    corpustest.BookID,
		"sectionId": corpustest.SectionID,
		"couplets":  couplets,
	}
}

func TestCreatePost_Success(t *testing.T) {
	ts := setupTestServer(t)
	_, auth := ts.signIn(t, "poet@example.com", "Reader")

	resp := ts.api.Post("/api/posts", auth, postBody(0, 0, 99))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	env := decode[service.CreatedPost](t, resp)
	assert.Equal(t, 1, env.Version)
	assert.True(t, env.Success)
	assert.True(t, strings.HasPrefix(env.Data.ID, "post-"))
	assert.Equal(t, "/feed#"+env.Data.ID, env.Data.FeedURL)
	assert.Equal(t, "/api/posts/"+env.Data.ID, resp.Header().Get("Location"))

	get := ts.api.Get("/api/posts/"+env.Data.ID, auth)
	require.Equal(t, http.StatusOK, get.Code)
	post := decode[domain.FeedPost](t, get)
	require.Len(t, post.Data.Couplets, 1)
	first, second := corpustest.Verse(0)
	assert.Equal(t, first, post.Data.Couplets[0].First)
	assert.Equal(t, second, post.Data.Couplets[0].Second)
	assert.Equal(t, "Reader", post.Data.AuthorName)
}

func TestCreatePost_Unauthenticated(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/posts", postBody(0))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	env := decode[any](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "UNAUTHENTICATED", env.Code)
}

func TestCreatePost_InvalidTokenIsAnonymous(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/posts", "Authorization: Bearer not-a-token", postBody(0))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCreatePost_SetupIncomplete(t *testing.T) {
	ts := setupTestServer(t)
	_, auth := ts.signIn(t, "new@example.com", "")

	resp := ts.api.Post("/api/posts", auth, postBody(0))
	assert.Equal(t, http.StatusConflict, resp.Code)
	env := decode[any](t, resp)
	assert.Equal(t, "SETUP_INCOMPLETE", env.Code)
	assert.Equal(t, "/profile/display-name", env.Redirect)
	assert.NotEmpty(t, env.Error)
}

func TestCreatePost_Validation(t *testing.T) {
	ts := setupTestServer(t)
	_, auth := ts.signIn(t, "poet@example.com", "Reader")

	tests := []struct {
		name string
		body map[string]any
	}{
		{"no couplets", postBody()},
		{"all out of range", postBody(50, -1)},
		{"missing poet", func() map[string]any { b := postBody(0); delete(b, "poetId"); return b }()},
		{"wrong couplet type", map[string]any{
			"poetId": "hafez", "bookId": "divan", "sectionId": "ghazal-1",
			"couplets": []any{map[string]any{"coupletIndex": "zero"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/posts", auth, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
			env := decode[any](t, resp)
			assert.Equal(t, "VALIDATION_ERROR", env.Code)
		})
	}
}

func TestCreatePost_UnknownSection(t *testing.T) {
	ts := setupTestServer(t)
	_, auth := ts.signIn(t, "poet@example.com", "Reader")

	body := postBody(0)
	body["sectionId"] = "nope"
	resp := ts.api.Post("/api/posts", auth, body)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	env := decode[any](t, resp)
	assert.Equal(t, "NOT_FOUND", env.Code)
	assert.Equal(t, "بخش یافت نشد", env.Error)
}

func TestGetPost_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/posts/post-AAAAAAAAAAAAAAAAAAAAA")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestLikes(t *testing.T) {
	ts := setupTestServer(t)
	_, authorAuth := ts.signIn(t, "author@example.com", "Author")
	_, likerAuth := ts.signIn(t, "liker@example.com", "Liker")

	created := decode[service.CreatedPost](t, ts.api.Post("/api/posts", authorAuth, postBody(1)))
	path := "/api/posts/" + created.Data.ID + "/likes"

	for range 2 {
		resp := ts.api.Post(path, likerAuth)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		env := decode[domain.LikeState](t, resp)
		assert.Equal(t, domain.LikeState{LikeCount: 1, Liked: true}, env.Data)
	}

	resp := ts.api.Post(path, authorAuth)
	assert.Equal(t, 2, decode[domain.LikeState](t, resp).Data.LikeCount)

	for range 2 {
		resp := ts.api.Delete(path, likerAuth)
		require.Equal(t, http.StatusOK, resp.Code)
		env := decode[domain.LikeState](t, resp)
		assert.Equal(t, domain.LikeState{LikeCount: 1, Liked: false}, env.Data)
	}
}

func TestLikes_Errors(t *testing.T) {
	ts := setupTestServer(t)
	_, auth := ts.signIn(t, "liker@example.com", "Liker")
	_, incomplete := ts.signIn(t, "new@example.com", "")

	tests := []struct {
		name       string
		path       string
		headers    []any
		wantStatus int
		wantCode   string
	}{
		{"anonymous", "/api/posts/post-AAAAAAAAAAAAAAAAAAAAA/likes", nil, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"bad id", "/api/posts/not-a-post/likes", []any{auth}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown post", "/api/posts/post-AAAAAAAAAAAAAAAAAAAAA/likes", []any{auth}, http.StatusNotFound, "NOT_FOUND"},
		{"setup incomplete", "/api/posts/post-AAAAAAAAAAAAAAAAAAAAA/likes", []any{incomplete}, http.StatusConflict, "SETUP_INCOMPLETE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post(tt.path, tt.headers...)
			assert.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			assert.Equal(t, tt.wantCode, decode[any](t, resp).Code)
		})
	}
}

func TestWriteRateLimit(t *testing.T) {
	ts := setupTestServer(t, func(d *Deps) { d.Options.WritePerMinute = 2 })
	_, auth := ts.signIn(t, "poet@example.com", "Reader")

	for range 2 {
		require.Equal(t, http.StatusCreated, ts.api.Post("/api/posts", auth, postBody(0)).Code)
	}
	resp := ts.api.Post("/api/posts", auth, postBody(0))
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	env := decode[any](t, resp)
	assert.Equal(t, "RATE_LIMITED", env.Code)
	assert.Equal(t, 1, env.Version)
}

func TestProtectedWrites_AuthCheckedBeforeBody(t *testing.T) {
	ts := setupTestServer(t)
	_, incomplete := ts.signIn(t, "new@example.com", "")
	malformed := map[string]any{"poetId": "x", "couplets": []any{map[string]any{}}}

	tests := []struct {
		name         string
		method       string
		path         string
		headers      []any
		wantStatus   int
		wantCode     string
		wantRedirect string
	}{
		{"anonymous create", http.MethodPost, "/api/posts", nil,
			http.StatusUnauthorized, "UNAUTHENTICATED", ""},
		{"incomplete create", http.MethodPost, "/api/posts", []any{incomplete},
			http.StatusConflict, "SETUP_INCOMPLETE", "/profile/display-name"},
		{"anonymous like with bad id", http.MethodPost, "/api/posts/not-a-post/likes", nil,
			http.StatusUnauthorized, "UNAUTHENTICATED", ""},
		{"anonymous unlike", http.MethodDelete, "/api/posts/post-AAAAAAAAAAAAAAAAAAAAA/likes", nil,
			http.StatusUnauthorized, "UNAUTHENTICATED", ""},
		{"anonymous display name", http.MethodPut, "/api/me/display-name", nil,
			http.StatusUnauthorized, "UNAUTHENTICATED", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(append([]any{}, tt.headers...), malformed)
			resp := ts.api.Do(tt.method, tt.path, args...)
			assert.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			env := decode[any](t, resp)
			assert.Equal(t, tt.wantCode, env.Code)
			assert.Equal(t, tt.wantRedirect, env.Redirect)
		})
	}
}
