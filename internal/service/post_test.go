package service

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyrat/heyrat-server/internal/corpus/corpustest"
	"github.com/heyrat/heyrat-server/internal/domain"
	domainerrors "github.com/heyrat/heyrat-server/internal/errors"
)

func ptr[T any](v T) *T { return &v }

func selections(indexes ...int) []domain.CoupletSelection {
	out := make([]domain.CoupletSelection, len(indexes))
	for i, idx := range indexes {
		out[i] = domain.CoupletSelection{Index: idx}
	}
	return out
}

func hafezRequest(indexes ...int) CreatePostRequest {
	return CreatePostRequest{
		PoetID:    corpustest.PoetID,
		BookID:    corpustest.BookID,
		SectionID: corpustest.SectionID,
		Couplets:  selections(indexes...),
	}
}

func TestCreatePost_DropsDuplicateAndOutOfRange(t *testing.T) {
	env := setupServices(t)
	ctx := t.Context()
	user := env.newUser(t, "poet@example.com", "Rahi")

	req := hafezRequest(0, 0, 99)
	req.Body = ptr("lovely")
	created, err := env.posts.CreatePost(ctx, user, req)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.ID, "post-"))
	assert.Equal(t, "/feed#"+created.ID, created.FeedURL)

	post, err := env.posts.GetPost(ctx, "", created.ID)
	require.NoError(t, err)
	require.Len(t, post.Couplets, 1)
	assert.Equal(t, 0, post.Couplets[0].Index)
	require.NotNil(t, post.Body)
	assert.Equal(t, "lovely", *post.Body)
	assert.Equal(t, 1, env.countRows(t, "post_couplets"))
}

func TestCreatePost_KeepsFirstOccurrenceOrder(t *testing.T) {
	env := setupServices(t)
	ctx := t.Context()
	user := env.newUser(t, "poet@example.com", "Rahi")

	created, err := env.posts.CreatePost(ctx, user, hafezRequest(7, 2, 7, -1, 2, 9))
	require.NoError(t, err)

	post, err := env.posts.GetPost(ctx, user.ID, created.ID)
	require.NoError(t, err)
	var got []int
	for _, c := range post.Couplets {
		got = append(got, c.Index)
	}
	// Stored rows come back ordered by index.
	assert.Equal(t, []int{2, 7, 9}, got)
}

func TestCreatePost_VerseTextComesFromCorpus(t *testing.T) {
	env := setupServices(t)
	ctx := t.Context()
	user := env.newUser(t, "poet@example.com", "Rahi")

	req := hafezRequest()
	req.Couplets = []domain.CoupletSelection{{Index: 6, VerseFirst: "forged", VerseSecond: "forged"}}
	created, err := env.posts.CreatePost(ctx, user, req)
	require.NoError(t, err)

	post, err := env.posts.GetPost(ctx, "", created.ID)
	require.NoError(t, err)
	first, second := corpustest.Verse(6)
	assert.Equal(t, first, post.Couplets[0].First)
	assert.Equal(t, second, post.Couplets[0].Second)
	assert.Equal(t, corpustest.PoetName, post.PoetName)
	assert.Equal(t, corpustest.BookTitle, post.BookTitle)
	assert.Equal(t, corpustest.SectionTitle, post.SectionTitle)
}

func TestCreatePost_AllOutOfRange(t *testing.T) {
	env := setupServices(t)
	user := env.newUser(t, "poet@example.com", "Rahi")

	_, err := env.posts.CreatePost(t.Context(), user, hafezRequest(10, 99, -3))
	require.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Zero(t, env.countRows(t, "posts"))
	assert.Zero(t, env.countRows(t, "post_couplets"))
}

func TestCreatePost_RequiresDisplayName(t *testing.T) {
	env := setupServices(t)
	user := env.newUser(t, "anon@example.com", "")

	_, err := env.posts.CreatePost(t.Context(), user, hafezRequest(0))
	require.ErrorIs(t, err, domainerrors.ErrSetupIncomplete)

	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, DisplayNamePath, de.Redirect)
	assert.Zero(t, env.countRows(t, "posts"))
}

func TestCreatePost_SetupCheckedBeforeValidation(t *testing.T) {
	env := setupServices(t)
	user := env.newUser(t, "anon@example.com", "")

	_, err := env.posts.CreatePost(t.Context(), user, CreatePostRequest{})
	assert.ErrorIs(t, err, domainerrors.ErrSetupIncomplete)
}

func TestCreatePost_Validation(t *testing.T) {
	env := setupServices(t)
	user := env.newUser(t, "poet@example.com", "Rahi")

	tests := []struct {
		name string
		req  CreatePostRequest
	}{
		{"missing poet", CreatePostRequest{BookID: "divan", SectionID: "ghazal-1", Couplets: selections(0)}},
		{"blank section", CreatePostRequest{PoetID: "hafez", BookID: "divan", SectionID: "  ", Couplets: selections(0)}},
		{"no couplets", CreatePostRequest{PoetID: "hafez", BookID: "divan", SectionID: "ghazal-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.posts.CreatePost(t.Context(), user, tt.req)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestCreatePost_UnknownLocation(t *testing.T) {
	env := setupServices(t)
	user := env.newUser(t, "poet@example.com", "Rahi")

	tests := []struct {
		name                string
		poet, book, section string
		want                string
	}{
		{"poet", "rumi", "divan", "ghazal-1", "شاعر"},
		{"book", "hafez", "masnavi", "ghazal-1", "کتاب"},
		{"section", "hafez", "divan", "ghazal-999", "بخش"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.posts.CreatePost(t.Context(), user, CreatePostRequest{
				PoetID: tt.poet, BookID: tt.book, SectionID: tt.section, Couplets: selections(0),
			})
			require.ErrorIs(t, err, domainerrors.ErrNotFound)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCreatePost_Body(t *testing.T) {
	env := setupServices(t)
	ctx := t.Context()
	user := env.newUser(t, "poet@example.com", "Rahi")

	req := hafezRequest(0)
	req.Body = ptr("   ")
	created, err := env.posts.CreatePost(ctx, user, req)
	require.NoError(t, err)
	post, err := env.posts.GetPost(ctx, "", created.ID)
	require.NoError(t, err)
	assert.Nil(t, post.Body, "blank body is stored as null")

	req.Body = ptr(strings.Repeat("ش", domain.MaxBodyRunes+50))
	created, err = env.posts.CreatePost(ctx, user, req)
	require.NoError(t, err)
	post, err = env.posts.GetPost(ctx, "", created.ID)
	require.NoError(t, err)
	require.NotNil(t, post.Body)
	assert.Equal(t, domain.MaxBodyRunes, len([]rune(*post.Body)))
}

func TestToggleLike_Idempotent(t *testing.T) {
	env := setupServices(t)
	ctx := t.Context()
	author := env.newUser(t, "author@example.com", "Author")
	reader := env.newUser(t, "reader@example.com", "Reader")

	created, err := env.posts.CreatePost(ctx, author, hafezRequest(0))
	require.NoError(t, err)

	state, err := env.posts.ToggleLike(ctx, reader, created.ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.LikeState{LikeCount: 1, Liked: true}, *state)

	state, err = env.posts.ToggleLike(ctx, reader, created.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, state.LikeCount)
	assert.Equal(t, 1, env.countRows(t, "likes"))
}

func TestToggleLike_UnlikeWithoutLike(t *testing.T) {
	env := setupServices(t)
	ctx := t.Context()
	author := env.newUser(t, "author@example.com", "Author")
	reader := env.newUser(t, "reader@example.com", "Reader")

	created, err := env.posts.CreatePost(ctx, author, hafezRequest(0))
	require.NoError(t, err)
	_, err = env.posts.ToggleLike(ctx, author, created.ID, true)
	require.NoError(t, err)

	state, err := env.posts.ToggleLike(ctx, reader, created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, domain.LikeState{LikeCount: 1, Liked: false}, *state)
}

func TestToggleLike_ConcurrentUsers(t *testing.T) {
	env := setupServices(t)
	ctx := t.Context()
	author := env.newUser(t, "author@example.com", "Author")
	created, err := env.posts.CreatePost(ctx, author, hafezRequest(0))
	require.NoError(t, err)

	names := []string{"Ali", "Bahar", "Cyrus", "Dara", "Elham", "Farid"}
	users := make([]*domain.User, len(names))
	for i, n := range names {
		users[i] = env.newUser(t, strings.ToLower(n)+"@example.com", n)
	}

	var wg sync.WaitGroup
	for _, u := range users {
		// Double clicks: each user likes twice at once.
		for range 2 {
			wg.Go(func() {
				_, err := env.posts.ToggleLike(ctx, u, created.ID, true)
				assert.NoError(t, err)
			})
		}
	}
	wg.Wait()

	post, err := env.posts.GetPost(ctx, "", created.ID)
	require.NoError(t, err)
	assert.Equal(t, len(users), post.LikeCount)
}

func TestToggleLike_Errors(t *testing.T) {
	env := setupServices(t)
	ctx := t.Context()
	named := env.newUser(t, "named@example.com", "Named")
	unnamed := env.newUser(t, "unnamed@example.com", "")

	_, err := env.posts.ToggleLike(ctx, named, "not-a-post", true)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = env.posts.ToggleLike(ctx, named, "post-AAAAAAAAAAAAAAAAAAAAA", true)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = env.posts.ToggleLike(ctx, unnamed, "post-AAAAAAAAAAAAAAAAAAAAA", true)
	assert.ErrorIs(t, err, domainerrors.ErrSetupIncomplete)
}
