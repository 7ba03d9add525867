package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFeed_AnonymousViewer(t *testing.T) {
	env := setupServices(t)
	ctx := t.Context()
	author := env.newUser(t, "author@example.com", "Author")
	liker := env.newUser(t, "liker@example.com", "Liker")

	created, err := env.posts.CreatePost(ctx, author, hafezRequest(0, 1))
	require.NoError(t, err)
	_, err = env.posts.ToggleLike(ctx, liker, created.ID, true)
	require.NoError(t, err)

	posts, err := Collect(env.feed.ListFeed(ctx, ""))
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.False(t, posts[0].IsLiked)
	assert.Equal(t, 1, posts[0].LikeCount)
	assert.Equal(t, "Author", posts[0].AuthorName)
	assert.Equal(t, "just now", posts[0].PostedAgo)

	posts, err = Collect(env.feed.ListFeed(ctx, liker.ID))
	require.NoError(t, err)
	assert.True(t, posts[0].IsLiked)
}

func TestListFeed_NewestFirstAndRestartable(t *testing.T) {
	env := setupServices(t)
	ctx := t.Context()
	author := env.newUser(t, "author@example.com", "Author")

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	var ids []string
	for i := range 3 {
		env.posts.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		created, err := env.posts.CreatePost(ctx, author, hafezRequest(i))
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	seq := env.feed.ListFeed(ctx, author.ID)
	first, err := Collect(seq)
	require.NoError(t, err)
	second, err := Collect(seq)
	require.NoError(t, err)

	require.Len(t, first, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{first[0].ID, first[1].ID, first[2].ID})
	assert.Equal(t, len(first), len(second))
}

func TestListFeed_EarlyBreak(t *testing.T) {
	env := setupServices(t)
	ctx := t.Context()
	author := env.newUser(t, "author@example.com", "Author")
	for range 3 {
		_, err := env.posts.CreatePost(ctx, author, hafezRequest(0))
		require.NoError(t, err)
	}

	n := 0
	for _, err := range env.feed.ListFeed(ctx, "") {
		require.NoError(t, err)
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestListFeed_NeverReturnsPostsWithoutCouplets(t *testing.T) {
	env := setupServices(t)
	ctx := t.Context()
	author := env.newUser(t, "author@example.com", "Author")
	_, err := env.posts.CreatePost(ctx, author, hafezRequest(3))
	require.NoError(t, err)

	// Remove the couplet rows behind the service's back.
	_, err = env.rawDB(t).Exec("DELETE FROM post_couplets")
	require.NoError(t, err)

	posts, err := Collect(env.feed.ListFeed(ctx, ""))
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"seconds", now.Add(-30 * time.Second), "just now"},
		{"future", now.Add(time.Minute), "just now"},
		{"one minute", now.Add(-time.Minute), "1 minute ago"},
		{"minutes", now.Add(-45 * time.Minute), "45 minutes ago"},
		{"one hour", now.Add(-time.Hour), "1 hour ago"},
		{"hours", now.Add(-23 * time.Hour), "23 hours ago"},
		{"yesterday", time.Date(2026, 5, 9, 8, 0, 0, 0, time.UTC), "yesterday"},
		{"days", now.Add(-3 * 24 * time.Hour), "3 days ago"},
		{"six days", now.Add(-6 * 24 * time.Hour), "6 days ago"},
		{"absolute", now.Add(-8 * 24 * time.Hour), "2026-05-02"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeTime(tt.t, now))
		})
	}
}
