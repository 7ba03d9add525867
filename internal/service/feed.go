package service

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/heyrat/heyrat-server/internal/domain"
	"github.com/heyrat/heyrat-server/internal/store"
)

// FeedService assembles the shared feed.
type FeedService struct {
	store  store.Posts
	logger *slog.Logger
	now    func() time.Time
}

// NewFeedService creates a feed service.
func NewFeedService(posts store.Posts, logger *slog.Logger) *FeedService {
	return &FeedService{store: posts, logger: logger, now: time.Now}
}

// ListFeed yields the newest posts for viewerID ("" for anonymous), at most
// domain.FeedLimit of them. Every range over the result queries again.
func (s *FeedService) ListFeed(ctx context.Context, viewerID string) iter.Seq2[*domain.FeedPost, error] {
	return func(yield func(*domain.FeedPost, error) bool) {
		now := s.now()
		for post, err := range s.store.FeedPosts(ctx, viewerID, domain.FeedLimit) {
			if err != nil {
				yield(nil, storageError(s.logger, err))
				return
			}
			post.PostedAgo = RelativeTime(post.CreatedAt, now)
			if !yield(post, nil) {
				return
			}
		}
	}
}

// Collect drains a feed sequence, stopping at the first error.
func Collect(seq iter.Seq2[*domain.FeedPost, error]) ([]*domain.FeedPost, error) {
	posts := []*domain.FeedPost{}
	for p, err := range seq {
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// RelativeTime labels t relative to now: "just now", "N minutes ago",
// "N hours ago", "yesterday", "N days ago", then the plain date.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	}

	local := t.In(now.Location())
	if sameDay(local, now.AddDate(0, 0, -1)) {
		return "yesterday"
	}
	if d < 7*24*time.Hour {
		return plural(int(d/(24*time.Hour)), "day")
	}
	return local.Format(time.DateOnly)
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
