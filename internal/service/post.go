package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/heyrat/heyrat-server/internal/corpus"
	"github.com/heyrat/heyrat-server/internal/domain"
	domainerrors "github.com/heyrat/heyrat-server/internal/errors"
	"github.com/heyrat/heyrat-server/internal/id"
	"github.com/heyrat/heyrat-server/internal/normalize"
	"github.com/heyrat/heyrat-server/internal/store"
	"github.com/heyrat/heyrat-server/internal/validation"
)

// CorpusSource provides the current corpus snapshot.
type CorpusSource interface {
	Snapshot() *corpus.Snapshot
}

// PostService creates posts from corpus excerpts and records likes.
type PostService struct {
	store     store.Posts
	corpus    CorpusSource
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewPostService creates a post service.
func NewPostService(posts store.Posts, source CorpusSource, validator *validation.Validator, logger *slog.Logger) *PostService {
	return &PostService{
		store:     posts,
		corpus:    source,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// CreatePostRequest selects couplets from one section, with optional commentary.
type CreatePostRequest struct {
	PoetID    string                    `json:"poetId,omitempty" validate:"notblank"`
	BookID    string                    `json:"bookId,omitempty" validate:"notblank"`
	SectionID string                    `json:"sectionId,omitempty" validate:"notblank"`
	Body      *string                   `json:"body,omitempty"`
	Couplets  []domain.CoupletSelection `json:"couplets,omitempty" validate:"min=1"`
}

// CreatedPost identifies a new post.
type CreatedPost struct {
	ID      string `json:"id"`
	FeedURL string `json:"feedUrl"`
}

// CreatePost validates the selection against the corpus and stores the post
// with a snapshot of each selected couplet. Out-of-range and repeated indexes
// are dropped; the request fails only if nothing valid remains.
func (s *PostService) CreatePost(ctx context.Context, user *domain.User, req CreatePostRequest) (*CreatedPost, error) {
	if err := RequireDisplayName(user); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	loc, err := s.corpus.Snapshot().Section(req.PoetID, req.BookID, req.SectionID)
	if err != nil {
		return nil, err
	}

	couplets := selectCouplets(loc.Section, req.Couplets)
	if len(couplets) == 0 {
		return nil, domainerrors.ValidationWithDetails("no valid couplets selected",
			map[string]string{"couplets": "every index is out of range"})
	}

	postID, err := id.Generate(id.PrefixPost)
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		ID:           postID,
		UserID:       user.ID,
		PoetID:       loc.Poet.ID,
		BookID:       loc.Book.ID,
		SectionID:    loc.Section.ID,
		PoetName:     loc.Poet.Name,
		BookTitle:    loc.Book.Title,
		SectionTitle: loc.Section.Title,
		Body:         postBody(req.Body),
		CreatedAt:    s.now(),
		Couplets:     couplets,
	}

	if err := s.store.CreatePost(ctx, post); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthenticated("user no longer exists")
		}
		return nil, storageError(s.logger, err)
	}

	s.logger.Info("post created",
		"post_id", post.ID,
		"user_id", user.ID,
		"section", loc.Poet.ID+"/"+loc.Book.ID+"/"+loc.Section.ID,
		"couplets", len(couplets),
	)
	return &CreatedPost{ID: post.ID, FeedURL: post.FeedURL()}, nil
}

// selectCouplets resolves indexes against section, keeping the first
// occurrence of each in-range index in request order.
func selectCouplets(section *corpus.Section, selections []domain.CoupletSelection) []domain.PostCouplet {
	seen := make(map[int]struct{}, len(selections))
	out := make([]domain.PostCouplet, 0, len(selections))
	for _, sel := range selections {
		if _, dup := seen[sel.Index]; dup {
			continue
		}
		c, ok := section.Couplet(sel.Index)
		if !ok {
			continue
		}
		seen[sel.Index] = struct{}{}
		out = append(out, domain.PostCouplet{Index: sel.Index, First: c.First, Second: c.Second})
	}
	return out
}

// postBody trims and bounds commentary. Blank commentary is stored as NULL.
func postBody(body *string) *string {
	if body == nil {
		return nil
	}
	b := normalize.Truncate(*body, domain.MaxBodyRunes)
	if b == "" {
		return nil
	}
	return &b
}

// ToggleLike sets whether user likes postID and returns the recounted state.
// Repeating the same call is harmless.
func (s *PostService) ToggleLike(ctx context.Context, user *domain.User, postID string, liked bool) (*domain.LikeState, error) {
	if err := RequireDisplayName(user); err != nil {
		return nil, err
	}
	if !id.Valid(id.PrefixPost, postID) {
		return nil, domainerrors.ValidationWithDetails("invalid post id",
			map[string]string{"postId": "must be a post id"})
	}

	state, err := s.store.SetLike(ctx, postID, user.ID, liked, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("post not found")
	}
	if err != nil {
		return nil, storageError(s.logger, err)
	}
	return &state, nil
}

// GetPost returns one post as seen by viewerID ("" for anonymous).
func (s *PostService) GetPost(ctx context.Context, viewerID, postID string) (*domain.FeedPost, error) {
	if !id.Valid(id.PrefixPost, postID) {
		return nil, domainerrors.NotFound("post not found")
	}
	post, err := s.store.GetFeedPost(ctx, postID, viewerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("post not found")
	}
	if err != nil {
		return nil, storageError(s.logger, err)
	}
	post.PostedAgo = RelativeTime(post.CreatedAt, s.now())
	return post, nil
}
