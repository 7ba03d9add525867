// Package store defines the persistence contract for users, posts and likes.
package store

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/heyrat/heyrat-server/internal/domain"
)

// Sentinel errors returned by store implementations.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrDisplayNameSet = errors.New("display name already set")
)

// Users persists accounts. Uniqueness of google id, email and display name
// is enforced by the storage layer.
type Users interface {
	// CreateUser inserts a user. Returns ErrAlreadyExists on a unique conflict.
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	// GetUserByEmail looks up by normalized email.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindUserByGoogleIDOrEmail returns the account matching either key,
	// preferring a google id match.
	FindUserByGoogleIDOrEmail(ctx context.Context, googleID, email string) (*domain.User, error)
	// LinkGoogleID sets the google id of a user that has none and drops any
	// password, since the email behind it was never verified.
	LinkGoogleID(ctx context.Context, userID, googleID string, at time.Time) error
	// SetDisplayName sets a display name once. Returns ErrDisplayNameSet if one
	// is already present and ErrAlreadyExists if key is taken.
	SetDisplayName(ctx context.Context, userID, name, key string, at time.Time) error
	TouchLogin(ctx context.Context, userID string, at time.Time) error
}

// Posts persists posts, their couplet snapshots and likes.
type Posts interface {
	// CreatePost writes the post and all its couplets in one transaction.
	CreatePost(ctx context.Context, post *domain.Post) error
	// SetLike records or removes a like and returns the recounted state.
	// Returns ErrNotFound when the post does not exist.
	SetLike(ctx context.Context, postID, userID string, liked bool, at time.Time) (domain.LikeState, error)
	// GetFeedPost returns one post as seen by viewerID ("" for anonymous).
	GetFeedPost(ctx context.Context, postID, viewerID string) (*domain.FeedPost, error)
	// FeedPosts yields the newest posts that have couplets, newest first.
	// The query runs when iteration starts.
	FeedPosts(ctx context.Context, viewerID string, limit int) iter.Seq2[*domain.FeedPost, error]
}

// Store is the full persistence layer.
type Store interface {
	Users
	Posts
	Ping(ctx context.Context) error
	Close() error
}
