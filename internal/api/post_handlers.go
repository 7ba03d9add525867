package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/heyrat/heyrat-server/internal/domain"
	"github.com/heyrat/heyrat-server/internal/service"
)

func (s *Server) registerPostRoutes() {
	security := []map[string][]string{{"bearer": {}}, {"cookie": {}}}
	writes := huma.Middlewares{s.rateLimit(s.writeLimiter), s.requireAuth(true)}

	huma.Register(s.api, huma.Operation{
		OperationID:   "createPost",
		Method:        http.MethodPost,
		Path:          "/api/posts",
		Summary:       "Create post",
		Description:   "Shares a selection of couplets from one section, with optional commentary",
		Tags:          []string{"Posts"},
		DefaultStatus: http.StatusCreated,
		Security:      security,
		Middlewares:   writes,
	}, s.handleCreatePost)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPost",
		Method:      http.MethodGet,
		Path:        "/api/posts/{postId}",
		Summary:     "Get post",
		Description: "Returns one post as the caller sees it in the feed",
		Tags:        []string{"Posts"},
	}, s.handleGetPost)

	huma.Register(s.api, huma.Operation{
		OperationID: "likePost",
		Method:      http.MethodPost,
		Path:        "/api/posts/{postId}/likes",
		Summary:     "Like post",
		Description: "Likes a post. Liking twice has no further effect.",
		Tags:        []string{"Posts"},
		Security:    security,
		Middlewares: writes,
	}, s.handleLikePost)

	huma.Register(s.api, huma.Operation{
		OperationID: "unlikePost",
		Method:      http.MethodDelete,
		Path:        "/api/posts/{postId}/likes",
		Summary:     "Unlike post",
		Description: "Removes the caller's like. Unliking a post that was not liked has no effect.",
		Tags:        []string{"Posts"},
		Security:    security,
		Middlewares: writes,
	}, s.handleUnlikePost)
}

// CreatePostInput wraps the create post request for Huma.
type CreatePostInput struct {
	Body service.CreatePostRequest
}

// CreatePostOutput wraps the new post's location.
type CreatePostOutput struct {
	Location string `header:"Location"`
	Body     service.CreatedPost
}

// PostIDInput identifies a post in the path.
type PostIDInput struct {
	PostID string `path:"postId" doc:"Post ID"`
}

// PostOutput wraps a feed post for Huma.
type PostOutput struct {
	Body *domain.FeedPost
}

// LikeOutput wraps the like state for Huma.
type LikeOutput struct {
	Body *domain.LikeState
}

func (s *Server) handleCreatePost(ctx context.Context, input *CreatePostInput) (*CreatePostOutput, error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	created, err := s.services.Posts.CreatePost(ctx, user, input.Body)
	if err != nil {
		return nil, err
	}
	return &CreatePostOutput{Location: "/api/posts/" + created.ID, Body: *created}, nil
}

func (s *Server) handleGetPost(ctx context.Context, input *PostIDInput) (*PostOutput, error) {
	post, err := s.services.Posts.GetPost(ctx, viewerID(ctx), input.PostID)
	if err != nil {
		return nil, err
	}
	return &PostOutput{Body: post}, nil
}

func (s *Server) handleLikePost(ctx context.Context, input *PostIDInput) (*LikeOutput, error) {
	return s.toggleLike(ctx, input.PostID, true)
}

func (s *Server) handleUnlikePost(ctx context.Context, input *PostIDInput) (*LikeOutput, error) {
	return s.toggleLike(ctx, input.PostID, false)
}

func (s *Server) toggleLike(ctx context.Context, postID string, liked bool) (*LikeOutput, error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	state, err := s.services.Posts.ToggleLike(ctx, user, postID, liked)
	if err != nil {
		return nil, err
	}
	return &LikeOutput{Body: state}, nil
}
