package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/heyrat/heyrat-server/internal/domain"
	"github.com/heyrat/heyrat-server/internal/service"
)

func (s *Server) registerFeedRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listFeed",
		Method:      http.MethodGet,
		Path:        "/api/feed",
		Summary:     "List feed",
		Description: "Returns the newest posts, with like state for the caller when signed in",
		Tags:        []string{"Feed"},
	}, s.handleListFeed)
}

// FeedResponse is one read of the feed.
type FeedResponse struct {
	Posts []*domain.FeedPost `json:"posts" doc:"Newest posts first"`
}

// FeedOutput wraps the feed for Huma.
type FeedOutput struct {
	Body FeedResponse
}

func (s *Server) handleListFeed(ctx context.Context, _ *struct{}) (*FeedOutput, error) {
	posts, err := service.Collect(s.services.Feed.ListFeed(ctx, viewerID(ctx)))
	if err != nil {
		return nil, err
	}
	return &FeedOutput{Body: FeedResponse{Posts: posts}}, nil
}
