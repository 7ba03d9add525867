package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/heyrat/heyrat-server/internal/errors"
	"github.com/heyrat/heyrat-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchCorpus",
		Method:      http.MethodGet,
		Path:        "/api/search",
		Summary:     "Search the corpus",
		Description: "Full-text search over verses and titles. Hits are couplets addressed the way posts select them.",
		Tags:        []string{"Corpus"},
	}, s.handleSearch)
}

// SearchInput holds the query parameters.
type SearchInput struct {
	Query  string `query:"q" doc:"Search text"`
	PoetID string `query:"poet" doc:"Restrict to one poet"`
	Limit  int    `query:"limit" minimum:"0" maximum:"100" doc:"Maximum hits (default 20)"`
}

// SearchOutput wraps search results for Huma.
type SearchOutput struct {
	Body *search.Result
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if s.search == nil {
		return nil, domainerrors.Unavailable("search is not available")
	}

	result, err := s.search.Search(ctx, search.Params{
		Query:  input.Query,
		PoetID: input.PoetID,
		Limit:  input.Limit,
	})
	if err != nil {
		s.logger.Error("search failed", "error", err, "query", input.Query)
		return nil, domainerrors.Storage(err)
	}
	return &SearchOutput{Body: result}, nil
}
