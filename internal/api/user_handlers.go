package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/heyrat/heyrat-server/internal/domain"
	"github.com/heyrat/heyrat-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/me",
		Summary:     "Get current user",
		Description: "Returns the signed-in user and whether account setup is complete",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
		Middlewares: huma.Middlewares{s.requireAuth(false)},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "setDisplayName",
		Method:      http.MethodPut,
		Path:        "/api/me/display-name",
		Summary:     "Set display name",
		Description: "Sets the public display name once. Names are unique ignoring case.",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
		Middlewares: huma.Middlewares{s.rateLimit(s.writeLimiter), s.requireAuth(false)},
	}, s.handleSetDisplayName)
}

// MeResponse describes the signed-in user.
type MeResponse struct {
	User                *domain.User `json:"user" doc:"Signed-in user"`
	RequiresDisplayName bool         `json:"requiresDisplayName" doc:"Whether a display name must be chosen before posting"`
	Redirect            string       `json:"redirect,omitempty" doc:"Where to send the user after setup"`
}

// MeOutput wraps the current user for Huma.
type MeOutput struct {
	Body MeResponse
}

// SetDisplayNameInput wraps the display name request for Huma.
type SetDisplayNameInput struct {
	ReturnTo string `cookie:"heyrat_return_to"`
	Body     service.DisplayNameRequest
}

// SetDisplayNameOutput clears the return path once setup is done.
type SetDisplayNameOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      MeResponse
}

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*MeOutput, error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return &MeOutput{Body: MeResponse{User: user, RequiresDisplayName: user.RequiresDisplayName()}}, nil
}

func (s *Server) handleSetDisplayName(ctx context.Context, input *SetDisplayNameInput) (*SetDisplayNameOutput, error) {
	user, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	updated, err := s.services.Identity.SetDisplayName(ctx, user.ID, input.Body)
	if err != nil {
		return nil, err
	}

	return &SetDisplayNameOutput{
		SetCookie: *s.cookie(returnToCookie, "", -1),
		Body: MeResponse{
			User:     updated,
			Redirect: landingPath(updated, input.ReturnTo),
		},
	}, nil
}
