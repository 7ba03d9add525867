package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/heyrat/heyrat-server/internal/errors"
	"github.com/heyrat/heyrat-server/internal/http/response"
)

// APIError is the huma.StatusError for every failed operation. It carries
// the fields of the error envelope.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status   int
	Code     string `json:"code" doc:"Machine-readable error code"`
	Message  string `json:"error" doc:"Human-readable error message"`
	Details  any    `json:"details,omitempty" doc:"Additional error details"`
	Redirect string `json:"redirect,omitempty" doc:"Where the client should go next"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

func fromDomainError(de *domainerrors.Error) *APIError {
	return &APIError{
		status:   de.HTTPStatus(),
		Code:     string(de.Code),
		Message:  de.Message,
		Details:  de.Details,
		Redirect: de.Redirect,
	}
}

// RegisterErrorHandler makes huma report domain errors, and its own request
// validation failures, as envelope errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var de *domainerrors.Error
			if errors.As(err, &de) {
				return fromDomainError(de)
			}
		}

		switch status {
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			// Schema validation failures from huma itself.
			return &APIError{
				status:  http.StatusBadRequest,
				Code:    string(domainerrors.CodeValidation),
				Message: message,
				Details: validationDetails(errs),
			}
		case http.StatusInternalServerError:
			_, env := response.FromError(errors.Join(errs...))
			return &APIError{status: status, Code: env.Code, Message: env.Error}
		}

		return &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
	}
}

// validationDetails maps huma's error details to location/message pairs.
func validationDetails(errs []error) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	details := make(map[string]string, len(errs))
	for _, err := range errs {
		var ed *huma.ErrorDetail
		if errors.As(err, &ed) {
			details[ed.Location] = ed.Message
			continue
		}
		details["request"] = err.Error()
	}
	return details
}

// statusToCode maps HTTP status codes to domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(domainerrors.CodeValidation)
	case http.StatusUnauthorized:
		return string(domainerrors.CodeUnauthenticated)
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeConflict)
	case http.StatusTooManyRequests:
		return string(domainerrors.CodeRateLimited)
	case http.StatusServiceUnavailable:
		return string(domainerrors.CodeUnavailable)
	default:
		return string(domainerrors.CodeStorage)
	}
}
