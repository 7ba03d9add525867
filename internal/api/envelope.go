package api

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/heyrat/heyrat-server/internal/http/response"
)

// EnvelopeVersion is the version stamped on every response body.
const EnvelopeVersion = response.Version

// EnvelopeTransformer wraps operation output in the response envelope.
// Errors become response.ErrorEnvelope, everything else response.Envelope.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	switch body := v.(type) {
	case response.Envelope, response.ErrorEnvelope:
		return body, nil
	case *APIError:
		return response.ErrorEnvelope{
			Version:  EnvelopeVersion,
			Success:  false,
			Code:     body.Code,
			Error:    body.Message,
			Details:  body.Details,
			Redirect: body.Redirect,
		}, nil
	case error:
		_, env := response.FromError(body)
		return env, nil
	}

	if strings.HasPrefix(status, "2") || strings.HasPrefix(status, "3") {
		return response.Ok(v), nil
	}
	return v, nil
}
