package app

import (
	"context"
	"net/http"

	apperrors "forknight/internal/errors"
	"forknight/internal/response"
)

// upstreamDetails is attached to 502 responses for diagnostics
type upstreamDetails struct {
	Op         string `json:"op"`
	Request    string `json:"request,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	Body       string `json:"body,omitempty"`
}

// writeError maps err to a status code and error envelope
func (a *App) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	code, payload := errorResponse(err)

	event := a.log.Error()
	if code < http.StatusInternalServerError {
		event = a.log.Warn()
	}
	event.
		Err(err).
		Str("request_id", requestID(r.Context())).
		Str("op", op).
		Int("status", code).
		Msg("Request failed")

	response.JSON(w, code, payload)
}

func errorResponse(err error) (int, response.Response) {
	var upstream *apperrors.UpstreamError

	switch {
	case apperrors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, response.Fail("Not authenticated")
	case apperrors.Is(err, apperrors.ErrRateLimit):
		return http.StatusTooManyRequests, response.Error("GitHub rate limit exceeded, please try again later", nil)
	case apperrors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest, response.Fail(err.Error())
	case apperrors.As(err, &upstream):
		// GitHub rejected the viewer's token
		if upstream.StatusCode == http.StatusUnauthorized {
			return http.StatusUnauthorized, response.Fail("GitHub rejected the access token")
		}
		return http.StatusBadGateway, response.Error("GitHub request failed", upstreamDetails{
			Op:         upstream.Op,
			Request:    upstream.Request,
			StatusCode: upstream.StatusCode,
			Body:       upstream.Body,
		})
	case apperrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, response.Error("GitHub request timed out", nil)
	default:
		return http.StatusInternalServerError, response.Error("Internal server error", nil)
	}
}
