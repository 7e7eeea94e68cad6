package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/justone/internal/apperr"
)

type errorRes struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// statusFor maps an error kind to an HTTP status.
func statusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as JSON. Uncategorized errors are logged and
// their message withheld.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	res := errorRes{Error: string(kind)}

	var e *apperr.Error
	switch {
	case errors.As(err, &e):
		res.Message = e.Msg
	case errors.Is(err, context.DeadlineExceeded):
		status, res.Error = http.StatusServiceUnavailable, "timeout"
	default:
		log.Error().Err(err).
			Str("path", r.URL.Path).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("request failed")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(res)
}
