package webutil

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

// AppHandler represents a handler function that returns an error.
type AppHandler func(w http.ResponseWriter, r *http.Request) error

// MakeHandler adapts an AppHandler to the standard http.HandlerFunc
// signature, logging any returned error and sending a standardized JSON
// error response.
func MakeHandler(log zerolog.Logger, handler AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := handler(w, r)
		if err == nil {
			return
		}

		var httpErr *HTTPError
		var publicMessage string
		var statusCode int

		switch {
		case errors.As(err, &httpErr):
			statusCode = httpErr.Code
			publicMessage = httpErr.Message
			evt := log.Warn()
			if statusCode >= 500 {
				evt = log.Error()
			}
			evt.Int("code", statusCode).
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Err(err).
				Msg("client error response")

		case errors.Is(err, sql.ErrNoRows):
			statusCode = http.StatusNotFound
			publicMessage = msgNotFound
			log.Info().Str("path", r.URL.Path).Str("method", r.Method).Err(err).Msg("resource not found")

		default:
			statusCode = http.StatusInternalServerError
			publicMessage = msgInternalServer
			log.Error().Str("path", r.URL.Path).Str("method", r.Method).Err(err).Msg("unhandled internal error")
		}

		if hasSentHeader(w) {
			// The handler already wrote a response; nothing more to send.
			log.Warn().Str("path", r.URL.Path).Err(err).Msg("handler returned error after writing response header")
			return
		}

		RespondWithJSON(w, statusCode, map[string]string{"error": publicMessage})
	}
}
