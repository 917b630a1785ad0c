package httprpc

import (
	"errors"
	"net/http"

	"go.chordring.dev/chordring/chord"
)

// mapError translates a chord sentinel error into an HTTP status code and
// a JSON-serializable body. Anything it doesn't recognize falls back to a
// 500, which the client surfaces as a plain error rather than
// chord.ErrUnreachable - only connection-level failures become
// ErrUnreachable on the client side.
func mapError(err error) (int, errorBody) {
	switch {
	case errors.Is(err, chord.ErrNodeNotStarted):
		return http.StatusServiceUnavailable, errorBody{Error: err.Error()}
	case errors.Is(err, chord.ErrNodeGone):
		return http.StatusGone, errorBody{Error: err.Error()}
	case errors.Is(err, chord.ErrNoSuccessor), errors.Is(err, chord.ErrNoPredecessor):
		return http.StatusConflict, errorBody{Error: err.Error()}
	default:
		return http.StatusInternalServerError, errorBody{Error: err.Error()}
	}
}
