package dlq

import (
	"context"
	"net/http"

	"github.com/seatwise-systems/seatwise/internal/httputil"
)

// Inspector is the read side of a dead-letter queue, consumed by the
// inspection endpoint.
type Inspector interface {
	Stats(ctx context.Context) map[string]interface{}
	List(ctx context.Context, limit int) ([]FailedMessage, error)
}

const defaultListLimit = 50

// NewHandler returns an HTTP handler exposing the dead-letter queue to
// operators: stream stats plus the oldest entries under the queue's prefix.
// The limit query parameter caps the number of entries returned.
func NewHandler(q Inspector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := httputil.ParseIntParam(r.URL.Query().Get("limit"), defaultListLimit)

		messages, err := q.List(r.Context(), limit)
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "failed to read dead-letter queue")
			return
		}
		if messages == nil {
			messages = []FailedMessage{}
		}

		httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"stats":    q.Stats(r.Context()),
			"messages": messages,
		})
	}
}
