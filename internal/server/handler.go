package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	log "go.uber.org/zap"

	"github.com/yanet-platform/lifeexit/internal/lifecycle"
	"github.com/yanet-platform/lifeexit/internal/types/traceid"
)

// Exiter is the exit coordinator controlled through the server.
type Exiter interface {
	Exit(status int) lifecycle.Result
	Status() lifecycle.Status
}

// ExitResponse is the reply to an exit request.
type ExitResponse struct {
	Accepted  bool       `json:"accepted"`
	Status    int        `json:"status"`
	RequestID traceid.ID `json:"request_id"`
}

type handler struct {
	exiter Exiter
	log    *log.Logger
}

// exit requests the application exit. The exit runs in the background: the
// process may terminate before a reply could be written otherwise.
func (m *handler) exit(w http.ResponseWriter, r *http.Request) {
	status := 0
	if raw := r.URL.Query().Get("status"); raw != "" {
		var err error
		if status, err = strconv.Atoi(raw); err != nil {
			http.Error(w, "invalid status: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	reqID, _ := traceid.FromContext(r.Context())
	logger := m.log.With(log.Stringer("request_id", reqID), log.Int("status", status))
	logger.Info("exit requested over HTTP")

	go func() {
		result := m.exiter.Exit(status)
		logger.Info("exit request finished",
			log.Stringer("attempt", result.Attempt),
			log.Stringer("outcome", result.Outcome),
		)
	}()

	writeJSON(w, http.StatusAccepted, ExitResponse{
		Accepted:  true,
		Status:    status,
		RequestID: reqID,
	})
}

// status reports the shutdown attempt in flight.
func (m *handler) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, m.exiter.Status())
}

func writeJSON(w http.ResponseWriter, code int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(value)
}
