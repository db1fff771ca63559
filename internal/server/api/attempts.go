package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ayusman/humanv/internal/store"
)

// AttemptHandler serves the attempt audit log.
type AttemptHandler struct {
	store *store.Store
}

// NewAttemptHandler creates a new AttemptHandler with the given store.
func NewAttemptHandler(s *store.Store) *AttemptHandler {
	return &AttemptHandler{store: s}
}

// Register mounts the attempt routes on r.
func (h *AttemptHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/attempts", h.list).Methods(http.MethodGet)
	r.HandleFunc("/api/attempts/{id}", h.get).Methods(http.MethodGet)
}

type attemptResponse struct {
	ID         string  `json:"id"`
	Outcome    string  `json:"outcome"`
	BlinkCount int     `json:"blink_count"`
	WaveCount  int     `json:"wave_count"`
	PhotoPath  string  `json:"photo_path,omitempty"`
	PhotoError string  `json:"photo_error,omitempty"`
	StartedAt  string  `json:"started_at"`
	FinishedAt string  `json:"finished_at"`
	Seconds    float64 `json:"duration_seconds"`
}

type listAttemptsResponse struct {
	Attempts []attemptResponse `json:"attempts"`
	Counts   map[string]int    `json:"counts"`
}

func toAttemptResponse(a *store.Attempt) attemptResponse {
	return attemptResponse{
		ID:         a.ID,
		Outcome:    string(a.Outcome),
		BlinkCount: a.BlinkCount,
		WaveCount:  a.WaveCount,
		PhotoPath:  a.PhotoPath,
		PhotoError: a.PhotoError,
		StartedAt:  a.StartedAt.Format(timeFormat),
		FinishedAt: a.FinishedAt.Format(timeFormat),
		Seconds:    a.Duration().Seconds(),
	}
}

// list handles GET /api/attempts?limit=N.
func (h *AttemptHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	attempts, err := h.store.Attempts().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list attempts")
		return
	}

	counts, err := h.store.Attempts().CountByOutcome()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count attempts")
		return
	}

	response := listAttemptsResponse{
		Attempts: make([]attemptResponse, 0, len(attempts)),
		Counts:   make(map[string]int, len(counts)),
	}
	for _, a := range attempts {
		response.Attempts = append(response.Attempts, toAttemptResponse(a))
	}
	for outcome, n := range counts {
		response.Counts[string(outcome)] = n
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/attempts/{id}.
func (h *AttemptHandler) get(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.store.Attempts().GetByID(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Attempt not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get attempt")
		return
	}

	writeJSON(w, http.StatusOK, toAttemptResponse(attempt))
}
