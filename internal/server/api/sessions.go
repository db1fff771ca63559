package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/humanv/internal/capture"
	"github.com/ayusman/humanv/internal/liveness"
	"github.com/ayusman/humanv/internal/log"
)

// MaxFrameBytes bounds the size of an uploaded frame.
const MaxFrameBytes = 8 << 20

// SessionHandler handles HTTP requests for verification sessions.
type SessionHandler struct {
	registry *Registry
}

// NewSessionHandler creates a new SessionHandler backed by registry.
func NewSessionHandler(registry *Registry) *SessionHandler {
	return &SessionHandler{registry: registry}
}

// Register mounts the session routes on r.
func (h *SessionHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/sessions", h.create).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{id}", h.delete).Methods(http.MethodDelete)
	r.HandleFunc("/api/sessions/{id}/frames", h.frame).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}/ready", h.ready).Methods(http.MethodPost)
}

type createSessionResponse struct {
	ID     string          `json:"id"`
	Status liveness.Status `json:"status"`
}

type frameRequest struct {
	Frame string `json:"frame"`
}

type frameResponse struct {
	liveness.Status
	Frame string `json:"frame,omitempty"`
}

// create handles POST /api/sessions.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	id, sess := h.registry.Create()
	writeJSON(w, http.StatusCreated, createSessionResponse{ID: id, Status: sess.Status()})
}

// get handles GET /api/sessions/{id}.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, ok := h.registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	st := sess.Status()
	h.registry.Settle(id, st)
	writeJSON(w, http.StatusOK, st)
}

// delete handles DELETE /api/sessions/{id}.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	if !h.registry.Abandon(mux.Vars(r)["id"]) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// frame handles POST /api/sessions/{id}/frames. The body is either raw
// image bytes or JSON {"frame": "<base64>"}. With ?echo=1 the decoded frame
// is returned as base64 JPEG.
func (h *SessionHandler) frame(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, ok := h.registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	frame, decodeErr := readFrame(w, r)
	if decodeErr == nil {
		defer frame.Close()
	}

	// A nil frame still advances the session clock and reports an error status.
	st, err := sess.ProcessFrame(frame)
	h.registry.Settle(id, st)
	if decodeErr != nil && errors.Is(err, liveness.ErrInvalidFrame) {
		st.Error = fmt.Sprintf("%s: %v", liveness.ErrInvalidFrame, decodeErr)
	}

	resp := frameResponse{Status: st}
	if r.URL.Query().Get("echo") == "1" && frame != nil {
		resp.Frame = echoFrame(id, frame)
	}

	writeJSON(w, statusCode(err), resp)
}

// echoFrame encodes frame for the response. A failed encode leaves the echo empty.
func echoFrame(id string, frame *gocv.Mat) string {
	data, err := capture.EncodeBase64(frame)
	if err != nil {
		log.Debug("frame echo failed", zap.String("session", id), zap.Error(err))
		return ""
	}
	return data
}

// ready handles POST /api/sessions/{id}/ready.
func (h *SessionHandler) ready(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, ok := h.registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	st, err := sess.Ready()
	h.registry.Settle(id, st)
	if err != nil {
		st.Error = err.Error()
	}
	writeJSON(w, statusCode(err), st)
}

func readFrame(w http.ResponseWriter, r *http.Request) (*gocv.Mat, error) {
	body := http.MaxBytesReader(w, r.Body, MaxFrameBytes)
	defer body.Close()

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req frameRequest
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			return nil, err
		}
		return capture.DecodeBase64(req.Frame)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	return capture.Decode(data)
}

// statusCode maps session errors to HTTP status codes.
func statusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, liveness.ErrInvalidFrame):
		return http.StatusBadRequest
	case errors.Is(err, liveness.ErrNotAwaitingReady), errors.Is(err, liveness.ErrSessionTerminal):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}
