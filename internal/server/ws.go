package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/humanv/internal/capture"
	"github.com/ayusman/humanv/internal/liveness"
	"github.com/ayusman/humanv/internal/log"
	"github.com/ayusman/humanv/internal/server/api"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Text commands accepted on the session stream.
const (
	cmdReady  = "ready"
	cmdStatus = "status"
)

// SessionStreamHandler feeds a session from a WebSocket. Binary messages are
// encoded frames, text messages are commands. Every message is answered with
// the session status as JSON. The connection closes once the session is terminal.
type SessionStreamHandler struct {
	registry *api.Registry
}

// NewSessionStreamHandler creates a new SessionStreamHandler over registry.
func NewSessionStreamHandler(registry *api.Registry) *SessionStreamHandler {
	return &SessionStreamHandler{registry: registry}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *SessionStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, ok := h.registry.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Session not found"})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(api.MaxFrameBytes)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			log.Debug("session stream closed", zap.String("session", id), zap.Error(err))
			return
		}

		st := handleMessage(sess, msgType, data)
		h.registry.Settle(id, st)

		if err := conn.WriteJSON(st); err != nil {
			return
		}
		if st.Terminal {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, st.Message))
			return
		}
	}
}

func handleMessage(sess *liveness.Session, msgType int, data []byte) liveness.Status {
	var (
		st  liveness.Status
		err error
	)

	switch msgType {
	case websocket.BinaryMessage:
		frame, decodeErr := capture.Decode(data)
		if decodeErr == nil {
			defer frame.Close()
		}
		st, err = sess.ProcessFrame(frame)

	case websocket.TextMessage:
		switch string(data) {
		case cmdReady:
			st, err = sess.Ready()
		case cmdStatus:
			st = sess.Status()
		default:
			st = sess.Status()
			st.Error = "unknown command: " + string(data)
		}

	default:
		st = sess.Status()
	}

	if err != nil {
		st.Error = err.Error()
	}
	return st
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
