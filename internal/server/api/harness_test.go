package api

import (
	"bytes"
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/humanv/internal/capture"
	"github.com/ayusman/humanv/internal/detector"
	"github.com/ayusman/humanv/internal/liveness"
	"github.com/ayusman/humanv/internal/photo"
	"github.com/ayusman/humanv/internal/store"
)

type syncClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *syncClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *syncClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	t        *testing.T
	clock    *syncClock
	det      *detector.MockDetector
	store    *store.Store
	registry *Registry
	router   *mux.Router
	photoDir string
	jpeg     []byte
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	h := &harness{
		t:        t,
		clock:    &syncClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		det:      detector.NewMockDetector(),
		store:    st,
		router:   mux.NewRouter(),
		photoDir: t.TempDir(),
	}

	cfg := liveness.DefaultConfig()
	cfg.Now = h.clock.Now
	writer := photo.NewWriter(h.photoDir)

	h.registry = NewRegistry(func() *liveness.Session {
		return liveness.NewSession(cfg, h.det, writer)
	}, st)
	h.registry.now = h.clock.Now

	NewSessionHandler(h.registry).Register(h.router)
	NewAttemptHandler(st).Register(h.router)

	frame := capture.SolidFrame(64, 48, color.RGBA{90, 90, 90, 0})
	defer frame.Close()
	h.jpeg, err = capture.EncodeJPEG(&frame)
	require.NoError(t, err)

	return h
}

func (h *harness) do(method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	h.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) createSession() string {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/sessions", nil, "")
	require.Equal(h.t, http.StatusCreated, rec.Code)

	var resp createSessionResponse
	require.NoError(h.t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.ID
}

func (h *harness) postFrame(id string) liveness.Status {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/sessions/"+id+"/frames", h.jpeg, "image/jpeg")
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeStatus(h.t, rec)
}

func (h *harness) wave(id string) {
	h.det.SetHand(detector.OpenPalmAt(0.1))
	h.postFrame(id)
	h.clock.Advance(500 * time.Millisecond)
	h.det.SetHand(detector.OpenPalmAt(0.45))
	h.postFrame(id)
	h.clock.Advance(100 * time.Millisecond)
}

func (h *harness) blink(id string) liveness.Status {
	h.det.SetFace(detector.FaceWithEyeHeight(0.02))
	for i := 0; i < 5; i++ {
		h.postFrame(id)
		h.clock.Advance(100 * time.Millisecond)
	}
	h.det.SetFace(detector.FaceWithEyeHeight(0.005))
	var st liveness.Status
	for i := 0; i < 3; i++ {
		st = h.postFrame(id)
		h.clock.Advance(500 * time.Millisecond)
	}
	return st
}

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) liveness.Status {
	t.Helper()
	var st liveness.Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	return st
}
