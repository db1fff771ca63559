// Package photo stores the frame captured at the end of a verification.
package photo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/humanv/internal/capture"
	"github.com/ayusman/humanv/internal/log"
)

// ErrEmptyFrame is returned when Save is given a frame without pixels.
var ErrEmptyFrame = errors.New("photo: empty frame")

// Mirror receives a copy of every stored photo.
type Mirror interface {
	Upload(ctx context.Context, name string, data []byte) error
}

// Writer saves JPEG photos under a directory, creating it on first use.
type Writer struct {
	dir           string
	mirror        Mirror
	uploadTimeout time.Duration
	now           func() time.Time
	uploads       sync.WaitGroup
}

// NewWriter returns a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{
		dir:           dir,
		uploadTimeout: 30 * time.Second,
		now:           time.Now,
	}
}

// SetMirror enables mirroring of saved photos. A nil mirror disables it.
func (w *Writer) SetMirror(m Mirror) {
	w.mirror = m
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Save writes frame as photo_<timestamp>_<ulid>.jpg and returns its path.
// The mirror upload runs in the background; its failures are only logged.
func (w *Writer) Save(frame *gocv.Mat) (string, error) {
	if !capture.Valid(frame) {
		return "", ErrEmptyFrame
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", errors.Wrapf(err, "create photo dir %s", w.dir)
	}

	name := fileName(w.now())
	path := filepath.Join(w.dir, name)
	if !gocv.IMWrite(path, *frame) {
		return "", errors.Errorf("write photo %s", path)
	}

	if w.mirror != nil {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("photo mirror skipped", zap.String("path", path), zap.Error(err))
			return path, nil
		}
		mirror := w.mirror
		w.uploads.Add(1)
		go func() {
			defer w.uploads.Done()
			w.upload(mirror, name, data)
		}()
	}

	return path, nil
}

// Wait blocks until all background uploads have finished.
func (w *Writer) Wait() {
	w.uploads.Wait()
}

func (w *Writer) upload(mirror Mirror, name string, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), w.uploadTimeout)
	defer cancel()

	if err := mirror.Upload(ctx, name, data); err != nil {
		log.Warn("photo mirror failed", zap.String("name", name), zap.Error(err))
		return
	}
	log.Debug("photo mirrored", zap.String("name", name), zap.Int("bytes", len(data)))
}

// fileName derives a unique, time-ordered name for a photo taken at t.
func fileName(t time.Time) string {
	id := ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy())
	return fmt.Sprintf("photo_%s_%s.jpg", t.Format("20060102-150405"), strings.ToLower(id.String()))
}
