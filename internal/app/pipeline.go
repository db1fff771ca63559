package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/humanv/internal/liveness"
	"github.com/ayusman/humanv/internal/log"
)

// loop is the frame acquisition loop:
// 1. Read a frame at the configured FPS
// 2. Hand it to the session
// 3. Forward ready signals between frames
// 4. Stop once the session reports a terminal phase
func (a *App) loop(ctx context.Context) (liveness.Status, error) {
	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return a.session.Status(), ctx.Err()

		case <-a.readyCh:
			st, err := a.session.Ready()
			if err != nil {
				log.Debug("ready signal ignored", zap.String("phase", st.Phase.String()), zap.Error(err))
			}
			a.publish(st)
			if st.Terminal {
				return st, nil
			}

		case <-ticker.C:
			frame, err := a.config.Camera.ReadFrame()
			if err != nil {
				// A nil frame still lets the session time out.
				log.Debug("read frame failed", zap.Error(err))
			}

			st, err := a.session.ProcessFrame(frame)
			if frame != nil {
				frame.Close()
			}
			if err != nil && !errors.Is(err, liveness.ErrInvalidFrame) {
				log.Debug("frame skipped", zap.Error(err))
			}

			a.publish(st)
			if st.Terminal {
				return st, nil
			}
		}
	}
}
