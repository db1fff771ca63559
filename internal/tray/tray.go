// Package tray provides a system tray interface for the local verification mode.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/humanv/internal/liveness"
)

// Tray represents the system tray application.
type Tray struct {
	onReady func()
	onQuit  func()
	status  liveness.Status
	mu      sync.RWMutex

	// Menu items stored for later updates
	menuStatus   *systray.MenuItem
	menuProgress *systray.MenuItem
	menuReady    *systray.MenuItem
}

// New creates a new Tray instance.
func New() *Tray {
	return &Tray{}
}

// OnReady sets the callback invoked when the user confirms they are ready for the photo.
func (t *Tray) OnReady(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReady = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.setup, t.onExit)
}

// Quit closes the tray.
func (t *Tray) Quit() {
	systray.Quit()
}

// setup is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) setup() {
	systray.SetTitle("HumanV")
	systray.SetTooltip("HumanV liveness verification")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem("Starting...", "Current instruction")
	t.menuStatus.Disable()
	t.menuProgress = systray.AddMenuItem(progressLine(liveness.Status{}), "Verification progress")
	t.menuProgress.Disable()
	systray.AddSeparator()

	t.menuReady = systray.AddMenuItem("Ready for photo", "Start the photo countdown")
	t.menuReady.Disable()
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit HumanV")
	t.mu.Unlock()

	// Apply a status that arrived before the menu existed.
	t.SetStatus(t.Status())

	go func() {
		for {
			select {
			case <-t.menuReady.ClickedCh:
				t.handleReady()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// handleReady handles the ready menu item click.
func (t *Tray) handleReady() {
	t.mu.RLock()
	callback := t.onReady
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetStatus updates the menu from a session status. The ready item is only
// enabled while the session waits for it.
func (t *Tray) SetStatus(st liveness.Status) {
	t.mu.Lock()
	t.status = st
	status, progress, ready := t.menuStatus, t.menuProgress, t.menuReady
	t.mu.Unlock()

	if status == nil {
		return
	}

	status.SetTitle(st.Message)
	progress.SetTitle(progressLine(st))
	if st.Phase == liveness.PhasePhotoPrompt {
		ready.Enable()
	} else {
		ready.Disable()
	}
}

// Status returns the last status given to SetStatus.
func (t *Tray) Status() liveness.Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

func progressLine(st liveness.Status) string {
	return fmt.Sprintf("Waves %d · Blinks %d", st.WaveCount, st.BlinkCount)
}
