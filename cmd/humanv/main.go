package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/ayusman/humanv/internal/app"
	"github.com/ayusman/humanv/internal/capture"
	"github.com/ayusman/humanv/internal/config"
	"github.com/ayusman/humanv/internal/detector"
	"github.com/ayusman/humanv/internal/liveness"
	"github.com/ayusman/humanv/internal/log"
	"github.com/ayusman/humanv/internal/photo"
	"github.com/ayusman/humanv/internal/server"
	"github.com/ayusman/humanv/internal/server/api"
	"github.com/ayusman/humanv/internal/store"
	"github.com/ayusman/humanv/internal/tray"
)

const usage = `Usage: humanv [serve|local]

  serve   run the HTTP/WebSocket verification API (default)
  local   verify the person in front of the local camera

Configuration is read from the environment and an optional .env file.`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := config.Load()
	log.Init(cfg.LogLevel)
	defer log.Sync()

	mode := "serve"
	if len(args) > 0 {
		mode = args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "serve":
		if err := runServe(ctx, cfg); err != nil {
			log.Error("server failed", zap.Error(err))
			return 1
		}
		return 0
	case "local":
		return runLocal(ctx, cfg)
	case "-h", "--help", "help":
		fmt.Println(usage)
		return 0
	default:
		fmt.Fprintln(os.Stderr, usage)
		return 2
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	det := newDetector()
	defer det.Close()

	photos := newPhotoWriter(cfg)
	defer photos.Wait()
	lcfg := livenessConfig(cfg)

	registry := api.NewRegistry(func() *liveness.Session {
		return liveness.NewSession(lcfg, det, photos)
	}, st)

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		log.Info("serving static files", zap.String("dir", staticDir))
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Store:     st,
		Registry:  registry,
	})
	return srv.Run(ctx, cfg.Addr)
}

func runLocal(ctx context.Context, cfg config.Config) int {
	st, err := openStore(cfg)
	if err != nil {
		log.Error("open store failed", zap.Error(err))
		return 1
	}
	defer st.Close()

	det := newDetector()
	defer det.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	photos := newPhotoWriter(cfg)
	defer photos.Wait()

	var t *tray.Tray
	if cfg.Tray {
		t = tray.New()
	}

	a := app.New(app.Config{
		Camera:   capture.NewCamera(cfg.CameraID, true),
		Detector: det,
		Photos:   photos,
		Store:    st,
		Liveness: livenessConfig(cfg),
		FPS:      cfg.FPS,
		OnStatus: func(s liveness.Status) {
			log.Info(s.Message, zap.String("phase", s.Phase.String()))
			if t != nil {
				t.SetStatus(s)
			}
		},
	})

	// Enter on stdin is the ready signal.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			a.Ready()
		}
	}()

	type result struct {
		status liveness.Status
		err    error
	}
	done := make(chan result, 1)
	go func() {
		s, err := a.Run(ctx)
		done <- result{s, err}
		if t != nil {
			t.Quit()
		}
	}()

	if t != nil {
		t.OnReady(a.Ready)
		t.OnQuit(cancel)
		// Blocks on the main thread until the loop ends or the user quits.
		t.Run()
		cancel()
	}

	res := <-done
	if res.err != nil {
		log.Warn("verification stopped", zap.Error(res.err))
	}
	fmt.Println(res.status.Message)
	if res.status.Phase == liveness.PhaseDone {
		if res.status.PhotoPath != "" {
			fmt.Println("Photo saved to", res.status.PhotoPath)
		}
		return 0
	}
	return 1
}

func openStore(cfg config.Config) (*store.Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("initialize store: %w", err)
	}
	return st, nil
}

// newDetector prefers MediaPipe and falls back to the mock detector.
func newDetector() detector.Detector {
	mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig())
	if err != nil {
		log.Warn("MediaPipe not available, using mock detector", zap.Error(err))
		return detector.NewMockDetector()
	}
	log.Info("using MediaPipe landmark detection")
	return mp
}

func newPhotoWriter(cfg config.Config) *photo.Writer {
	w := photo.NewWriter(cfg.PhotoDir)
	if !cfg.Azure.Enabled() {
		return w
	}

	mirror, err := photo.NewBlobMirror(cfg.Azure.AccountName, cfg.Azure.AccountKey, cfg.Azure.ContainerName)
	if err != nil {
		log.Warn("azure photo mirror disabled", zap.Error(err))
		return w
	}
	w.SetMirror(mirror)
	log.Info("mirroring photos to azure", zap.String("container", cfg.Azure.ContainerName))
	return w
}

func livenessConfig(cfg config.Config) liveness.Config {
	lcfg := liveness.DefaultConfig()
	lcfg.SessionTimeout = cfg.SessionTimeout
	return lcfg
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", and ~/.humanv/web.
func findWebDir() string {
	for _, p := range []string{"web", "../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".humanv", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
