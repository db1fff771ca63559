// Package config loads humanv settings from the environment and an optional .env file.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults used when the corresponding variable is unset or invalid.
const (
	DefaultAddr           = ":8080"
	DefaultCameraID       = 0
	DefaultFPS            = 15
	DefaultLogLevel       = "info"
	DefaultSessionTimeout = 120 * time.Second
)

// Config holds the process-level settings for both serve and local modes.
type Config struct {
	Addr           string
	DataDir        string
	PhotoDir       string
	StaticDir      string
	CameraID       int
	FPS            int
	LogLevel       string
	SessionTimeout time.Duration
	Tray           bool

	Azure AzureConfig
}

// AzureConfig holds credentials for mirroring captured photos to blob storage.
type AzureConfig struct {
	AccountName   string
	AccountKey    string
	ContainerName string
}

// Enabled reports whether all blob storage settings are present.
func (a AzureConfig) Enabled() bool {
	return a.AccountName != "" && a.AccountKey != "" && a.ContainerName != ""
}

// Load reads an optional .env file (missing files are ignored) and then the environment.
// Variables already set in the environment take precedence over .env values.
func Load(envFiles ...string) Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}

	dataDir := getString("HUMANV_DATA_DIR", defaultDataDir())

	return Config{
		Addr:           getString("HUMANV_ADDR", DefaultAddr),
		DataDir:        dataDir,
		PhotoDir:       getString("HUMANV_PHOTO_DIR", filepath.Join(dataDir, "captured_photos")),
		StaticDir:      os.Getenv("HUMANV_STATIC_DIR"),
		CameraID:       getInt("HUMANV_CAMERA_ID", DefaultCameraID),
		FPS:            getInt("HUMANV_FPS", DefaultFPS),
		LogLevel:       getString("HUMANV_LOG_LEVEL", DefaultLogLevel),
		SessionTimeout: getDuration("HUMANV_SESSION_TIMEOUT", DefaultSessionTimeout),
		Tray:           getBool("HUMANV_TRAY", false),
		Azure: AzureConfig{
			AccountName:   os.Getenv("AZURE_STORAGE_ACCOUNT_NAME"),
			AccountKey:    os.Getenv("AZURE_STORAGE_ACCOUNT_KEY"),
			ContainerName: os.Getenv("AZURE_CONTAINER_NAME"),
		},
	}
}

// DBPath returns the location of the attempts database.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "humanv.db")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".humanv"
	}
	return filepath.Join(home, ".humanv")
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}

func getBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

// getDuration accepts Go durations ("90s") or plain seconds ("90").
func getDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return def
}
