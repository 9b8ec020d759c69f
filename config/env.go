package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Runtime holds machine-specific options read from the environment and an
// optional .env file. They are not part of the persisted settings.
type Runtime struct {
	WindowTitle     string
	ConfirmKey      string
	StopKey         string
	OCRLanguage     string
	TessdataPrefix  string
	OCRMode         string
	OCRTimeout      time.Duration
	CaptureBackend  string
	ResultsDir      string
	SaveScreenshots bool
	StopOnFocusLoss bool
	Debug           bool
	DebugDir        string
	LogLevel        slog.Level
}

// DefaultRuntime returns the built-in runtime options.
func DefaultRuntime() Runtime {
	return Runtime{
		WindowTitle:     "MapleStory",
		ConfirmKey:      "enter",
		StopKey:         "esc",
		OCRLanguage:     "eng",
		OCRMode:         "auto",
		OCRTimeout:      20 * time.Second,
		CaptureBackend:  "screenshot",
		ResultsDir:      "results/flames",
		SaveScreenshots: true,
		LogLevel:        slog.LevelInfo,
	}
}

// LoadRuntime loads envPath (if present) into the process environment and
// resolves Runtime from it. Variables already set in the environment win.
func LoadRuntime(envPath string) Runtime {
	if envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
		}
	}
	r := DefaultRuntime()
	r.WindowTitle = getEnv("FLAME_WINDOW_TITLE", r.WindowTitle)
	r.ConfirmKey = getEnv("CONFIRM_KEY", r.ConfirmKey)
	r.StopKey = getEnv("STOP_KEY", r.StopKey)
	r.OCRLanguage = getEnv("OCR_LANG", r.OCRLanguage)
	r.TessdataPrefix = getEnv("TESSDATA_PREFIX", r.TessdataPrefix)
	r.OCRMode = strings.ToLower(getEnv("OCR_MODE", r.OCRMode))
	if v := os.Getenv("OCR_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			r.OCRTimeout = time.Duration(n) * time.Second
		}
	}
	r.CaptureBackend = strings.ToLower(getEnv("CAPTURE_BACKEND", r.CaptureBackend))
	r.ResultsDir = getEnv("RESULTS_DIR", r.ResultsDir)
	r.SaveScreenshots = getBool("SAVE_SCREENSHOTS", r.SaveScreenshots)
	r.StopOnFocusLoss = getBool("STOP_ON_FOCUS_LOSS", r.StopOnFocusLoss)
	r.Debug = getBool("DEBUG", r.Debug)
	r.DebugDir = getEnv("DEBUG_DIR", r.DebugDir)
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			r.LogLevel = lvl
		}
	}
	if r.Debug && r.LogLevel > slog.LevelDebug {
		r.LogLevel = slog.LevelDebug
	}
	return r
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
