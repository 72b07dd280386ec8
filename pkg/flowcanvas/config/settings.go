package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	fcerrors "github.com/randalmurphal/flowcanvas/pkg/flowcanvas/errors"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Settings is the complete, typed configuration.
type Settings struct {
	Store     StoreSettings
	Catalog   CatalogSettings
	Editor    EditorSettings
	Log       LogSettings
	Telemetry TelemetrySettings
	Retry     RetrySettings
}

// StoreSettings selects the flow store.
type StoreSettings struct {
	Driver string // memory or sqlite
	Path   string // sqlite database file
}

// CatalogSettings locates the node catalog file.
type CatalogSettings struct {
	Path string
}

// EditorSettings tunes editor policies.
type EditorSettings struct {
	IDPolicy   string // suffix or verbatim
	EdgePolicy string // keep or cascade
	DragMIME   string
}

// LogSettings configures the slog handler.
type LogSettings struct {
	Level  string // debug, info, warn, error
	Format string // text or json
}

// TelemetrySettings toggles OpenTelemetry instrumentation.
type TelemetrySettings struct {
	Metrics bool
	Tracing bool
}

// RetrySettings configures collaborator retries.
type RetrySettings struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Default returns the settings used when no file is given.
func Default() Settings {
	return Settings{
		Store:   StoreSettings{Driver: DriverSQLite, Path: "flowcanvas.db"},
		Catalog: CatalogSettings{},
		Editor: EditorSettings{
			IDPolicy:   "suffix",
			EdgePolicy: "keep",
			DragMIME:   "application/x-flowcanvas-node+json",
		},
		Log: LogSettings{Level: "info", Format: "text"},
		Retry: RetrySettings{
			MaxAttempts:    fcerrors.DefaultRetry.MaxAttempts,
			InitialBackoff: fcerrors.DefaultRetry.InitialBackoff,
			MaxBackoff:     fcerrors.DefaultRetry.MaxBackoff,
		},
	}
}

// FromValues applies decoded values over Default().
func FromValues(v Values) Settings {
	s := Default()

	store := v.Section("store")
	s.Store.Driver = store.String("driver", s.Store.Driver)
	s.Store.Path = store.String("path", s.Store.Path)

	s.Catalog.Path = v.Section("catalog").String("path", s.Catalog.Path)

	editor := v.Section("editor")
	s.Editor.IDPolicy = editor.String("id_policy", s.Editor.IDPolicy)
	s.Editor.EdgePolicy = editor.String("edge_policy", s.Editor.EdgePolicy)
	s.Editor.DragMIME = editor.String("drag_mime", s.Editor.DragMIME)

	log := v.Section("log")
	s.Log.Level = strings.ToLower(log.String("level", s.Log.Level))
	s.Log.Format = strings.ToLower(log.String("format", s.Log.Format))

	tel := v.Section("telemetry")
	s.Telemetry.Metrics = tel.Bool("metrics", s.Telemetry.Metrics)
	s.Telemetry.Tracing = tel.Bool("tracing", s.Telemetry.Tracing)

	retry := v.Section("retry")
	s.Retry.MaxAttempts = retry.Int("max_attempts", s.Retry.MaxAttempts)
	s.Retry.InitialBackoff = retry.Duration("initial_backoff", s.Retry.InitialBackoff)
	s.Retry.MaxBackoff = retry.Duration("max_backoff", s.Retry.MaxBackoff)

	return s
}

// Validate reports every invalid field at once.
func (s Settings) Validate() error {
	var errs []error

	switch s.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if s.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not one of memory, sqlite", s.Store.Driver))
	}
	if s.Editor.IDPolicy != "suffix" && s.Editor.IDPolicy != "verbatim" {
		errs = append(errs, fmt.Errorf("editor.id_policy %q is not one of suffix, verbatim", s.Editor.IDPolicy))
	}
	if s.Editor.EdgePolicy != "keep" && s.Editor.EdgePolicy != "cascade" {
		errs = append(errs, fmt.Errorf("editor.edge_policy %q is not one of keep, cascade", s.Editor.EdgePolicy))
	}
	if s.Editor.DragMIME == "" {
		errs = append(errs, errors.New("editor.drag_mime must not be empty"))
	}
	if _, err := parseLevel(s.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if s.Log.Format != "text" && s.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", s.Log.Format))
	}
	if s.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry.max_attempts must be at least 1"))
	}
	if s.Retry.InitialBackoff < 0 || s.Retry.MaxBackoff < 0 {
		errs = append(errs, errors.New("retry backoff must not be negative"))
	}

	return errors.Join(errs...)
}

// RetryConfig converts the retry section for the errors package.
func (s Settings) RetryConfig() fcerrors.RetryConfig {
	return fcerrors.NewRetryConfig(
		fcerrors.WithMaxAttempts(s.Retry.MaxAttempts),
		fcerrors.WithInitialBackoff(s.Retry.InitialBackoff),
		fcerrors.WithMaxBackoff(s.Retry.MaxBackoff),
	)
}

// Logger builds a slog logger writing to w using the log section.
func (s Settings) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(s.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if s.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log.level %q is not one of debug, info, warn, error", s)
}
