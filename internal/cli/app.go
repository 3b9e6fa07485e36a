package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"zero/internal/config"
	"zero/internal/prefs"
	"zero/internal/repository"
	"zero/internal/storage"
	"zero/internal/widget"
)

// app holds the wired stores shared by every command.
type app struct {
	cfg    config.Config
	logger *log.Logger
	store  *storage.Store
	prefs  *prefs.Store
	repo   *repository.Repository
	mirror *widget.Mirror
	logs   io.Closer
}

// openApp loads the config and opens the stores. A nil logOut sends the log
// to cfg.LogPath, which keeps it off the terminal while the TUI is drawn.
func openApp(logOut io.Writer) (*app, error) {
	path := configPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	a := &app{cfg: cfg}
	if logOut == nil {
		if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("creating log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		a.logs = f
		logOut = f
	}
	a.logger = log.New(logOut, "zero: ", log.LstdFlags)

	a.store, err = storage.Open(cfg.DBPath, a.logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	themePrefs, err := prefs.Open(cfg.PrefsPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening preferences: %w", err)
	}
	widgetPrefs, err := prefs.Open(cfg.WidgetPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening widget mirror: %w", err)
	}
	a.prefs = themePrefs.WithLogger(a.logger)
	a.repo = repository.New(a.store, a.prefs)
	a.mirror = widget.NewMirror(widgetPrefs.WithLogger(a.logger))
	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Printf("closing database: %v", err)
		}
	}
	if a.logs != nil {
		a.logs.Close()
	}
}
