package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"

	"github.com/nikbrunner/linkshelf/internal/model"
	"github.com/nikbrunner/linkshelf/internal/storage"
)

// app bundles what every subcommand needs.
type app struct {
	cfg     *storage.Config
	log     zerolog.Logger
	storage storage.Storage
	store   *model.Store
	saver   *storage.Autosaver
}

// loadApp reads config and the persisted store, exiting on failure.
func loadApp() *app {
	configPath, err := storage.DefaultConfigFilePath()
	if err != nil {
		fatal("getting config path", err)
	}

	cfg, err := storage.LoadConfig(configPath)
	if err != nil {
		fatal("loading config", err)
	}
	cfg.ApplyEnv(filepath.Join(filepath.Dir(configPath), ".env"), ".env")

	logger := newLogger(cfg.LogLevel)
	logger.Debug().Stringer("config", cfg).Msg("config loaded")

	s, err := storage.OpenStorage(cfg)
	if err != nil {
		fatal("opening storage", err)
	}

	store, err := storage.LoadStore(s)
	if err != nil {
		fatal("loading links", err)
	}

	return &app{
		cfg:     cfg,
		log:     logger,
		storage: s,
		store:   store,
		saver:   storage.Autosave(store, s, logger),
	}
}

// close stops autosave and reports any persistence error.
func (a *app) close() {
	a.saver.Stop()
	if c, ok := a.storage.(io.Closer); ok {
		_ = c.Close()
	}
	if err := a.saver.Err(); err != nil {
		fatal("saving links", err)
	}
}

// resolveCollection finds a collection by id or, failing that, by name.
func (a *app) resolveCollection(arg string) (model.Collection, error) {
	if c, ok := a.store.Collection(arg); ok {
		return c, nil
	}
	if c, ok := a.store.CollectionByName(arg); ok {
		return c, nil
	}
	return model.Collection{}, fmt.Errorf("%w: %q", model.ErrCollectionNotFound, arg)
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

func fatal(action string, err error) {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", action, err)
	os.Exit(1)
}

// openURL opens a URL in the default browser.
func openURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
