// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app wires the sessionchat core from configuration.
//
// Both front ends build one App, call Start for the startup fetch, and then
// drive the directory, conversation and auth components it exposes.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jeranaias/sessionchat/internal/api"
	"github.com/jeranaias/sessionchat/internal/auth"
	"github.com/jeranaias/sessionchat/internal/config"
	"github.com/jeranaias/sessionchat/internal/conversation"
	"github.com/jeranaias/sessionchat/internal/directory"
	"github.com/jeranaias/sessionchat/internal/logging"
	"github.com/jeranaias/sessionchat/internal/prefs"
	"github.com/jeranaias/sessionchat/internal/state"
	"github.com/jeranaias/sessionchat/internal/telemetry"
)

// ErrPlainVariant is returned for auth operations in the plain variant.
var ErrPlainVariant = errors.New("the plain variant has no login; use the reactive variant")

// Options are per-run overrides that do not belong in the config file.
type Options struct {
	// Version is reported in telemetry.
	Version string

	// Verbose forces debug logging.
	Verbose bool

	// Model overrides the stored model for this run without persisting it.
	Model string

	// Prefs replaces the preference store, mainly for tests.
	Prefs prefs.Store

	// SkipLogging leaves the default slog logger alone.
	SkipLogging bool
}

// App is the assembled client core.
type App struct {
	Config       *config.Config
	State        *state.State
	Client       *api.Client
	Directory    *directory.Directory
	Conversation *conversation.Consumer
	Auth         *auth.Gate
	Prefs        prefs.Store
	Logger       *slog.Logger

	modelOverride string
	closers       []func()
}

// New builds the object graph for cfg. Close must be called when done.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{
		Config:        cfg,
		State:         state.New(),
		modelOverride: opts.Model,
	}

	if err := a.initLogging(opts); err != nil {
		return nil, err
	}

	shutdown, err := telemetry.Init(ctx, telemetry.Options{
		Enabled: cfg.Telemetry.Enabled,
		Dir:     cfg.Telemetry.Dir,
		Version: opts.Version,
	})
	if err != nil {
		a.Logger.Warn("telemetry disabled", "error", err)
	}
	a.closers = append(a.closers, shutdown)

	a.Prefs = opts.Prefs
	if a.Prefs == nil {
		a.Prefs = openPrefs(cfg.Client.PrefsPath, a.Logger)
	}
	a.closers = append(a.closers, func() { _ = a.Prefs.Close() })

	var token api.TokenSource
	if !cfg.IsPlain() {
		token = a.State.Token
	}
	a.Client = api.NewClient(api.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.RequestTimeout(),
		Token:   token,
		Logger:  a.Logger,
	})

	a.Directory = directory.New(a.Client, a.State, directory.Options{
		DefaultTitle:   cfg.Client.DefaultTitle,
		SelectOnCreate: cfg.IsPlain(),
	})
	a.Conversation = conversation.New(a.Client, a.State)
	a.Auth = auth.New(a.Client, a.Directory, a.State, a.Prefs)

	a.Logger.Info("client ready",
		"variant", cfg.Client.Variant,
		"base_url", cfg.API.BaseURL)
	return a, nil
}

func (a *App) initLogging(opts Options) error {
	if opts.SkipLogging {
		a.Logger = slog.Default()
		return nil
	}
	level := a.Config.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	logger, closer, err := logging.Init(logging.Options{
		File:       a.Config.Log.File,
		Level:      level,
		MaxSizeMB:  a.Config.Log.MaxSizeMB,
		MaxBackups: a.Config.Log.MaxBackups,
		MaxAgeDays: a.Config.Log.MaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	a.Logger = logger
	a.closers = append(a.closers, func() { _ = closer.Close() })
	return nil
}

// openPrefs opens the SQLite store, falling back to memory so a broken
// database never stops the client.
func openPrefs(path string, logger *slog.Logger) prefs.Store {
	if path == "" {
		return prefs.NewMemoryStore()
	}
	store, err := prefs.OpenSQLite(path)
	if err != nil {
		logger.Warn("preferences not persisted", "path", path, "error", err)
		return prefs.NewMemoryStore()
	}
	return store
}

// Plain reports whether the plain variant is running.
func (a *App) Plain() bool {
	return a.Config.IsPlain()
}

// Start restores stored preferences and performs the startup fetch. The
// reactive variant lists sessions only when a token was restored; the plain
// variant always lists them.
func (a *App) Start(ctx context.Context) error {
	a.RestoreModel()

	if a.Plain() {
		_, err := a.Directory.List(ctx)
		return err
	}
	if !a.Auth.Restore() {
		return nil
	}
	_, err := a.Directory.List(ctx)
	return err
}

// RestoreModel selects the model for this run: the per-run override, then
// the stored choice, then the configured default. It makes no requests.
func (a *App) RestoreModel() string {
	model := a.modelOverride
	if model == "" {
		model = prefs.GetOr(a.Prefs, prefs.KeySelectedModel, a.Config.Client.DefaultModel)
	}
	a.State.SetModel(model)
	return model
}

// SetModel selects the model sent with each message and remembers it.
func (a *App) SetModel(name string) error {
	if name == "" {
		return conversation.ErrSkipped
	}
	a.State.SetModel(name)
	if err := a.Prefs.Set(prefs.KeySelectedModel, name); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// Login logs in through the auth gate. It fails in the plain variant.
func (a *App) Login(ctx context.Context, username, password string) error {
	if a.Plain() {
		return ErrPlainVariant
	}
	return a.Auth.Login(ctx, username, password)
}

// Register creates an account. It fails in the plain variant.
func (a *App) Register(ctx context.Context, username, password string) error {
	if a.Plain() {
		return ErrPlainVariant
	}
	return a.Auth.Register(ctx, username, password)
}

// Logout clears credentials and cached sessions.
func (a *App) Logout() error {
	if a.Plain() {
		return ErrPlainVariant
	}
	a.Auth.Logout()
	return nil
}

// Send posts text to the current session and calls onFragment for every
// fragment of the reply. The plain variant sends no model name and reloads
// history from the server once the reply is complete.
func (a *App) Send(ctx context.Context, text string, onFragment func(string)) (string, error) {
	if a.Plain() {
		return a.Conversation.SendAndReload(ctx, text, onFragment)
	}

	reply, err := a.Conversation.Send(ctx, text, "")
	if err != nil {
		return "", err
	}
	return reply.Process(ctx, onFragment)
}

// Close releases the preference store, telemetry and the log file.
func (a *App) Close() error {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	return nil
}

var _ io.Closer = (*App)(nil)
