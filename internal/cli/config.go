// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config and model commands.
//
// Command: config [subcommand]
//
// Subcommands:
//   show (default)      Display the effective configuration
//   path                Show the configuration file path
//   init                Write a default config.toml if none exists
//   set KEY VALUE       Set a value in config.toml
//
// Examples:
//   sessionchat config set api.base_url http://chat.example.com:8000
//   sessionchat config set client.variant plain
//   sessionchat config show --json
//
// Command: model [NAME]
//   Without NAME, prints the model sent with messages. With NAME, selects
//   it and remembers it in the preference store.

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/sessionchat/internal/config"
)

const configUsage = "sessionchat config [show|path|init|set KEY VALUE]"

// HandleConfig handles the "config" command. cfg is the effective
// configuration; set edits only the file, so environment overrides are
// never written back.
func HandleConfig(w io.Writer, cfg *config.Config, args Args) error {
	p := args.Parser()

	switch p.Subcommand() {
	case "", "show":
		return showConfig(w, cfg, args.JSON)
	case "path":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("config path", map[string]string{"path": path}).Print(w)
		}
		fmt.Fprintln(w, path)
		return nil
	case "init":
		return initConfig(w, args.JSON)
	case "set":
		key, value := p.Positional(1), JoinPositionalArgs(p, 2)
		if key == "" || p.PositionalCount() < 3 {
			return &UsageError{Command: "config set", Usage: "sessionchat config set KEY VALUE\nKeys: " + strings.Join(config.Keys(), ", ")}
		}
		return setConfig(w, key, value, args.JSON)
	default:
		return &UsageError{Command: "config " + p.Subcommand(), Usage: configUsage}
	}
}

func showConfig(w io.Writer, cfg *config.Config, jsonMode bool) error {
	if jsonMode {
		return NewJSONResponse("config show", cfg).Print(w)
	}
	fmt.Fprintln(w, TitleStyle.Render("sessionchat configuration"))
	for _, key := range config.Keys() {
		value, err := cfg.Get(key)
		if err != nil {
			continue
		}
		if value == "" {
			value = DimStyle.Render("(unset)")
		}
		fmt.Fprintf(w, "%s %s\n", LabelStyle.Width(28).Render(key), value)
	}
	return nil
}

func initConfig(w io.Writer, jsonMode bool) error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	if err := config.SaveTOML(config.Default(), path); err != nil {
		return err
	}
	if jsonMode {
		return NewJSONResponse("config init", map[string]string{"path": path}).Print(w)
	}
	fmt.Fprintf(w, "%s Wrote %s\n", SuccessStyle.Render("[OK]"), path)
	return nil
}

// setConfig applies key=value to the file configuration only.
func setConfig(w io.Writer, key, value string, jsonMode bool) error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}
	fileCfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if err := config.LoadTOML(fileCfg, path); err != nil {
			return err
		}
	}
	if err := fileCfg.Set(key, value); err != nil {
		return err
	}
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	if err := config.SaveTOML(fileCfg, path); err != nil {
		return err
	}

	if jsonMode {
		return NewJSONResponse("config set", map[string]string{"key": key, "value": value}).Print(w)
	}
	fmt.Fprintf(w, "%s %s = %s\n", SuccessStyle.Render("[OK]"), key, value)
	return nil
}

// HandleModel handles "model [NAME]". It makes no network requests.
func HandleModel(r *Runner) error {
	current := r.App.RestoreModel()
	name := JoinPositionalArgs(r.Args.Parser(), 0)

	if name == "" {
		if r.Args.JSON {
			return r.printJSON("model", map[string]string{"model": current})
		}
		fmt.Fprintln(r.Out, current)
		return nil
	}

	if err := r.App.SetModel(strings.TrimSpace(name)); err != nil {
		return err
	}
	if r.Args.JSON {
		return r.printJSON("model", map[string]string{"model": r.App.State.Model()})
	}
	fmt.Fprintf(r.Out, "%s Model set to %s\n", SuccessStyle.Render("[OK]"), r.App.State.Model())
	return nil
}
