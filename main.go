// sessionchat - a terminal client for a session-based chat API.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/sessionchat/internal/app"
	"github.com/jeranaias/sessionchat/internal/cli"
	"github.com/jeranaias/sessionchat/internal/config"
	"github.com/jeranaias/sessionchat/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])
	if err := run(cmd, args); err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		os.Exit(cli.GetExitCode(err))
	}
}

// run routes cmd to its handler. Handlers return errors; main owns the
// exit code.
func run(cmd cli.Command, args cli.Args) error {
	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return nil
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
		return nil
	case cli.CmdUnknown:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args.Name)
		if s := cli.SuggestCommand(args.Name); s != "" {
			fmt.Fprintf(os.Stderr, "Did you mean: %s?\n", s)
		}
		return &cli.UsageError{Command: args.Name, Usage: "sessionchat <command> [args]; run 'sessionchat help' for the list"}
	}

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	switch cmd {
	case cli.CmdConfig:
		return cli.HandleConfig(os.Stdout, cfg, args)
	case cli.CmdSetup:
		return cli.HandleSetup(os.Stderr, cli.NewPrompter(os.Stdin, os.Stderr), cfg, args.JSON)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.Options{
		Version: Version,
		Verbose: args.Verbose,
		Model:   args.Model,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	r := cli.NewRunner(a, args)
	switch cmd {
	case cli.CmdTUI:
		return chat.Run(ctx, a)
	case cli.CmdChat:
		return cli.HandleChat(ctx, r)
	case cli.CmdAsk:
		return cli.HandleAsk(ctx, r)
	case cli.CmdSessions:
		return cli.HandleSessions(ctx, r)
	case cli.CmdLogin:
		return cli.HandleLogin(ctx, r)
	case cli.CmdRegister:
		return cli.HandleRegister(ctx, r)
	case cli.CmdLogout:
		return cli.HandleLogout(r)
	case cli.CmdAuth:
		return cli.HandleAuth(r)
	case cli.CmdModel:
		return cli.HandleModel(r)
	case cli.CmdDoctor:
		return cli.HandleDoctor(ctx, r)
	}
	return nil
}

// loadConfig reads the config file and applies the global flags. A broken
// file is reported and defaults are used; invalid values are fatal.
func loadConfig(args cli.Args) (*config.Config, error) {
	cfg, err := config.Load()
	if cfg == nil {
		return nil, err
	}
	if err != nil && !args.Quiet {
		fmt.Fprintf(os.Stderr, "%s %v (using defaults)\n", cli.WarningStyle.Render("[Warning]"), err)
	}

	if args.URL != "" {
		cfg.API.BaseURL = args.URL
	}
	if args.Plain {
		cfg.Client.Variant = config.VariantPlain
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
