// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for sessionchat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// .env and environment variable overrides, and validation.
//
// # Configuration Precedence
//
//   - Environment variables (SESSIONCHAT_*), including values from .env
//   - ~/.sessionchat/config.toml
//   - ~/.sessionchat/config.json
//   - Built-in defaults
//
// The directory can be moved with SESSIONCHAT_HOME.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := api.NewClient(cfg.API.BaseURL, cfg.RequestTimeout(), nil)
package config
