// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// setup.go - First-run wizard.
//
// Command: setup
// Aliases: wizard
//
// Asks for the server URL, the variant and the default model, then writes
// config.toml. Pressing Enter keeps the value shown in brackets.

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/sessionchat/internal/config"
)

// SetupAnswers are the values collected by the wizard.
type SetupAnswers struct {
	BaseURL      string
	Variant      string
	DefaultModel string
}

// HandleSetup runs the wizard and saves the result.
func HandleSetup(w io.Writer, p *Prompter, current *config.Config, jsonMode bool) error {
	if jsonMode {
		return fmt.Errorf("setup is interactive; use 'config set' with --json")
	}

	fmt.Fprintln(w, TitleStyle.Render("sessionchat setup"))
	answers, err := runWizard(p, current)
	if err != nil {
		return err
	}

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
	fileCfg.API.BaseURL = answers.BaseURL
	fileCfg.Client.Variant = answers.Variant
	fileCfg.Client.DefaultModel = answers.DefaultModel
	if err := fileCfg.Validate(); err != nil {
		return err
	}

	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	if err := config.SaveTOML(fileCfg, path); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s Saved %s\n", SuccessStyle.Render("[OK]"), path)
	if answers.Variant == config.VariantReactive {
		fmt.Fprintln(w, DimStyle.Render("Next: sessionchat register, then sessionchat login"))
	} else {
		fmt.Fprintln(w, DimStyle.Render("Next: sessionchat chat"))
	}
	return nil
}

func runWizard(p *Prompter, current *config.Config) (SetupAnswers, error) {
	answers := SetupAnswers{
		BaseURL:      current.API.BaseURL,
		Variant:      current.Client.Variant,
		DefaultModel: current.Client.DefaultModel,
	}

	var err error
	if answers.BaseURL, err = ask(p, "Server URL", answers.BaseURL); err != nil {
		return answers, err
	}

	for {
		v, err := ask(p, "Variant (reactive/plain)", answers.Variant)
		if err != nil {
			return answers, err
		}
		v = strings.ToLower(v)
		if v == config.VariantReactive || v == config.VariantPlain {
			answers.Variant = v
			break
		}
		fmt.Fprintln(p.Out, WarningStyle.Render("Please answer reactive or plain."))
	}

	if answers.DefaultModel, err = ask(p, "Default model", answers.DefaultModel); err != nil {
		return answers, err
	}
	return answers, nil
}

// ask prompts with a default shown in brackets.
func ask(p *Prompter, label, def string) (string, error) {
	answer, err := p.Line(fmt.Sprintf("%s [%s]: ", label, def))
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}
