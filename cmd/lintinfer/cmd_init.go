// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/lintinfer/cmd/lintinfer/config"
	"github.com/AleutianAI/lintinfer/pkg/ux"
	"github.com/AleutianAI/lintinfer/services/autoconfig/interview"
)

func newInitCmd(a *app) *cobra.Command {
	var (
		save   bool
		output string
		noRun  bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Answer a few questions about the project, then infer its configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			prompter := a.prompter
			if prompter == nil {
				prompter = interview.HuhPrompter{
					Accessible: !ux.IsInteractive() || a.mode != ux.ModeRich,
					In:         a.stdin,
					Out:        a.stderr,
				}
			}

			a.printer.Title("lintinfer init")
			answers, err := interview.DefaultFlow().Run(prompter)
			if err != nil {
				if errors.Is(err, interview.ErrAborted) {
					a.printer.Warning("aborted")
				}
				return err
			}

			cfg := applyAnswers(a.cfg, answers)
			if cmd.Flags().Changed("output") {
				cfg.Output.Path = output
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			if save {
				if err := config.Save(a.configPath, cfg); err != nil {
					return err
				}
				slog.Info("saved configuration", slog.String("path", a.configPath))
				a.printer.Success("saved " + a.configPath)
			}
			if noRun {
				return nil
			}
			return runInfer(cmd.Context(), a, cfg, inferFlags{})
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "write the answers to the --config file")
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, or "-" for stdout`)
	cmd.Flags().BoolVar(&noRun, "no-run", false, "only record the answers")
	return cmd
}

// applyAnswers copies interview answers onto the project axes of cfg.
func applyAnswers(cfg config.Config, answers interview.Answers) config.Config {
	built := interview.ToConfigAnswers(answers)
	if len(built.Patterns) > 0 {
		cfg.Patterns = built.Patterns
	}
	if built.SourceType != "" {
		cfg.SourceType = string(built.SourceType)
	}
	cfg.Env = cfg.Env[:0:0]
	for _, env := range built.Env {
		cfg.Env = append(cfg.Env, string(env))
	}
	cfg.Framework = "none"
	if built.Framework != "" {
		cfg.Framework = string(built.Framework)
	}
	cfg.TypeScript = built.TypeScript
	if built.Format != "" {
		cfg.Output.Format = built.Format
	}
	return cfg
}
