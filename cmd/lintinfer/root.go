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
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/lintinfer/cmd/lintinfer/config"
	"github.com/AleutianAI/lintinfer/pkg/logging"
	"github.com/AleutianAI/lintinfer/pkg/ux"
	"github.com/AleutianAI/lintinfer/services/autoconfig/interview"
)

// app carries the process-wide state shared by subcommands.
type app struct {
	stdin          io.Reader
	stdout, stderr io.Writer
	lookupEnv      func(string) (string, bool)

	// prompter overrides the interactive prompter used by init.
	prompter interview.Prompter

	configPath string
	logLevel   string
	outputMode string

	cfg     config.Config
	logger  *logging.Logger
	mode    ux.Mode
	printer *ux.Printer
}

func newApp() *app {
	return &app{
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		lookupEnv: os.LookupEnv,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "lintinfer",
		Short: "Infer a lint configuration from existing code",
		Long: `lintinfer samples a code base, tries every option combination of every
lint rule against it, and writes the configuration that matches how the
code is already written.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.teardown()
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", config.DefaultPath, "application config file")
	f.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&a.outputMode, "output-mode", "", "terminal output: rich, plain, machine")

	root.AddCommand(
		newInferCmd(a),
		newInitCmd(a),
		newCatalogCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration and installs the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, cmd.Flags().Changed("config"), a.lookupEnv)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	a.cfg = cfg
	a.logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		JSON:    cfg.Logging.JSON,
		Service: "lintinfer",
		Writer:  a.stderr,
	})
	a.logger.SetDefault()

	if a.outputMode != "" {
		a.mode = ux.ParseMode(a.outputMode)
	} else {
		a.mode = ux.DetectMode(a.stderr)
	}
	a.printer = ux.NewPrinter(a.stderr, a.mode)
	return nil
}

func (a *app) teardown() error {
	if a.logger == nil {
		return nil
	}
	return a.logger.Close()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the lintinfer version",
		Args:  cobra.NoArgs,
		// Skip configuration loading so a broken config never hides the version.
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lintinfer %s\n", version)
		},
	}
}
