// Copyright 2025 SprintLoop Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package commands wires the debugcore command-line interface.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sprintloop/debugcore/internal/log"
)

// NewRootCommand creates the debugcore root command.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debugcore",
		Short: "Debug-session engine for DAP adapters",
		Long: `debugcore drives debug sessions against any Debug Adapter Protocol
adapter: launch or attach, set breakpoints, step, inspect variables, and
watch expressions from an interactive prompt.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringP("launch-file", "l", "", "path to the launch configuration file")

	return cmd
}

// newLogger builds the process logger, honoring the --verbose flag over the
// environment configuration.
func newLogger(cmd *cobra.Command) *slog.Logger {
	cfg := log.FromEnv()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Level = "debug"
		cfg.Format = log.FormatText
	}
	logger := log.New(cfg)
	slog.SetDefault(logger)
	return logger
}
