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

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sprintloop/debugcore/internal/config"
	"github.com/sprintloop/debugcore/internal/log"
	"github.com/sprintloop/debugcore/internal/shell"
	"github.com/sprintloop/debugcore/internal/store/sqlite"
	"github.com/sprintloop/debugcore/pkg/breakpoints"
	"github.com/sprintloop/debugcore/pkg/dap"
	"github.com/sprintloop/debugcore/pkg/dap/client"
	"github.com/sprintloop/debugcore/pkg/session"
)

// NewDebugCommand creates the debug command: start a session from a launch
// configuration and drop into the interactive prompt.
func NewDebugCommand() *cobra.Command {
	var noPersist bool

	cmd := &cobra.Command{
		Use:   "debug [configuration]",
		Short: "Start a debug session",
		Long: `Start a debug session from a named launch configuration and open the
interactive prompt. With a single configuration in the launch file the name
can be omitted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runDebug(cmd, name, noPersist)
		},
	}

	cmd.Flags().BoolVar(&noPersist, "no-persist", false, "do not persist breakpoints across runs")

	return cmd
}

func runDebug(cmd *cobra.Command, name string, noPersist bool) error {
	logger := newLogger(cmd)
	ctx := cmd.Context()

	cfg, err := loadLaunchConfig(cmd, name)
	if err != nil {
		return err
	}

	registry, cleanup, err := newRegistry(logger, noPersist)
	if err != nil {
		return err
	}
	defer cleanup()

	dial := func(ctx context.Context, cfg dap.LaunchConfig) (dap.Transport, error) {
		return client.Dial(ctx, cfg.Adapter, logger)
	}
	controller := session.NewController(dial, registry, logger)

	fmt.Fprintf(cmd.OutOrStdout(), "starting %q against %s\n", cfg.Name, cfg.Adapter)
	if err := controller.Start(ctx, cfg); err != nil {
		return err
	}
	defer controller.Stop(context.Background())

	return shell.NewShell(controller, registry).Run(ctx)
}

// loadLaunchConfig resolves the launch file and selects a configuration.
func loadLaunchConfig(cmd *cobra.Command, name string) (dap.LaunchConfig, error) {
	path, _ := cmd.Flags().GetString("launch-file")
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return dap.LaunchConfig{}, err
		}
	}

	file, err := config.Load(path)
	if err != nil {
		return dap.LaunchConfig{}, err
	}
	return file.Select(name)
}

// newRegistry builds the breakpoint registry, backed by the SQLite store
// unless persistence is disabled.
func newRegistry(logger *slog.Logger, noPersist bool) (*breakpoints.Registry, func(), error) {
	if noPersist {
		return breakpoints.NewRegistry(nil, logger), func() {}, nil
	}

	dataDir, err := config.DataDir()
	if err != nil {
		return nil, nil, err
	}
	store, err := sqlite.New(sqlite.Config{
		Path: filepath.Join(dataDir, "breakpoints.db"),
		WAL:  true,
	})
	if err != nil {
		// A broken store should not block debugging; fall back to memory.
		logger.Warn("breakpoint store unavailable, persistence disabled", log.Error(err))
		return breakpoints.NewRegistry(nil, logger), func() {}, nil
	}

	return breakpoints.NewRegistry(store, logger), func() { store.Close() }, nil
}
