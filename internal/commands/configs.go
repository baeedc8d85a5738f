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
	"github.com/spf13/cobra"

	"github.com/sprintloop/debugcore/internal/config"
)

// NewConfigsCommand creates the configs command, listing the launch
// configurations the debug command can start.
func NewConfigsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "configs",
		Short: "List launch configurations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("launch-file")
			if path == "" {
				var err error
				path, err = config.DefaultPath()
				if err != nil {
					return err
				}
			}

			file, err := config.Load(path)
			if err != nil {
				return err
			}

			for _, cfg := range file.Configurations {
				target := cfg.Program
				if cfg.Request == "attach" {
					target = "(attach)"
				}
				cmd.Printf("%-20s %-8s %-22s %s\n", cfg.Name, cfg.Request, cfg.Adapter, target)
			}
			return nil
		},
	}
}
