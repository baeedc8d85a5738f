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

// Package config loads debugcore launch configurations from YAML.
//
// A launch file holds named configurations, each describing how to reach a
// debug adapter and what to launch or attach to:
//
//	version: "1"
//	configurations:
//	  - name: api
//	    request: launch
//	    adapter: 127.0.0.1:38697
//	    program: ./cmd/api
//	    stopOnEntry: true
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sprintloop/debugcore/pkg/dap"
	"github.com/sprintloop/debugcore/pkg/errors"
)

// DefaultFileName is the launch file looked up in the config directory and
// the working directory.
const DefaultFileName = "launch.yaml"

// File is a parsed launch configuration file.
type File struct {
	Version        string             `yaml:"version"`
	Configurations []dap.LaunchConfig `yaml:"configurations"`
}

// DefaultPath returns the launch file path, preferring a launch.yaml in the
// working directory over the one in the config directory.
func DefaultPath() (string, error) {
	if _, err := os.Stat(DefaultFileName); err == nil {
		return DefaultFileName, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultFileName), nil
}

// Load reads and validates a launch file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read launch file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates launch file content. Unknown fields are
// rejected so typos surface as errors instead of silently ignored options.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse launch file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks every configuration in the file.
func (f *File) Validate() error {
	if len(f.Configurations) == 0 {
		return &errors.ValidationError{
			Field:   "configurations",
			Message: "launch file defines no configurations",
		}
	}

	seen := make(map[string]bool, len(f.Configurations))
	for i, cfg := range f.Configurations {
		if cfg.Name == "" {
			return &errors.ValidationError{
				Field:   fmt.Sprintf("configurations[%d].name", i),
				Message: "name is required",
			}
		}
		if seen[cfg.Name] {
			return &errors.ValidationError{
				Field:   fmt.Sprintf("configurations[%d].name", i),
				Message: fmt.Sprintf("duplicate configuration name %q", cfg.Name),
			}
		}
		seen[cfg.Name] = true

		if err := validateConfig(cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateConfig(cfg dap.LaunchConfig) error {
	switch cfg.Request {
	case "launch":
		if cfg.Program == "" {
			return &errors.ValidationError{
				Field:   "program",
				Message: fmt.Sprintf("configuration %q launches but names no program", cfg.Name),
			}
		}
	case "attach":
	default:
		return &errors.ValidationError{
			Field:      "request",
			Message:    fmt.Sprintf("configuration %q has request %q", cfg.Name, cfg.Request),
			Suggestion: `use "launch" or "attach"`,
		}
	}

	if cfg.Adapter == "" {
		return &errors.ValidationError{
			Field:      "adapter",
			Message:    fmt.Sprintf("configuration %q names no adapter address", cfg.Name),
			Suggestion: "set adapter to the host:port the debug adapter listens on",
		}
	}
	return nil
}

// Select returns the named configuration. An empty name selects the only
// configuration when exactly one is defined.
func (f *File) Select(name string) (dap.LaunchConfig, error) {
	if name == "" {
		if len(f.Configurations) == 1 {
			return f.Configurations[0], nil
		}
		return dap.LaunchConfig{}, &errors.ValidationError{
			Field:      "name",
			Message:    fmt.Sprintf("launch file defines %d configurations", len(f.Configurations)),
			Suggestion: "name the configuration to start: " + strings.Join(f.Names(), ", "),
		}
	}

	for _, cfg := range f.Configurations {
		if cfg.Name == name {
			return cfg, nil
		}
	}
	return dap.LaunchConfig{}, &errors.NotFoundError{Resource: "configuration", ID: name}
}

// Names lists the configuration names in file order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Configurations))
	for _, cfg := range f.Configurations {
		names = append(names, cfg.Name)
	}
	return names
}
