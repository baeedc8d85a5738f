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

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got %q", cfg.Level)
	}

	if cfg.Format != FormatJSON {
		t.Errorf("expected default format 'json', got %q", cfg.Format)
	}

	if cfg.Output != os.Stderr {
		t.Errorf("expected default output to be os.Stderr")
	}

	if cfg.AddSource {
		t.Errorf("expected default AddSource to be false")
	}
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name      string
		envVars   map[string]string
		wantLevel string
		wantSrc   bool
	}{
		{
			name:      "defaults when no env vars",
			envVars:   map[string]string{},
			wantLevel: "info",
		},
		{
			name:      "DEBUGCORE_DEBUG enables debug and source",
			envVars:   map[string]string{"DEBUGCORE_DEBUG": "1"},
			wantLevel: "debug",
			wantSrc:   true,
		},
		{
			name:      "DEBUGCORE_LOG_LEVEL takes precedence over LOG_LEVEL",
			envVars:   map[string]string{"DEBUGCORE_LOG_LEVEL": "warn", "LOG_LEVEL": "error"},
			wantLevel: "warn",
		},
		{
			name:      "LOG_LEVEL used when nothing else set",
			envVars:   map[string]string{"LOG_LEVEL": "Trace"},
			wantLevel: "trace",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := FromEnv()
			if cfg.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", cfg.Level, tt.wantLevel)
			}
			if cfg.AddSource != tt.wantSrc {
				t.Errorf("AddSource = %v, want %v", cfg.AddSource, tt.wantSrc)
			}
		})
	}
}

func TestNewJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "debug", Format: FormatJSON, Output: &buf})

	logger.Debug("variables resolved", slog.Int(GenerationKey, 3))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["msg"] != "variables resolved" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry[GenerationKey] != float64(3) {
		t.Errorf("generation = %v", entry[GenerationKey])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"trace", LevelTrace},
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWithSessionContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatText, Output: &buf})

	WithSessionContext(logger, "abc-123").Info("session started")

	if !strings.Contains(buf.String(), "session_id=abc-123") {
		t.Errorf("expected session_id field, got %q", buf.String())
	}
}

func TestTraceSuppressedAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatText, Output: &buf})

	Trace(logger, "wire message")

	if buf.Len() != 0 {
		t.Errorf("trace output should be suppressed at info level, got %q", buf.String())
	}
}
