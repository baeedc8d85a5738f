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

// Package breakpoints owns the set of source breakpoints, indexed by file.
//
// Breakpoints exist independently of any debug session: they persist before,
// during, and after a session and are never invalidated by resume or stop.
// The registry is authoritative for enabled/disabled display; adapter
// acknowledgement latency never rolls back local state.
//
// Mutations are pushed to an optional Sink (the session controller forwards
// them to the adapter) and written through to an optional Store for
// persistence across restarts.
package breakpoints
