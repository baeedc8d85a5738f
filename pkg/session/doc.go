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

// Package session implements the debug-session engine: the lifecycle state
// machine, the call-stack cache, the variable resolver, and the watch
// evaluator.
//
// # State Machine
//
// A session moves inactive -> running -> paused and back, with a distinct
// terminal stopped state when the debuggee exits on its own. Control
// commands are two-phase: the local side clears derived caches and
// pre-transitions before the request is issued, and the authoritative
// transition is applied when the adapter's event arrives. Commands issued
// from a state that forbids them fail with InvalidStateError and never alter
// session state.
//
// # Generations
//
// Two counters keep asynchronous results honest. The session generation is
// bumped on every start and reset so completions belonging to a previous
// session are discarded. The stop generation is bumped on every transition
// out of paused so variable-reference handles from a previous stop event can
// never resolve to cached children.
//
// # Event Fan-Out
//
// Consumers subscribe to engine events (state changes, new call stacks,
// watch results, debuggee output) through the EventEmitter. The controller
// never calls listeners while holding its lock.
package session
