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

// Package dap defines the data model shared by the debug engine and the
// contract for reaching a debug adapter.
//
// # Data Model
//
// The types here mirror the shapes a Debug Adapter Protocol adapter reports:
// stack frames with source locations, named variable scopes, and variables
// addressed through opaque numeric reference handles. Reference handles are
// only meaningful between one stop event and the next; the session package
// enforces this with generation counters.
//
// # Transport
//
// Transport is the engine's only external boundary. Control requests
// (continue, pause, step) are acknowledged synchronously, but completion is
// signalled by a later event on the Events channel — the adapter, not the
// engine, is the source of truth for program location. The client
// subpackage provides the wire implementation over TCP.
package dap
