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

// Package client speaks the Debug Adapter Protocol over TCP.
//
// Client implements the engine's transport interface on top of the DAP wire
// format: Content-Length framed JSON messages, seq-correlated requests and
// responses, and adapter-initiated events. Requests from any goroutine are
// multiplexed over one connection; a single read loop demuxes responses to
// their waiters and forwards events to the engine.
package client
