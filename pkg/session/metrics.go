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

package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debugcore_session_transitions_total",
			Help: "Total number of session state transitions",
		},
		[]string{"from", "to"},
	)

	resolverLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debugcore_resolver_lookups_total",
			Help: "Variable resolver lookups by cache result",
		},
		[]string{"result"},
	)

	watchEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debugcore_watch_evaluations_total",
			Help: "Watch expression evaluations by outcome",
		},
		[]string{"outcome"},
	)

	stopEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "debugcore_stop_events_total",
			Help: "Total number of stop events processed",
		},
	)

	stackFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "debugcore_stack_fetch_duration_seconds",
			Help:    "Time to fetch a call stack after a stop event",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func recordTransition(from, to string) {
	stateTransitions.WithLabelValues(from, to).Inc()
}

func recordResolverLookup(result string) {
	resolverLookups.WithLabelValues(result).Inc()
}

func recordWatchEvaluation(outcome string) {
	watchEvaluations.WithLabelValues(outcome).Inc()
}
