// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-josekit.
//
// go-josekit is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package metrics provides Prometheus instrumentation for josekit operations.
// Counters and histograms live in a dedicated Registry so a command can dump
// exactly what it did, without the Go runtime collectors of the default one.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all josekit metrics
	Namespace = "josekit"

	// Label names
	LabelOperation = "operation"
	LabelAlgorithm = "algorithm"
	LabelStatus    = "status"
	LabelErrorType = "error_type"
	LabelAttack    = "attack"
	LabelKind      = "kind"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Operation names
	OpDecode   = "decode"
	OpSign     = "sign"
	OpVerify   = "verify"
	OpEncrypt  = "encrypt"
	OpDecrypt  = "decrypt"
	OpAttack   = "attack"
	OpGenerate = "generate"
	OpConvert  = "convert"
	OpScan     = "scan"
)

var (
	// Registry holds every josekit collector.
	Registry = prometheus.NewRegistry()

	factory = promauto.With(Registry)

	// OperationsTotal tracks engine operations by type, algorithm and status.
	OperationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of josekit operations by type, algorithm, and status",
		},
		[]string{LabelOperation, LabelAlgorithm, LabelStatus},
	)

	// OperationDuration tracks the duration of operations in seconds.
	// Buckets cover HMAC at the low end and RSA-4096 generation at the high end.
	OperationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of josekit operations in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{LabelOperation, LabelAlgorithm},
	)

	// ErrorsTotal tracks failures by operation and error type
	// (e.g. "malformed_token", "key_mismatch", "decryption_failed").
	ErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of errors by operation and error type",
		},
		[]string{LabelOperation, LabelErrorType},
	)

	// AttacksTotal counts forged tokens by attack name.
	AttacksTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "attacks_total",
			Help:      "Total number of forged tokens by attack",
		},
		[]string{LabelAttack},
	)

	// TokensFound counts tokens located by the scanner.
	TokensFound = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tokens_found_total",
			Help:      "Total number of tokens found by the scanner by kind",
		},
		[]string{LabelKind},
	)

	// enabled tracks whether metrics collection is enabled
	enabled atomic.Bool
)

func init() {
	enabled.Store(true)
}

// RecordOperation records an operation with its duration in seconds.
//
// Example:
//
//	start := time.Now()
//	signed, err := engine.Sign(jws, key)
//	status := metrics.StatusSuccess
//	if err != nil {
//	    status = metrics.StatusError
//	}
//	metrics.RecordOperation(metrics.OpSign, jws.Algorithm(), status, time.Since(start).Seconds())
func RecordOperation(operation, algorithm, status string, duration float64) {
	if !enabled.Load() {
		return
	}
	OperationsTotal.WithLabelValues(operation, algorithm, status).Inc()
	OperationDuration.WithLabelValues(operation, algorithm).Observe(duration)
}

// RecordError records an error event.
func RecordError(operation, errorType string) {
	if !enabled.Load() {
		return
	}
	ErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordAttack records one forged token.
func RecordAttack(attack string) {
	if !enabled.Load() {
		return
	}
	AttacksTotal.WithLabelValues(attack).Inc()
}

// RecordTokensFound adds n to the scanner count for kind.
func RecordTokensFound(kind string, n int) {
	if !enabled.Load() || n <= 0 {
		return
	}
	TokensFound.WithLabelValues(kind).Add(float64(n))
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
// Useful for testing or when metrics are not desired.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
