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

package metrics

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

var (
	// MemoryAllocBytes is the heap in use when CollectOnce last ran.
	MemoryAllocBytes = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "memory_alloc_bytes",
			Help:      "Current bytes of allocated heap objects",
		},
	)

	// GCPauseTotalSeconds is the cumulative stop-the-world pause time.
	GCPauseTotalSeconds = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "gc_pause_total_seconds",
			Help:      "Cumulative time spent in GC stop-the-world pauses",
		},
	)
)

// CollectOnce updates the runtime gauges.
func CollectOnce() {
	if !IsEnabled() {
		return
	}
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	MemoryAllocBytes.Set(float64(memStats.Alloc))
	GCPauseTotalSeconds.Set(float64(memStats.PauseTotalNs) / 1e9)
}

// Timer measures one operation. Call Observe with the operation's error.
// algorithm should be a registered name, never raw token input.
//
//	timer := metrics.NewTimer(metrics.OpDecrypt, desc.Name)
//	plaintext, err := engine.Decrypt(jwe, key)
//	timer.Observe(err)
type Timer struct {
	operation string
	algorithm string
	start     time.Time
}

// NewTimer starts a timer for operation under algorithm.
func NewTimer(operation, algorithm string) *Timer {
	return &Timer{operation: operation, algorithm: algorithm, start: time.Now()}
}

// Observe records the operation as a success when err is nil and as an
// error of type "other" otherwise.
func (t *Timer) Observe(err error) {
	t.ObserveAs(err, "other")
}

// ObserveAs is Observe with the error type supplied by the caller.
func (t *Timer) ObserveAs(err error, errorType string) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
		RecordError(t.operation, errorType)
	}
	RecordOperation(t.operation, t.algorithm, status, time.Since(t.start).Seconds())
}

// Dump writes every josekit metric to w in the Prometheus text format.
func Dump(w io.Writer) error {
	CollectOnce()
	families, err := Registry.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	return writeFamilies(w, families)
}

func writeFamilies(w io.Writer, families []*dto.MetricFamily) error {
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if len(mf.GetMetric()) == 0 {
			continue
		}
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
