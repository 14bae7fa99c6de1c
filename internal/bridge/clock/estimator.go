// Package clock reconciles device clock domains with the host clock.
//
// Two independent estimators run in the bridge: one for the vehicle boot
// clock carried in position messages, one for the external pose source.
// Both use the same offset rule: the offset is established on the first
// sample and recomputed whenever the device clock is observed to decrease,
// which covers device reboots and counter wraparound.
package clock

import (
	"fmt"
	"sync"

	"github.com/skyfield-io/mavbridge/pkg/log"
)

// SkewLogThresholdMs is the absolute skew above which a diagnostic line is
// logged, when diagnostic timing is enabled. Never throttled beyond this.
const SkewLogThresholdMs = 250

// Estimator tracks the offset between one device clock domain and the host.
// Samples may arrive from concurrent command executions, so observation is
// serialized internally.
type Estimator struct {
	name        string
	debugTiming bool

	mu          sync.Mutex
	offset      int64
	lastDevice  int64
	initialized bool
}

// NewEstimator creates an estimator for the named clock domain.
// When debugTiming is set, skew beyond the threshold is logged.
func NewEstimator(name string, debugTiming bool) *Estimator {
	return &Estimator{name: name, debugTiming: debugTiming}
}

// Observe ingests one device timestamp (milliseconds, device domain) against
// the host observation time (milliseconds since epoch). It returns the
// estimated host-equivalent time for the sample and the resulting skew.
func (e *Estimator) Observe(deviceMs, hostMs int64) (estimatedHostMs, skewMs int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized || deviceMs < e.lastDevice {
		e.offset = hostMs - deviceMs
		e.initialized = true
	}
	e.lastDevice = deviceMs

	estimatedHostMs = e.offset + deviceMs
	skewMs = hostMs - estimatedHostMs

	if e.debugTiming && (skewMs > SkewLogThresholdMs || skewMs < -SkewLogThresholdMs) {
		log.Warn(fmt.Sprintf("%s timestamp skew", e.name),
			"skewMs", skewMs, "device", deviceMs, "offset", e.offset)
	}

	return estimatedHostMs, skewMs
}

// Offset returns the current device-to-host offset in milliseconds.
// Zero until the first sample is observed.
func (e *Estimator) Offset() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.offset
}

// poseSecondsCutoff distinguishes seconds-scale from milliseconds-scale
// pose timestamps: epoch values below 1e12 cannot be milliseconds.
const poseSecondsCutoff = 1e12

// NormalizePoseTimestamp applies the pose unit heuristic: values below 10^12
// are treated as seconds and scaled to milliseconds. Applies only to the
// externally supplied pose timestamp, never to vehicle-originated clocks.
func NormalizePoseTimestamp(v float64) int64 {
	ts := int64(v)
	if ts < poseSecondsCutoff {
		ts *= 1000
	}
	return ts
}
