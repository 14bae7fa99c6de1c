package topic

import (
	"fmt"
)

// Standard topic segments for the telemetry mirror.
// Structure: {root}/{segment}/{bridgeID}
const (
	// SuffixTelemetry carries full vehicle state snapshots.
	SuffixTelemetry = "telemetry"

	// SuffixResult carries command results.
	SuffixResult = "result"

	// SuffixLog carries operator-facing log lines.
	SuffixLog = "log"

	// SuffixOnline carries the retained online/offline status (also the last-will topic).
	SuffixOnline = "online"
)

// Builder constructs MQTT topic strings under a fixed root namespace.
type Builder struct {
	// root is the base namespace for all topics (e.g., "mav/v1").
	root string
}

// NewBuilder creates a new Builder with the specified root namespace.
func NewBuilder(root string) *Builder {
	return &Builder{root: root}
}

// Telemetry returns the topic for state snapshots from a specific bridge.
func (b *Builder) Telemetry(bridgeID string) string {
	return b.build(SuffixTelemetry, bridgeID)
}

// Result returns the topic for command results from a specific bridge.
func (b *Builder) Result(bridgeID string) string {
	return b.build(SuffixResult, bridgeID)
}

// Log returns the topic for log events from a specific bridge.
func (b *Builder) Log(bridgeID string) string {
	return b.build(SuffixLog, bridgeID)
}

// Online returns the retained status topic for a specific bridge.
func (b *Builder) Online(bridgeID string) string {
	return b.build(SuffixOnline, bridgeID)
}

// build constructs the final topic string. Pattern: {root}/{suffix}/{identifier}
func (b *Builder) build(suffix, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, suffix, id)
}
