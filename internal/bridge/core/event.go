package core

// Emitter delivers outbound events to the consumer. Implementations must be
// safe for concurrent use; executors and the ingest loop emit concurrently.
type Emitter interface {
	Emit(v any)
}

// LogEvent is an operator-facing log line on the event channel.
type LogEvent struct {
	Type    string `json:"type"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// NewLogEvent builds a log event. Level is "info" or "error".
func NewLogEvent(level, message string) LogEvent {
	return LogEvent{Type: "log", Level: level, Message: message}
}

// TelemetryEvent carries a full vehicle state snapshot.
type TelemetryEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// NewTelemetryEvent wraps a snapshot for emission.
func NewTelemetryEvent(snapshot any) TelemetryEvent {
	return TelemetryEvent{Type: "telemetry", Data: snapshot}
}
