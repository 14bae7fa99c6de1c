package core

import (
	"encoding/json"
	"strconv"
)

// RequestType tags an inbound command request.
type RequestType string

const (
	RequestSetMode  RequestType = "set_mode"
	RequestTakeoff  RequestType = "takeoff"
	RequestSlamPose RequestType = "slam_pose"
	RequestCSVStart RequestType = "csv_start"
	RequestCSVStop  RequestType = "csv_stop"
)

// Request is one decoded command line from the inbound channel.
// RequestID is opaque and echoed back verbatim in the result.
// Mode and Altitude are loosely typed: the channel contract tolerates
// numeric strings and missing fields.
type Request struct {
	Type      string          `json:"type"`
	RequestID json.RawMessage `json:"request_id"`
	Mode      any             `json:"mode"`
	Altitude  any             `json:"altitude"`
	Data      map[string]any  `json:"data"`
}

// ResultKinds maps request types to their outbound result event types.
// Request types absent from this map complete silently.
var ResultKinds = map[RequestType]string{
	RequestSetMode:  "mode_result",
	RequestTakeoff:  "takeoff_result",
	RequestCSVStart: "csv_start_result",
	RequestCSVStop:  "csv_stop_result",
}

// AsFloat coerces a loosely typed JSON value to a float64.
// Accepts numbers and numeric strings; everything else resolves to false.
func AsFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// AsString coerces a loosely typed JSON value to a string.
func AsString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		return ""
	}
}
