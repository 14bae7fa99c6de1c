package command

import (
	"time"

	"github.com/skyfield-io/mavbridge/internal/bridge/core"
	"github.com/skyfield-io/mavbridge/internal/pkg/metrics"
)

// recordingStatusHold keeps the recording status visible briefly without
// blocking lifecycle updates for the full default hold.
const recordingStatusHold = 2 * time.Second

// StartRecording opens a recording session. Starting while a session is
// active replaces the buffered rows of the old one.
func (e *Executors) StartRecording(_ core.Request) (map[string]any, error) {
	sessionID := e.rec.Start()
	metrics.RecordingActive.Set(1)

	e.setStatus("CSV: recording", recordingStatusHold)

	return map[string]any{
		"status":     "started",
		"session_id": sessionID,
	}, nil
}

// StopRecording closes the session and returns the exported CSV.
func (e *Executors) StopRecording(_ core.Request) (map[string]any, error) {
	export, err := e.rec.Stop()
	if err != nil {
		return nil, err
	}
	metrics.RecordingActive.Set(0)

	return map[string]any{
		"csv":       export.CSV,
		"file_name": export.FileName,
	}, nil
}
