package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyfield-io/mavbridge/internal/bridge/core"
	"github.com/skyfield-io/mavbridge/internal/bridge/state"
)

func TestStartRecordingResult(t *testing.T) {
	rig := newTestRig(TakeoffTimeouts{})

	payload, err := rig.exec.StartRecording(core.Request{Type: "csv_start"})
	require.NoError(t, err)
	assert.Equal(t, "started", payload["status"])
	assert.NotEmpty(t, payload["session_id"])
	assert.True(t, rig.rec.Active())

	assert.Equal(t, "CSV: recording", rig.store.Snapshot().Status)

	events := rig.emitter.all()
	require.Len(t, events, 1)
	te, ok := events[0].(core.TelemetryEvent)
	require.True(t, ok)
	snap := te.Data.(state.Snapshot)
	assert.Equal(t, "CSV: recording", snap.Status)
}

func TestStopRecordingResult(t *testing.T) {
	rig := newTestRig(TakeoffTimeouts{})
	rig.exec.StartRecording(core.Request{Type: "csv_start"})

	rig.exec.StorePose(core.Request{
		Type: "slam_pose",
		Data: map[string]any{"x": 1.0, "y": 2.0, "z": 3.0},
	})

	payload, err := rig.exec.StopRecording(core.Request{Type: "csv_stop"})
	require.NoError(t, err)
	assert.NotEmpty(t, payload["csv"])
	assert.Regexp(t, `^slam-log-\d+\.csv$`, payload["file_name"])
	assert.False(t, rig.rec.Active())
}

func TestStopRecordingWithoutSession(t *testing.T) {
	rig := newTestRig(TakeoffTimeouts{})

	_, err := rig.exec.StopRecording(core.Request{Type: "csv_stop"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrRecorderInactive))
}
