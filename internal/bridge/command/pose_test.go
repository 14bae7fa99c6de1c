package command

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyfield-io/mavbridge/internal/bridge/core"
)

func TestStorePoseNormalizesSecondsTimestamp(t *testing.T) {
	rig := newTestRig(TakeoffTimeouts{})

	rig.exec.StorePose(core.Request{
		Type: "slam_pose",
		Data: map[string]any{
			"timestamp": 1700000000.75, // seconds scale
			"x":         1.0, "y": 2.0, "z": 3.0,
		},
	})

	snap := rig.store.Snapshot()
	require.NotNil(t, snap.LastSlamTimestamp)
	assert.Equal(t, int64(1700000000000), *snap.LastSlamTimestamp, "seconds are truncated then scaled")
	require.NotNil(t, snap.LastSlamHostTimestamp)
	require.NotNil(t, snap.LastSlamDeltaMs)
}

func TestStorePoseMillisecondsPassThrough(t *testing.T) {
	rig := newTestRig(TakeoffTimeouts{})

	rig.exec.StorePose(core.Request{
		Type: "slam_pose",
		Data: map[string]any{
			"timestamp": 1700000000123.0,
			"x":         0.0, "y": 0.0, "z": 0.0,
		},
	})

	snap := rig.store.Snapshot()
	require.NotNil(t, snap.LastSlamTimestamp)
	assert.Equal(t, int64(1700000000123), *snap.LastSlamTimestamp)
}

func TestStorePoseDropsIncompletePayloads(t *testing.T) {
	rig := newTestRig(TakeoffTimeouts{})

	rig.exec.StorePose(core.Request{Type: "slam_pose"})
	rig.exec.StorePose(core.Request{
		Type: "slam_pose",
		Data: map[string]any{"x": 1.0, "y": 2.0}, // z missing
	})

	snap := rig.store.Snapshot()
	assert.Nil(t, snap.LastSlamTimestamp)
	assert.Empty(t, rig.emitter.all(), "pose ingestion never emits events")
}

func TestStorePoseFeedsActiveRecorder(t *testing.T) {
	rig := newTestRig(TakeoffTimeouts{})
	rig.rec.Start()

	rig.exec.StorePose(core.Request{
		Type: "slam_pose",
		Data: map[string]any{"x": 1.0, "y": 2.0, "z": 3.0},
	})

	snap := rig.store.Snapshot()
	require.NotNil(t, snap.LastLogDeltaMs, "an appended row records its clock delta")

	export, err := rig.rec.Stop()
	require.NoError(t, err)
	assert.Equal(t, 1, export.Rows)
}

// Each request runs on its own goroutine, so pose samples can land
// concurrently; exercises the estimator under the race detector.
func TestStorePoseConcurrentSamples(t *testing.T) {
	rig := newTestRig(TakeoffTimeouts{})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				rig.exec.StorePose(core.Request{
					Type: "slam_pose",
					Data: map[string]any{
						"timestamp": float64(1700000000000 + g*1000 + i),
						"x":         1.0, "y": 2.0, "z": 3.0,
					},
				})
			}
		}(g)
	}
	wg.Wait()

	snap := rig.store.Snapshot()
	require.NotNil(t, snap.LastSlamTimestamp)
	require.NotNil(t, snap.LastSlamDeltaMs)
}

func TestStorePoseInactiveRecorderNoDelta(t *testing.T) {
	rig := newTestRig(TakeoffTimeouts{})

	rig.exec.StorePose(core.Request{
		Type: "slam_pose",
		Data: map[string]any{"x": 1.0, "y": 2.0, "z": 3.0},
	})

	assert.Nil(t, rig.store.Snapshot().LastLogDeltaMs)
}
