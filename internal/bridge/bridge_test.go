package bridge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/csv"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyfield-io/mavbridge/internal/bridge/core"
	"github.com/skyfield-io/mavbridge/internal/bridge/link"
	"github.com/skyfield-io/mavbridge/internal/bridge/recorder"
	"github.com/skyfield-io/mavbridge/internal/bridge/state"
	"github.com/skyfield-io/mavbridge/internal/pkg/metrics"
	"github.com/skyfield-io/mavbridge/pkg/options"
)

type captureEmitter struct {
	mu     sync.Mutex
	events []any
}

func (c *captureEmitter) Emit(v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, v)
}

func (c *captureEmitter) all() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.events...)
}

func TestFanoutDeliversToAllEmitters(t *testing.T) {
	a := &captureEmitter{}
	b := &captureEmitter{}

	f := newFanout(a)
	f.add(b)
	f.Emit(core.NewLogEvent("info", "x"))

	require.Len(t, a.all(), 1)
	require.Len(t, b.all(), 1)
}

func TestHandleMessageEmitsSnapshotAndFeedsRecorder(t *testing.T) {
	emitter := &captureEmitter{}
	br := &Bridge{
		store:   state.NewStore(state.Options{}),
		rec:     recorder.New(nil),
		emitter: newFanout(emitter),
	}
	br.rec.Start()

	br.handleMessage(core.GlobalPosition{
		TimeBootMs:  1000,
		Lat:         -74000000,
		Lon:         1491652370,
		Alt:         584000,
		RelativeAlt: 12500,
	})

	events := emitter.all()
	require.Len(t, events, 1)
	te, ok := events[0].(core.TelemetryEvent)
	require.True(t, ok)
	snap := te.Data.(state.Snapshot)
	require.NotNil(t, snap.RelativeAlt)
	assert.Equal(t, 12.5, *snap.RelativeAlt)

	// The recorder has a position to join against the next pose sample.
	delta := br.rec.ObservePose(recorder.PoseSample{Timestamp: 1, X: 0, Y: 0, Z: 0})
	require.NotNil(t, delta)

	export, err := br.rec.Stop()
	require.NoError(t, err)
	assert.Equal(t, 1, export.Rows)
}

// Position samples must carry the host receive time. The boot-clock estimate
// drifts with the vehicle clock and would make exported rows arbitrarily stale.
func TestPositionSampleUsesHostTimestamp(t *testing.T) {
	now := time.Unix(1700000000, 0)
	emitter := &captureEmitter{}
	br := &Bridge{
		store:   state.NewStore(state.Options{Clock: func() time.Time { return now }}),
		rec:     recorder.New(func() time.Time { return now }),
		emitter: newFanout(emitter),
	}
	br.rec.Start()

	br.handleMessage(core.GlobalPosition{TimeBootMs: 1000, Lat: 10000000})
	now = now.Add(10 * time.Second)
	br.handleMessage(core.GlobalPosition{TimeBootMs: 1500, Lat: 20000000})

	br.rec.ObservePose(recorder.PoseSample{Timestamp: now.UnixMilli(), X: 1, Y: 2, Z: 3})
	export, err := br.rec.Stop()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(export.CSV)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	wantHost := strconv.FormatInt(now.UnixMilli(), 10)
	assert.Equal(t, wantHost, records[1][5], "timestamp_mavlink column is host-assigned")
}

func TestShutdownExitIsNotAReconnectCycle(t *testing.T) {
	before := testutil.ToFloat64(metrics.LinkReconnects)

	br := &Bridge{
		cfg: &Config{Link: &options.LinkOptions{
			Address:          "sim:",
			HandshakeTimeout: time.Second,
			ReconnectBackoff: 10 * time.Millisecond,
		}},
		store:   state.NewStore(state.Options{}),
		rec:     recorder.New(nil),
		session: link.NewSession(),
		emitter: newFanout(&captureEmitter{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = br.ingestLoop(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return br.session.Connected() }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("ingest loop did not stop")
	}

	assert.Equal(t, before, testutil.ToFloat64(metrics.LinkReconnects),
		"cancellation must not count as a reconnect")
}

func TestHandleMessageHeartbeatNoPositionUpdate(t *testing.T) {
	emitter := &captureEmitter{}
	br := &Bridge{
		store:   state.NewStore(state.Options{}),
		rec:     recorder.New(nil),
		emitter: newFanout(emitter),
	}

	br.handleMessage(core.Heartbeat{SystemStatus: core.StatusActive, ModeName: "GUIDED"})

	events := emitter.all()
	require.Len(t, events, 1)
	snap := events[0].(core.TelemetryEvent).Data.(state.Snapshot)
	assert.True(t, snap.Armed == false)
	assert.Equal(t, "GUIDED", snap.Mode)
	assert.True(t, snap.Ready)
}
