package command

import (
	"github.com/skyfield-io/mavbridge/internal/bridge/clock"
	"github.com/skyfield-io/mavbridge/internal/bridge/core"
	"github.com/skyfield-io/mavbridge/internal/bridge/recorder"
	"github.com/skyfield-io/mavbridge/internal/pkg/metrics"
	"github.com/skyfield-io/mavbridge/pkg/log"
)

// StorePose ingests one externally supplied pose sample. The request never
// produces a result event; incomplete payloads are dropped quietly, since
// pose sources stream at high rate and a per-sample error event would flood
// the channel.
func (e *Executors) StorePose(req core.Request) {
	if req.Data == nil {
		return
	}

	x, okX := core.AsFloat(req.Data["x"])
	y, okY := core.AsFloat(req.Data["y"])
	z, okZ := core.AsFloat(req.Data["z"])
	if !okX || !okY || !okZ {
		log.Debug("Dropping incomplete pose sample")
		return
	}

	hostMs := e.now().UnixMilli()

	// Missing timestamps fall back to the host observation time.
	deviceMs := hostMs
	if ts, ok := core.AsFloat(req.Data["timestamp"]); ok {
		deviceMs = clock.NormalizePoseTimestamp(ts)
	}

	// The raw host-vs-device delta is the diagnostic; the estimator tracks
	// the offset across samples and logs threshold crossings.
	delta := hostMs - deviceMs
	e.poseClock.Observe(deviceMs, hostMs)
	e.store.RecordPose(deviceMs, hostMs, delta)

	sample := recorder.PoseSample{
		Timestamp: deviceMs,
		X:         x,
		Y:         y,
		Z:         z,
		QW:        floatField(req.Data, "qw"),
		QX:        floatField(req.Data, "qx"),
		QY:        floatField(req.Data, "qy"),
		QZ:        floatField(req.Data, "qz"),
	}

	if rowDelta := e.rec.ObservePose(sample); rowDelta != nil {
		e.store.SetLogDelta(*rowDelta)
		metrics.RecorderRows.Inc()

		if e.debugTiming && (*rowDelta > clock.SkewLogThresholdMs || *rowDelta < -clock.SkewLogThresholdMs) {
			log.Warn("Log timestamp skew against pose", "deltaMs", *rowDelta, "pose", deviceMs)
		}
	}
}

func floatField(data map[string]any, key string) *float64 {
	v, ok := core.AsFloat(data[key])
	if !ok {
		return nil
	}
	return &v
}
