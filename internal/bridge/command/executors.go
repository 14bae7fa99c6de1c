// Package command executes inbound channel requests against the vehicle
// link, the state store and the sample recorder.
//
// The dispatcher consumes decoded requests and runs each one on its own
// goroutine; executors hold the per-request semantics. Every request type
// with a registered result kind produces exactly one result event, success
// or failure, even when an executor panics.
package command

import (
	"context"
	"fmt"
	"time"

	"github.com/skyfield-io/mavbridge/internal/bridge/clock"
	"github.com/skyfield-io/mavbridge/internal/bridge/core"
	"github.com/skyfield-io/mavbridge/internal/bridge/link"
	"github.com/skyfield-io/mavbridge/internal/bridge/recorder"
	"github.com/skyfield-io/mavbridge/internal/bridge/state"
)

// TakeoffTimeouts bounds each stage of the supervised takeoff sequence.
type TakeoffTimeouts struct {
	Mode  time.Duration
	Ready time.Duration
	Arm   time.Duration
	Climb time.Duration
}

func defaultTakeoffTimeouts() TakeoffTimeouts {
	return TakeoffTimeouts{
		Mode:  15 * time.Second,
		Ready: 15 * time.Second,
		Arm:   20 * time.Second,
		Climb: 90 * time.Second,
	}
}

// Options configures the executor set.
type Options struct {
	Session  *link.Session
	Store    *state.Store
	Recorder *recorder.Recorder
	Emitter  core.Emitter

	// DebugTiming enables pose clock-skew diagnostics.
	DebugTiming bool

	// Timeouts overrides the takeoff stage bounds; zero fields keep defaults.
	Timeouts TakeoffTimeouts

	// PollInterval is the wait predicate sampling period. Zero means 500ms.
	PollInterval time.Duration

	// Clock overrides the time source, for tests.
	Clock func() time.Time
}

// Executors implements the per-request command semantics.
type Executors struct {
	session *link.Session
	store   *state.Store
	rec     *recorder.Recorder
	emitter core.Emitter

	poseClock   *clock.Estimator
	debugTiming bool

	timeouts     TakeoffTimeouts
	pollInterval time.Duration
	now          func() time.Time
}

// NewExecutors wires the executor set.
func NewExecutors(opts Options) *Executors {
	d := defaultTakeoffTimeouts()
	if opts.Timeouts.Mode > 0 {
		d.Mode = opts.Timeouts.Mode
	}
	if opts.Timeouts.Ready > 0 {
		d.Ready = opts.Timeouts.Ready
	}
	if opts.Timeouts.Arm > 0 {
		d.Arm = opts.Timeouts.Arm
	}
	if opts.Timeouts.Climb > 0 {
		d.Climb = opts.Timeouts.Climb
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Executors{
		session:      opts.Session,
		store:        opts.Store,
		rec:          opts.Recorder,
		emitter:      opts.Emitter,
		poseClock:    clock.NewEstimator("SLAM", opts.DebugTiming),
		debugTiming:  opts.DebugTiming,
		timeouts:     d,
		pollInterval: opts.PollInterval,
		now:          opts.Clock,
	}
}

// Execute runs one request and returns its result payload. A nil payload
// with nil error means the request type produces no result event.
func (e *Executors) Execute(ctx context.Context, req core.Request) (map[string]any, error) {
	switch core.RequestType(req.Type) {
	case core.RequestSetMode:
		return e.SetMode(ctx, req)
	case core.RequestTakeoff:
		return e.Takeoff(ctx, req)
	case core.RequestSlamPose:
		e.StorePose(req)
		return nil, nil
	case core.RequestCSVStart:
		return e.StartRecording(req)
	case core.RequestCSVStop:
		return e.StopRecording(req)
	default:
		return nil, fmt.Errorf("unknown command type %q", req.Type)
	}
}

// setStatus updates the held status text and pushes the resulting snapshot
// onto the event channel so the consumer sees stage transitions immediately.
func (e *Executors) setStatus(text string, hold time.Duration) {
	snap := e.store.SetHeldStatus(text, hold)
	e.emitter.Emit(core.NewTelemetryEvent(snap))
}
