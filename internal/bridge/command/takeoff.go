package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/looplab/fsm"

	"github.com/skyfield-io/mavbridge/internal/bridge/core"
	fsmutil "github.com/skyfield-io/mavbridge/internal/pkg/util/fsm"
	"github.com/skyfield-io/mavbridge/pkg/log"
)

// DefaultTakeoffAltitude is used when the request carries no usable altitude.
const DefaultTakeoffAltitude = 30.0

// takeoffCompleteHold keeps the final status visible longer than ordinary
// stage transitions.
const takeoffCompleteHold = 6 * time.Second

// Takeoff states and events.
const (
	stateIdle          = "idle"
	stateSwitchingMode = "switching_mode"
	stateAwaitingReady = "awaiting_ready"
	stateArming        = "arming"
	stateClimbing      = "climbing"
	stateComplete      = "complete"

	eventBegin           = "begin"
	eventModeConfirmed   = "mode_confirmed"
	eventReadyConfirmed  = "ready_confirmed"
	eventArmedConfirmed  = "armed_confirmed"
	eventAltitudeReached = "altitude_reached"
)

// Takeoff runs the supervised takeoff sequence: switch to GUIDED, wait for
// readiness, arm, command the climb and confirm the altitude. Each stage is
// bounded; a timed-out stage aborts the sequence before the next command is
// sent, so a vehicle that never arms is never told to climb.
func (e *Executors) Takeoff(ctx context.Context, req core.Request) (map[string]any, error) {
	altitude := DefaultTakeoffAltitude
	if v, ok := core.AsFloat(req.Altitude); ok && v > 0 {
		altitude = v
	}

	system, component, err := e.session.Target()
	if err != nil {
		return nil, err
	}

	m := e.newTakeoffMachine(system, component, altitude)

	stages := []struct {
		event   string
		wait    string
		timeout time.Duration
		pred    func() bool
	}{
		{eventBegin, "mode GUIDED", e.timeouts.Mode, func() bool {
			return e.store.Snapshot().Mode == "GUIDED"
		}},
		{eventModeConfirmed, "vehicle ready", e.timeouts.Ready, func() bool {
			return e.store.Snapshot().Ready
		}},
		{eventReadyConfirmed, "vehicle arm", e.timeouts.Arm, func() bool {
			return e.store.Snapshot().Armed
		}},
		{eventArmedConfirmed, "target altitude", e.timeouts.Climb, func() bool {
			alt := e.store.Snapshot().RelativeAlt
			return alt != nil && *alt >= altitude*0.95
		}},
	}

	for _, stage := range stages {
		if err := m.Event(ctx, stage.event); err != nil {
			return nil, err
		}
		if err := e.waitUntil(ctx, stage.wait, stage.timeout, stage.pred); err != nil {
			log.Error(err, "Takeoff stage failed", "state", m.Current())
			return nil, err
		}
	}

	return nil, m.Event(ctx, eventAltitudeReached)
}

// newTakeoffMachine builds the per-request sequence machine. Side effects
// live in the state entry callbacks; the caller drives transitions and
// performs the bounded waits in between.
func (e *Executors) newTakeoffMachine(system, component uint8, altitude float64) *fsm.FSM {
	return fsm.NewFSM(
		stateIdle,
		fsm.Events{
			{Name: eventBegin, Src: []string{stateIdle}, Dst: stateSwitchingMode},
			{Name: eventModeConfirmed, Src: []string{stateSwitchingMode}, Dst: stateAwaitingReady},
			{Name: eventReadyConfirmed, Src: []string{stateAwaitingReady}, Dst: stateArming},
			{Name: eventArmedConfirmed, Src: []string{stateArming}, Dst: stateClimbing},
			{Name: eventAltitudeReached, Src: []string{stateClimbing}, Dst: stateComplete},
		},
		fsm.Callbacks{
			"enter_" + stateSwitchingMode: fsmutil.WrapEvent(func(_ context.Context, _ *fsm.Event) error {
				e.setStatus("TAKEOFF: switching to GUIDED", 0)
				return e.sendModeChange("GUIDED")
			}),
			"enter_" + stateAwaitingReady: fsmutil.WrapEvent(func(_ context.Context, _ *fsm.Event) error {
				e.setStatus("TAKEOFF: waiting for vehicle ready", 0)
				return nil
			}),
			"enter_" + stateArming: fsmutil.WrapEvent(func(_ context.Context, _ *fsm.Event) error {
				e.setStatus("TAKEOFF: arming motors", 0)
				return e.session.Send(core.CommandLong{
					TargetSystem:    system,
					TargetComponent: component,
					ID:              core.CmdComponentArmDisarm,
					Params:          [7]float32{1},
				})
			}),
			"enter_" + stateClimbing: fsmutil.WrapEvent(func(_ context.Context, _ *fsm.Event) error {
				e.setStatus(fmt.Sprintf("TAKEOFF: climbing to %s m", formatAltitude(altitude)), 0)
				return e.session.Send(core.CommandLong{
					TargetSystem:    system,
					TargetComponent: component,
					ID:              core.CmdNavTakeoff,
					Params:          [7]float32{0, 0, 0, 0, 0, 0, float32(altitude)},
				})
			}),
			"enter_" + stateComplete: fsmutil.WrapEvent(func(_ context.Context, _ *fsm.Event) error {
				e.setStatus("TAKEOFF: sequence complete", takeoffCompleteHold)
				return nil
			}),
		},
	)
}

// formatAltitude renders the target with at most one decimal place,
// dropping a trailing ".0" (30.0 -> "30", 12.5 -> "12.5").
func formatAltitude(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
