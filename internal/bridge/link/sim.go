package link

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/skyfield-io/mavbridge/internal/bridge/core"
)

// simModeTable mirrors a typical copter firmware's custom mode numbering.
var simModeTable = map[string]uint32{
	"STABILIZE": 0,
	"ALT_HOLD":  2,
	"AUTO":      3,
	"GUIDED":    4,
	"LOITER":    5,
	"RTL":       6,
	"LAND":      9,
}

const simClimbRate = 2.5 // m/s

func init() {
	Register("sim", dialSim)
}

// simLink is a deterministic simulated vehicle. It answers the handshake
// immediately, cycles through the four telemetry message types on Recv and
// reacts to mode, arm and takeoff commands with simple kinematics.
type simLink struct {
	mu sync.Mutex

	modeID uint32
	armed  bool
	status core.SystemStatus

	relAlt     float64
	targetAlt  float64
	climbFrom  float64
	climbStart time.Time
	climbing   bool

	seq    int
	closed bool
}

func dialSim(ctx context.Context, address string) (core.Link, error) {
	return &simLink{
		modeID: simModeTable["STABILIZE"],
		status: core.StatusStandby,
	}, nil
}

func (l *simLink) WaitHandshake(timeout time.Duration) (*core.Heartbeat, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, fmt.Errorf("sim link closed")
	}
	hb := l.heartbeatLocked()
	return &hb, nil
}

func (l *simLink) Recv(timeout time.Duration) (core.Message, error) {
	tick := 50 * time.Millisecond
	if timeout < tick {
		tick = timeout
	}
	time.Sleep(tick)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, fmt.Errorf("sim link closed")
	}
	l.advanceLocked()

	l.seq++
	switch l.seq % 4 {
	case 0:
		hb := l.heartbeatLocked()
		return hb, nil
	case 1:
		return core.GlobalPosition{
			TimeBootMs:  uint32(l.seq * 50),
			Lat:         -353632610,
			Lon:         1491652370,
			Alt:         int32((584 + l.relAlt) * 1000),
			RelativeAlt: int32(l.relAlt * 1000),
		}, nil
	case 2:
		return core.GPSRaw{FixType: 3, SatellitesVisible: 12, Eph: 121}, nil
	default:
		climb := 0.0
		if l.climbing {
			climb = simClimbRate
		}
		return core.VFRHUD{Heading: 90, Alt: 584 + l.relAlt, Climb: climb}, nil
	}
}

func (l *simLink) Send(cmd core.Command) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return fmt.Errorf("sim link closed")
	}

	switch c := cmd.(type) {
	case core.CommandLong:
		switch c.ID {
		case core.CmdDoSetMode:
			l.modeID = uint32(c.Params[1])
		case core.CmdComponentArmDisarm:
			l.armed = c.Params[0] > 0
			if l.armed {
				l.status = core.StatusActive
			} else {
				l.status = core.StatusStandby
			}
		case core.CmdNavTakeoff:
			if l.armed && l.modeName() == "GUIDED" {
				l.targetAlt = float64(c.Params[6])
				l.climbFrom = l.relAlt
				l.climbStart = time.Now()
				l.climbing = true
			}
		}
	case core.SetModeLegacy:
		l.modeID = c.CustomMode
	}
	return nil
}

func (l *simLink) ModeTable() map[string]uint32 {
	table := make(map[string]uint32, len(simModeTable))
	for k, v := range simModeTable {
		table[k] = v
	}
	return table
}

func (l *simLink) TargetSystem() uint8    { return 1 }
func (l *simLink) TargetComponent() uint8 { return 1 }

func (l *simLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

func (l *simLink) heartbeatLocked() core.Heartbeat {
	base := core.ModeFlagCustomModeEnabled
	if l.armed {
		base |= core.ModeFlagSafetyArmed
	}
	return core.Heartbeat{
		BaseMode:     base,
		CustomMode:   l.modeID,
		SystemStatus: l.status,
		SystemID:     1,
		ComponentID:  1,
		ModeName:     l.modeName(),
	}
}

func (l *simLink) advanceLocked() {
	if !l.climbing {
		return
	}
	l.relAlt = l.climbFrom + simClimbRate*time.Since(l.climbStart).Seconds()
	if l.relAlt >= l.targetAlt {
		l.relAlt = l.targetAlt
		l.climbing = false
	}
}

func (l *simLink) modeName() string {
	for name, id := range simModeTable {
		if id == l.modeID {
			return name
		}
	}
	return ""
}
