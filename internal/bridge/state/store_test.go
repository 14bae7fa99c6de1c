package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyfield-io/mavbridge/internal/bridge/core"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore() (*Store, *fakeClock) {
	fc := &fakeClock{t: time.Unix(1700000000, 0)}
	return NewStore(Options{StatusHold: 4 * time.Second, Clock: fc.now}), fc
}

func TestInitialSnapshotHasNoObservations(t *testing.T) {
	s, _ := newTestStore()
	snap := s.Snapshot()

	assert.Nil(t, snap.Lat)
	assert.Nil(t, snap.HDOP)
	assert.Nil(t, snap.ModeID)
	assert.False(t, snap.Armed)
	assert.Equal(t, "Idle", snap.Status)
	assert.Equal(t, "Unknown", snap.Mode)
}

func TestGlobalPositionUnitConversion(t *testing.T) {
	s, _ := newTestStore()

	snap := s.Apply(core.GlobalPosition{
		TimeBootMs:  5000,
		Lat:         -74000000,
		Lon:         1128000000,
		Alt:         12000,
		RelativeAlt: 1500,
	})

	require.NotNil(t, snap.Lat)
	assert.InDelta(t, -7.4, *snap.Lat, 1e-9)
	assert.InDelta(t, 112.8, *snap.Lon, 1e-9)
	assert.InDelta(t, 12.0, *snap.Alt, 1e-9)
	assert.InDelta(t, 1.5, *snap.RelativeAlt, 1e-9)
	require.NotNil(t, snap.LastGPSHostTimestamp)
	assert.EqualValues(t, 0, *snap.LastGPSVehicleSkewMs)
}

func TestGPSRawHDOPSentinel(t *testing.T) {
	s, _ := newTestStore()

	snap := s.Apply(core.GPSRaw{FixType: 3, SatellitesVisible: 11, Eph: 140})
	require.NotNil(t, snap.HDOP)
	assert.InDelta(t, 1.4, *snap.HDOP, 1e-9)

	snap = s.Apply(core.GPSRaw{FixType: 3, SatellitesVisible: 11, Eph: core.EphUnknown})
	assert.Nil(t, snap.HDOP, "the unknown sentinel must not leak as a value")
	require.NotNil(t, snap.SatellitesVisible)
	assert.EqualValues(t, 11, *snap.SatellitesVisible)
}

func TestHeartbeatArmingAndLifecycle(t *testing.T) {
	s, _ := newTestStore()

	snap := s.Apply(core.Heartbeat{
		BaseMode:     core.ModeFlagSafetyArmed | core.ModeFlagCustomModeEnabled,
		CustomMode:   4,
		SystemStatus: core.StatusActive,
		SystemID:     1,
		ComponentID:  1,
		ModeName:     "GUIDED",
	})

	assert.True(t, snap.Armed)
	assert.True(t, snap.Ready)
	assert.Equal(t, "ACTIVE", snap.SystemStatus)
	assert.Equal(t, "ACTIVE", snap.Status, "no hold in effect, lifecycle becomes status")
	assert.Equal(t, "GUIDED", snap.Mode)
	require.NotNil(t, snap.ModeID)
	assert.EqualValues(t, 4, *snap.ModeID)

	snap = s.Apply(core.Heartbeat{SystemStatus: core.StatusCritical, ModeName: "RTL"})
	assert.False(t, snap.Armed)
	assert.False(t, snap.Ready)
	assert.Equal(t, "CRITICAL", snap.Status)
}

func TestStatusHoldSuppressesLifecycleUpdates(t *testing.T) {
	s, fc := newTestStore()

	s.SetHeldStatus("X", 4*time.Second)

	fc.advance(1 * time.Second)
	snap := s.Apply(core.Heartbeat{SystemStatus: core.StatusStandby, ModeName: "LOITER"})
	assert.Equal(t, "X", snap.Status, "hold still active after 1s")
	assert.Equal(t, "STANDBY", snap.SystemStatus, "lifecycle field itself always updates")

	fc.advance(4 * time.Second)
	snap = s.Apply(core.Heartbeat{SystemStatus: core.StatusStandby, ModeName: "LOITER"})
	assert.Equal(t, "STANDBY", snap.Status, "hold expired after 5s total")
}

func TestSetHeldStatusAlwaysOverwrites(t *testing.T) {
	s, fc := newTestStore()

	s.SetHeldStatus("first", 10*time.Second)
	snap := s.SetHeldStatus("second", 0) // 0 selects the configured default
	assert.Equal(t, "second", snap.Status)
	require.NotNil(t, snap.StatusTimestamp)
	assert.Equal(t, fc.t.UnixMilli(), *snap.StatusTimestamp)
}

func TestHandshakeSeedsModeAndAddressing(t *testing.T) {
	s, _ := newTestStore()

	snap := s.SetHandshake(&core.Heartbeat{CustomMode: 6, SystemID: 1, ComponentID: 190, ModeName: "RTL"})
	assert.Equal(t, "RTL", snap.Mode)
	require.NotNil(t, snap.SystemID)
	assert.EqualValues(t, 1, *snap.SystemID)
	assert.False(t, snap.Armed, "handshake must not touch arming state")
}

func TestVehicleClockRebootRecomputesSkew(t *testing.T) {
	s, fc := newTestStore()

	s.Apply(core.GlobalPosition{TimeBootMs: 60000})
	fc.advance(10 * time.Second)

	// Boot clock decreased: the vehicle rebooted.
	snap := s.Apply(core.GlobalPosition{TimeBootMs: 1000})
	require.NotNil(t, snap.LastGPSVehicleSkewMs)
	assert.EqualValues(t, 0, *snap.LastGPSVehicleSkewMs, "offset recomputed, not compounded")
}

func TestSnapshotIsACopy(t *testing.T) {
	s, _ := newTestStore()

	before := s.Apply(core.GlobalPosition{Lat: 10000000})
	s.Apply(core.GlobalPosition{Lat: 20000000})

	assert.InDelta(t, 1.0, *before.Lat, 1e-9, "earlier snapshots are immutable")
}
