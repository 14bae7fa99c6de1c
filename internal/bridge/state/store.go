// Package state owns the fused vehicle state snapshot.
//
// All mutation happens through the Store's apply/update operations; command
// executors only read snapshots to evaluate wait predicates. Raw protocol
// units are converted to SI units (degrees, meters, meters/second) before
// storage, and every optional field stays nil until its source message type
// has been observed at least once.
package state

import (
	"sync"
	"time"

	"github.com/skyfield-io/mavbridge/internal/bridge/clock"
	"github.com/skyfield-io/mavbridge/internal/bridge/core"
)

// Snapshot is the full vehicle state at one instant, emitted verbatim on the
// event channel. Field names are the wire contract with the consumer.
type Snapshot struct {
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	Alt         *float64 `json:"alt"`
	RelativeAlt *float64 `json:"relative_alt"`

	GPSFixType        *uint8   `json:"gps_fix_type"`
	SatellitesVisible *uint8   `json:"satellites_visible"`
	HDOP              *float64 `json:"hdop"`

	BaroAlt *float64 `json:"baro_alt"`
	Heading *float64 `json:"heading"`
	Climb   *float64 `json:"climb"`

	LastSlamTimestamp       *int64 `json:"last_slam_timestamp"`
	LastSlamHostTimestamp   *int64 `json:"last_slam_host_timestamp"`
	LastSlamDeltaMs         *int64 `json:"last_slam_delta_ms"`
	LastGPSHostTimestamp    *int64 `json:"last_gps_host_timestamp"`
	LastGPSVehicleTimestamp *int64 `json:"last_gps_vehicle_timestamp"`
	LastGPSVehicleSkewMs    *int64 `json:"last_gps_vehicle_skew_ms"`
	LastLogDeltaMs          *int64 `json:"last_log_delta_ms"`

	Armed        bool    `json:"armed"`
	Ready        bool    `json:"ready"`
	Status       string  `json:"status"`
	SystemStatus string  `json:"system_status"`
	Mode         string  `json:"mode"`
	ModeID       *uint32 `json:"mode_id"`
	SystemID     *uint8  `json:"system_id"`
	ComponentID  *uint8  `json:"component_id"`

	StatusTimestamp *int64 `json:"statusTimestamp"`
}

// Options configures a Store.
type Options struct {
	// StatusHold is the default hold duration for operator-set status text.
	StatusHold time.Duration

	// DebugTiming enables clock-skew diagnostic logging.
	DebugTiming bool

	// Clock overrides the time source, for tests.
	Clock func() time.Time
}

// Store is the single owner of the vehicle state.
// All methods are safe for concurrent use.
type Store struct {
	mu sync.Mutex

	snap       Snapshot
	holdUntil  time.Time
	statusHold time.Duration
	now        func() time.Time

	gpsClock *clock.Estimator
}

// NewStore creates a Store with the initial "nothing observed yet" snapshot.
func NewStore(opts Options) *Store {
	if opts.StatusHold <= 0 {
		opts.StatusHold = 4 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Store{
		snap: Snapshot{
			Status:       "Idle",
			SystemStatus: "Unknown",
			Mode:         "Unknown",
		},
		statusHold: opts.StatusHold,
		now:        opts.Clock,
		gpsClock:   clock.NewEstimator("GPS", opts.DebugTiming),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Apply updates exactly the fields implied by the message's type and returns
// the new snapshot for emission.
func (s *Store) Apply(msg core.Message) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch m := msg.(type) {
	case core.Heartbeat:
		s.applyHeartbeat(m)
	case *core.Heartbeat:
		s.applyHeartbeat(*m)
	case core.GlobalPosition:
		s.applyGlobalPosition(m)
	case core.GPSRaw:
		s.applyGPSRaw(m)
	case core.VFRHUD:
		s.applyVFRHUD(m)
	}

	return s.snap
}

func (s *Store) applyHeartbeat(m core.Heartbeat) {
	now := s.now()

	s.snap.Armed = m.BaseMode&core.ModeFlagSafetyArmed != 0
	s.snap.Ready = m.SystemStatus.Ready()
	s.snap.SystemStatus = m.SystemStatus.Name()

	// Lifecycle changes only overwrite operator-set status once the hold expires.
	if !now.Before(s.holdUntil) {
		s.snap.Status = s.snap.SystemStatus
		s.snap.StatusTimestamp = ptr(now.UnixMilli())
	}

	s.snap.Mode = m.ModeName
	if s.snap.Mode == "" {
		s.snap.Mode = "UNKNOWN"
	}
	s.snap.ModeID = ptr(m.CustomMode)
	s.snap.SystemID = ptr(m.SystemID)
	s.snap.ComponentID = ptr(m.ComponentID)
}

func (s *Store) applyGlobalPosition(m core.GlobalPosition) {
	s.snap.Lat = ptr(float64(m.Lat) / 1e7)
	s.snap.Lon = ptr(float64(m.Lon) / 1e7)
	s.snap.Alt = ptr(float64(m.Alt) / 1000)
	s.snap.RelativeAlt = ptr(float64(m.RelativeAlt) / 1000)

	nowMs := s.now().UnixMilli()
	estimated, skew := s.gpsClock.Observe(int64(m.TimeBootMs), nowMs)

	s.snap.LastGPSHostTimestamp = ptr(nowMs)
	s.snap.LastGPSVehicleTimestamp = ptr(estimated)
	s.snap.LastGPSVehicleSkewMs = ptr(skew)
}

func (s *Store) applyGPSRaw(m core.GPSRaw) {
	s.snap.GPSFixType = ptr(m.FixType)
	s.snap.SatellitesVisible = ptr(m.SatellitesVisible)

	// Unknown HDOP is excluded rather than zeroed.
	if m.Eph != core.EphUnknown {
		s.snap.HDOP = ptr(float64(m.Eph) / 100)
	} else {
		s.snap.HDOP = nil
	}
}

func (s *Store) applyVFRHUD(m core.VFRHUD) {
	s.snap.Heading = ptr(m.Heading)
	s.snap.BaroAlt = ptr(m.Alt)
	s.snap.Climb = ptr(m.Climb)
}

// SetHandshake records the mode and addressing learned from the initial
// handshake heartbeat and returns the snapshot for emission.
func (s *Store) SetHandshake(hb *core.Heartbeat) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Mode = hb.ModeName
	if s.snap.Mode == "" {
		s.snap.Mode = "UNKNOWN"
	}
	s.snap.ModeID = ptr(hb.CustomMode)
	s.snap.SystemID = ptr(hb.SystemID)
	s.snap.ComponentID = ptr(hb.ComponentID)

	return s.snap
}

// SetHeldStatus overwrites the operator-facing status text and pushes the
// hold expiry forward by hold (the configured default when hold <= 0).
// Returns the snapshot for emission.
func (s *Store) SetHeldStatus(text string, hold time.Duration) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if hold <= 0 {
		hold = s.statusHold
	}

	now := s.now()
	s.snap.Status = text
	s.snap.StatusTimestamp = ptr(now.UnixMilli())
	s.holdUntil = now.Add(hold)

	return s.snap
}

// RecordPose stores the pose clock diagnostics.
func (s *Store) RecordPose(deviceMs, hostMs, deltaMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.LastSlamTimestamp = ptr(deviceMs)
	s.snap.LastSlamHostTimestamp = ptr(hostMs)
	s.snap.LastSlamDeltaMs = ptr(deltaMs)
}

// SetLogDelta stores the recorder row clock delta.
func (s *Store) SetLogDelta(deltaMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.LastLogDeltaMs = ptr(deltaMs)
}

func ptr[T any](v T) *T {
	return &v
}
