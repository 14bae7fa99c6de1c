package core

// MessageType identifies a decoded inbound vehicle message.
type MessageType string

const (
	MsgHeartbeat      MessageType = "HEARTBEAT"
	MsgGlobalPosition MessageType = "GLOBAL_POSITION_INT"
	MsgGPSRaw         MessageType = "GPS_RAW_INT"
	MsgVFRHUD         MessageType = "VFR_HUD"
)

// Message is a decoded vehicle telemetry message delivered by the link driver.
type Message interface {
	Type() MessageType
}

// Heartbeat carries vehicle lifecycle, arming and mode information.
// ModeName is resolved by the link driver from its mode table; empty if unknown.
type Heartbeat struct {
	BaseMode     uint8
	CustomMode   uint32
	SystemStatus SystemStatus
	SystemID     uint8
	ComponentID  uint8
	ModeName     string
}

func (Heartbeat) Type() MessageType { return MsgHeartbeat }

// GlobalPosition carries fused position in raw protocol units:
// latitude/longitude in 1e-7 degrees, altitudes in millimeters.
// TimeBootMs is the vehicle boot clock in milliseconds.
type GlobalPosition struct {
	TimeBootMs  uint32
	Lat         int32
	Lon         int32
	Alt         int32
	RelativeAlt int32
}

func (GlobalPosition) Type() MessageType { return MsgGlobalPosition }

// GPSRaw carries GPS quality. Eph is HDOP in centimeters; 65535 means unknown.
type GPSRaw struct {
	FixType           uint8
	SatellitesVisible uint8
	Eph               uint16
}

func (GPSRaw) Type() MessageType { return MsgGPSRaw }

// EphUnknown is the sentinel for an unreported horizontal dilution of precision.
const EphUnknown uint16 = 65535

// VFRHUD carries heading, barometric altitude and climb rate in SI units.
type VFRHUD struct {
	Heading float64
	Alt     float64
	Climb   float64
}

func (VFRHUD) Type() MessageType { return MsgVFRHUD }

// SystemStatus is the vehicle lifecycle state reported in heartbeats.
type SystemStatus uint8

const (
	StatusUninit SystemStatus = iota
	StatusBoot
	StatusCalibrating
	StatusStandby
	StatusActive
	StatusCritical
	StatusEmergency
	StatusPoweroff
	StatusFlightTermination
)

var statusNames = map[SystemStatus]string{
	StatusUninit:            "UNINIT",
	StatusBoot:              "BOOT",
	StatusCalibrating:       "CALIBRATING",
	StatusStandby:           "STANDBY",
	StatusActive:            "ACTIVE",
	StatusCritical:          "CRITICAL",
	StatusEmergency:         "EMERGENCY",
	StatusPoweroff:          "POWEROFF",
	StatusFlightTermination: "FLIGHT_TERMINATION",
}

// Name returns the lifecycle name, or the numeric value for unknown states.
func (s SystemStatus) Name() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "UNKNOWN"
}

// Ready reports whether the vehicle is in a state that accepts commands.
func (s SystemStatus) Ready() bool {
	return s == StatusStandby || s == StatusActive
}
