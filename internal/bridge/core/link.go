package core

import (
	"time"
)

// Outbound command identifiers and mode flags (protocol numeric values).
const (
	CmdDoSetMode          uint16 = 176
	CmdNavTakeoff         uint16 = 22
	CmdComponentArmDisarm uint16 = 400

	ModeFlagCustomModeEnabled uint8 = 1
	ModeFlagAutoEnabled       uint8 = 4
	ModeFlagGuidedEnabled     uint8 = 8
	ModeFlagStabilizeEnabled  uint8 = 16
	ModeFlagSafetyArmed       uint8 = 128
)

// Command is an outbound vehicle command to be encoded by the link driver.
type Command interface {
	isCommand()
}

// CommandLong is the generic parameterized command.
type CommandLong struct {
	TargetSystem    uint8
	TargetComponent uint8
	ID              uint16
	Confirmation    uint8
	Params          [7]float32
}

func (CommandLong) isCommand() {}

// SetModeLegacy is the legacy-style mode command, sent redundantly alongside
// the CommandLong mode set for older autopilot firmwares.
type SetModeLegacy struct {
	TargetSystem uint8
	BaseMode     uint8
	CustomMode   uint32
}

func (SetModeLegacy) isCommand() {}

// Link is a connected vehicle link produced by a registered driver.
// Implementations are not safe for concurrent use; callers serialize
// Recv and Send under one lock (see link.Session).
type Link interface {
	// WaitHandshake blocks until the first heartbeat arrives or the timeout
	// elapses. It also fixes the link's target system/component addressing.
	WaitHandshake(timeout time.Duration) (*Heartbeat, error)

	// Recv waits up to timeout for the next decoded message.
	// A nil message with nil error means the timeout elapsed quietly.
	Recv(timeout time.Duration) (Message, error)

	// Send encodes and transmits a command.
	Send(cmd Command) error

	// ModeTable maps flight mode names to their numeric mode ids.
	ModeTable() map[string]uint32

	TargetSystem() uint8
	TargetComponent() uint8

	Close() error
}
