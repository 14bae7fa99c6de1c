package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/skyfield-io/mavbridge/internal/bridge/core"
	"github.com/skyfield-io/mavbridge/pkg/log"
)

// modeExtraFlags adds the firmware-specific base-mode bits set alongside
// the custom-mode flag for the modes that carry them.
var modeExtraFlags = map[string]uint8{
	"GUIDED":    core.ModeFlagGuidedEnabled,
	"AUTO":      core.ModeFlagAutoEnabled,
	"RTL":       core.ModeFlagAutoEnabled,
	"STABILIZE": core.ModeFlagStabilizeEnabled,
}

// SetMode switches the vehicle flight mode. The mode name is matched
// case-insensitively against the link's mode table. Resolves once the
// commands are sent; confirmation shows up in subsequent heartbeats.
func (e *Executors) SetMode(_ context.Context, req core.Request) (map[string]any, error) {
	name := strings.ToUpper(strings.TrimSpace(core.AsString(req.Mode)))
	if name == "" {
		return nil, fmt.Errorf("mode name is required")
	}

	return nil, e.sendModeChange(name)
}

// sendModeChange issues the mode switch both ways: the parameterized
// command and the legacy set-mode, back to back under one session lock,
// to cover firmwares that only honor one of the two.
func (e *Executors) sendModeChange(name string) error {
	table, err := e.session.ModeTable()
	if err != nil {
		return err
	}

	modeID, ok := table[name]
	if !ok {
		return fmt.Errorf("mode '%s' not supported", name)
	}

	system, component, err := e.session.Target()
	if err != nil {
		return err
	}

	base := core.ModeFlagCustomModeEnabled | modeExtraFlags[name]

	log.Info("Switching mode", "mode", name, "modeID", modeID, "base", base)
	return e.session.Send(
		core.CommandLong{
			TargetSystem:    system,
			TargetComponent: component,
			ID:              core.CmdDoSetMode,
			Params:          [7]float32{float32(base), float32(modeID)},
		},
		core.SetModeLegacy{
			TargetSystem: system,
			BaseMode:     base,
			CustomMode:   modeID,
		},
	)
}
