package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyfield-io/mavbridge/internal/bridge/core"
)

func TestSetModeNormalizesAndSendsBothCommands(t *testing.T) {
	rig := newTestRig(TakeoffTimeouts{})

	payload, err := rig.exec.SetMode(context.Background(), core.Request{
		Type: "set_mode",
		Mode: " rtl ",
	})
	require.NoError(t, err)
	assert.Nil(t, payload, "mode results carry no extra payload")

	cmds := rig.link.commands()
	require.Len(t, cmds, 2)

	cl := cmds[0].(core.CommandLong)
	assert.Equal(t, core.CmdDoSetMode, cl.ID)
	assert.Equal(t, float32(core.ModeFlagCustomModeEnabled|core.ModeFlagAutoEnabled), cl.Params[0])
	assert.Equal(t, float32(6), cl.Params[1])

	legacy := cmds[1].(core.SetModeLegacy)
	assert.Equal(t, core.ModeFlagCustomModeEnabled|core.ModeFlagAutoEnabled, legacy.BaseMode)
	assert.Equal(t, uint32(6), legacy.CustomMode)
}

func TestSetModeResolvesWithoutConfirmation(t *testing.T) {
	rig := newTestRig(TakeoffTimeouts{})
	// No heartbeat ever reports the new mode; the command still succeeds.

	_, err := rig.exec.SetMode(context.Background(), core.Request{
		Type: "set_mode",
		Mode: "GUIDED",
	})
	require.NoError(t, err)
	assert.Len(t, rig.link.commands(), 2)
}

func TestSetModeRejectsEmpty(t *testing.T) {
	rig := newTestRig(TakeoffTimeouts{})

	_, err := rig.exec.SetMode(context.Background(), core.Request{Type: "set_mode"})
	require.Error(t, err)
	assert.Empty(t, rig.link.commands())
}

func TestSetModeUnknownName(t *testing.T) {
	rig := newTestRig(TakeoffTimeouts{})

	_, err := rig.exec.SetMode(context.Background(), core.Request{
		Type: "set_mode",
		Mode: "WARP_DRIVE",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mode 'WARP_DRIVE' not supported")
	assert.Empty(t, rig.link.commands())
}
