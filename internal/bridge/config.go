package bridge

import (
	"os"

	"github.com/google/uuid"

	"github.com/skyfield-io/mavbridge/internal/bridge/command"
	"github.com/skyfield-io/mavbridge/internal/bridge/link"
	"github.com/skyfield-io/mavbridge/internal/bridge/mirror"
	"github.com/skyfield-io/mavbridge/internal/bridge/recorder"
	"github.com/skyfield-io/mavbridge/internal/bridge/state"
	"github.com/skyfield-io/mavbridge/internal/bridge/stdio"
	"github.com/skyfield-io/mavbridge/pkg/options"
)

// Config is the fully resolved bridge configuration.
type Config struct {
	// BridgeID identifies this bridge instance on the mirror topics.
	// Empty means a generated id.
	BridgeID string

	Link    *options.LinkOptions
	Mirror  *options.MirrorOptions
	Metrics *options.MetricsOptions
}

// NewBridge assembles a Bridge from the configuration.
func (c *Config) NewBridge() (*Bridge, error) {
	bridgeID := c.BridgeID
	if bridgeID == "" {
		bridgeID = uuid.NewString()
	}

	store := state.NewStore(state.Options{
		StatusHold:  c.Link.StatusHold,
		DebugTiming: c.Link.DebugTiming,
	})
	rec := recorder.New(nil)
	session := link.NewSession()

	writer := stdio.NewWriter(os.Stdout)
	emitter := newFanout(writer)

	var m *mirror.Mirror
	if c.Mirror.Enabled() {
		var err error
		m, err = mirror.New(c.Mirror, bridgeID)
		if err != nil {
			return nil, err
		}
		emitter.add(m)
	}

	exec := command.NewExecutors(command.Options{
		Session:     session,
		Store:       store,
		Recorder:    rec,
		Emitter:     emitter,
		DebugTiming: c.Link.DebugTiming,
	})

	return &Bridge{
		cfg:        c,
		bridgeID:   bridgeID,
		store:      store,
		rec:        rec,
		session:    session,
		emitter:    emitter,
		reader:     stdio.NewReader(os.Stdin, emitter),
		dispatcher: command.NewDispatcher(exec, emitter),
		mirror:     m,
	}, nil
}
