// Package mirror republishes the bridge's outbound events to an MQTT broker.
//
// The mirror is strictly secondary: stdio stays the primary event channel,
// publish failures are logged and dropped, and a broker outage never blocks
// or degrades the bridge loop.
package mirror

import (
	"context"
	"encoding/json"
	"time"

	"github.com/skyfield-io/mavbridge/internal/bridge/core"
	"github.com/skyfield-io/mavbridge/pkg/log"
	"github.com/skyfield-io/mavbridge/pkg/mqtt"
	"github.com/skyfield-io/mavbridge/pkg/mqtt/topic"
	"github.com/skyfield-io/mavbridge/pkg/options"
)

const publishTimeout = 2 * time.Second

// Mirror fans outbound events to MQTT topics per event kind. It implements
// core.Emitter so it can be chained behind the stdio writer.
type Mirror struct {
	client   mqtt.Client
	topics   *topic.Builder
	bridgeID string
}

// New builds a Mirror from the mirror options. The broker connection is not
// opened until Start.
func New(opts *options.MirrorOptions, bridgeID string) (*Mirror, error) {
	topics := topic.NewBuilder(opts.TopicRoot)

	cfg := opts.ToClientConfig()
	if cfg.ClientID == "" {
		cfg.ClientID = "mavbridge-" + bridgeID
	}

	// Consumers watching the retained status topic see the bridge go
	// offline even on an unclean death.
	cfg.WillTopic = topics.Online(bridgeID)
	cfg.WillPayload = []byte(`{"online":false}`)
	cfg.WillQoS = 1
	cfg.WillRetain = true

	client, err := mqtt.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	return &Mirror{client: client, topics: topics, bridgeID: bridgeID}, nil
}

// Start opens the broker connection and announces the bridge online.
func (m *Mirror) Start(ctx context.Context) error {
	if err := m.client.Start(ctx); err != nil {
		return err
	}

	go func() {
		awaitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		if err := m.client.AwaitConnection(awaitCtx); err != nil {
			log.Warn("Mirror broker connection not yet established", "err", err)
			return
		}
		m.publish(m.topics.Online(m.bridgeID), 1, true, []byte(`{"online":true}`))
	}()

	return nil
}

// Stop announces the bridge offline and disconnects.
func (m *Mirror) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	_ = m.client.Publish(ctx, m.topics.Online(m.bridgeID), 1, true, []byte(`{"online":false}`))
	m.client.Disconnect(ctx)
}

var _ core.Emitter = (*Mirror)(nil)

// Emit mirrors one outbound event. Telemetry and logs go out at QoS 0:
// they are high-rate and superseded by the next sample. Command results go
// out at QoS 1.
func (m *Mirror) Emit(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Error(err, "Failed to encode mirrored event")
		return
	}

	switch v.(type) {
	case core.TelemetryEvent:
		m.publish(m.topics.Telemetry(m.bridgeID), 0, false, payload)
	case core.LogEvent:
		m.publish(m.topics.Log(m.bridgeID), 0, false, payload)
	default:
		m.publish(m.topics.Result(m.bridgeID), 1, false, payload)
	}
}

func (m *Mirror) publish(t string, qos int, retain bool, payload []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := m.client.Publish(ctx, t, qos, retain, payload); err != nil {
		log.Debug("Mirror publish dropped", "topic", t, "err", err)
	}
}
