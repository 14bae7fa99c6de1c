// Package bridge assembles and runs the telemetry/command bridge: the link
// ingest loop, the stdio command pipeline, the optional MQTT mirror and the
// optional metrics endpoint.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skyfield-io/mavbridge/internal/bridge/command"
	"github.com/skyfield-io/mavbridge/internal/bridge/core"
	"github.com/skyfield-io/mavbridge/internal/bridge/link"
	"github.com/skyfield-io/mavbridge/internal/bridge/mirror"
	"github.com/skyfield-io/mavbridge/internal/bridge/recorder"
	"github.com/skyfield-io/mavbridge/internal/bridge/state"
	"github.com/skyfield-io/mavbridge/internal/bridge/stdio"
	"github.com/skyfield-io/mavbridge/internal/pkg/metrics"
	"github.com/skyfield-io/mavbridge/pkg/log"
)

// recvTimeout bounds each link receive so the ingest loop notices
// cancellation and link loss promptly.
const recvTimeout = 1 * time.Second

// fanout delivers each event to every registered emitter, stdio first.
type fanout struct {
	mu       sync.Mutex
	emitters []core.Emitter
}

func newFanout(emitters ...core.Emitter) *fanout {
	return &fanout{emitters: emitters}
}

func (f *fanout) add(e core.Emitter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emitters = append(f.emitters, e)
}

func (f *fanout) Emit(v any) {
	f.mu.Lock()
	targets := f.emitters
	f.mu.Unlock()

	for _, e := range targets {
		e.Emit(v)
	}
}

// Bridge is the running daemon.
type Bridge struct {
	cfg      *Config
	bridgeID string

	store   *state.Store
	rec     *recorder.Recorder
	session *link.Session
	emitter *fanout

	reader     *stdio.Reader
	dispatcher *command.Dispatcher
	mirror     *mirror.Mirror
}

// Run drives the bridge until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	log.Info("Bridge starting", "id", b.bridgeID, "link", b.cfg.Link.Address)

	if b.mirror != nil {
		if err := b.mirror.Start(ctx); err != nil {
			return fmt.Errorf("start mirror: %w", err)
		}
		defer b.mirror.Stop()
	}

	requests := make(chan core.Request, 64)

	// Stdin reads cannot be interrupted, so the reader is not part of the
	// shutdown group; it closes the request channel when its input ends.
	go func() {
		defer close(requests)
		if err := b.reader.Run(ctx, requests); err != nil && ctx.Err() == nil {
			log.Error(err, "Command reader failed")
		}
	}()

	g, ctx := errgroup.WithContext(ctx)

	if b.cfg.Metrics.Enabled() {
		g.Go(func() error {
			return metrics.Serve(ctx, b.cfg.Metrics.Addr)
		})
	}

	g.Go(func() error {
		b.dispatcher.Run(ctx, requests)
		return nil
	})

	g.Go(func() error {
		return b.ingestLoop(ctx)
	})

	err := g.Wait()
	if err != nil && ctx.Err() != nil {
		err = nil
	}
	log.Info("Bridge stopped", "id", b.bridgeID)
	return err
}

// ingestLoop owns the link lifecycle: dial, handshake, receive, reconnect.
func (b *Bridge) ingestLoop(ctx context.Context) error {
	for ctx.Err() == nil {
		if err := b.connect(ctx); err != nil {
			b.emitter.Emit(core.NewLogEvent("error", fmt.Sprintf("Connection failed: %v", err)))
			log.Error(err, "Link connection failed", "address", b.cfg.Link.Address)
			if !sleep(ctx, b.cfg.Link.ReconnectBackoff) {
				break
			}
			continue
		}

		b.receiveLoop(ctx)

		b.session.Clear()
		metrics.LinkUp.Set(0)

		// A shutdown-triggered exit is not a reconnect cycle.
		if ctx.Err() != nil {
			break
		}
		metrics.LinkReconnects.Inc()

		if !sleep(ctx, b.cfg.Link.ReconnectBackoff) {
			break
		}
	}
	return ctx.Err()
}

func (b *Bridge) connect(ctx context.Context) error {
	address := b.cfg.Link.Address
	b.emitter.Emit(core.NewLogEvent("info", fmt.Sprintf("Connecting to %s", address)))

	l, err := link.Dial(ctx, address)
	if err != nil {
		return err
	}

	hb, err := l.WaitHandshake(b.cfg.Link.HandshakeTimeout)
	if err != nil {
		_ = l.Close()
		return err
	}

	b.session.Set(l)
	metrics.LinkUp.Set(1)

	b.emitter.Emit(core.NewLogEvent("info",
		fmt.Sprintf("Connected (sys=%d comp=%d)", l.TargetSystem(), l.TargetComponent())))

	snap := b.store.SetHandshake(hb)
	b.emitter.Emit(core.NewTelemetryEvent(snap))
	return nil
}

// receiveLoop pumps messages from the session until the link fails or ctx
// is cancelled.
func (b *Bridge) receiveLoop(ctx context.Context) {
	for ctx.Err() == nil {
		msg, err := b.session.Recv(recvTimeout)
		if err != nil {
			b.emitter.Emit(core.NewLogEvent("error", fmt.Sprintf("Bridge loop error: %v", err)))
			log.Error(err, "Link receive failed")
			return
		}
		if msg == nil {
			// Quiet interval, nothing received.
			continue
		}
		b.handleMessage(msg)
	}
}

func (b *Bridge) handleMessage(msg core.Message) {
	snap := b.store.Apply(msg)
	metrics.MessagesApplied.WithLabelValues(string(msg.Type())).Inc()

	// The recorder correlates against the host-assigned receive time, not
	// the boot-clock estimate, so rows stay anchored to one clock domain.
	if _, ok := msg.(core.GlobalPosition); ok && snap.LastGPSHostTimestamp != nil {
		b.rec.SetPosition(recorder.PositionSample{
			Timestamp:   *snap.LastGPSHostTimestamp,
			Lat:         snap.Lat,
			Lon:         snap.Lon,
			Alt:         snap.Alt,
			RelativeAlt: snap.RelativeAlt,
		})
	}

	b.emitter.Emit(core.NewTelemetryEvent(snap))
}

// sleep waits d unless ctx ends first; reports whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
