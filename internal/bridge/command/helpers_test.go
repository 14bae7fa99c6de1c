package command

import (
	"sync"
	"time"

	"github.com/skyfield-io/mavbridge/internal/bridge/core"
	"github.com/skyfield-io/mavbridge/internal/bridge/link"
	"github.com/skyfield-io/mavbridge/internal/bridge/recorder"
	"github.com/skyfield-io/mavbridge/internal/bridge/state"
)

type captureEmitter struct {
	mu     sync.Mutex
	events []any
}

func (c *captureEmitter) Emit(v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, v)
}

func (c *captureEmitter) all() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.events...)
}

// fakeLink records sent commands and lets tests react to them, typically by
// applying the telemetry a real vehicle would produce in response.
type fakeLink struct {
	mu     sync.Mutex
	sent   []core.Command
	onSend func(cmd core.Command)
}

func (l *fakeLink) WaitHandshake(time.Duration) (*core.Heartbeat, error) {
	return &core.Heartbeat{SystemID: 1, ComponentID: 1, ModeName: "STABILIZE"}, nil
}

func (l *fakeLink) Recv(time.Duration) (core.Message, error) { return nil, nil }

func (l *fakeLink) Send(cmd core.Command) error {
	l.mu.Lock()
	l.sent = append(l.sent, cmd)
	hook := l.onSend
	l.mu.Unlock()

	if hook != nil {
		hook(cmd)
	}
	return nil
}

func (l *fakeLink) ModeTable() map[string]uint32 {
	return map[string]uint32{"STABILIZE": 0, "GUIDED": 4, "AUTO": 3, "RTL": 6}
}

func (l *fakeLink) TargetSystem() uint8    { return 1 }
func (l *fakeLink) TargetComponent() uint8 { return 1 }
func (l *fakeLink) Close() error           { return nil }

func (l *fakeLink) commands() []core.Command {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Command(nil), l.sent...)
}

type testRig struct {
	exec    *Executors
	link    *fakeLink
	emitter *captureEmitter
	store   *state.Store
	rec     *recorder.Recorder
}

func newTestRig(timeouts TakeoffTimeouts) *testRig {
	fl := &fakeLink{}
	session := link.NewSession()
	session.Set(fl)

	store := state.NewStore(state.Options{})
	rec := recorder.New(nil)
	emitter := &captureEmitter{}

	exec := NewExecutors(Options{
		Session:      session,
		Store:        store,
		Recorder:     rec,
		Emitter:      emitter,
		Timeouts:     timeouts,
		PollInterval: 5 * time.Millisecond,
	})

	return &testRig{exec: exec, link: fl, emitter: emitter, store: store, rec: rec}
}
