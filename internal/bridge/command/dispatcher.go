package command

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/skyfield-io/mavbridge/internal/bridge/core"
	"github.com/skyfield-io/mavbridge/internal/pkg/metrics"
	"github.com/skyfield-io/mavbridge/pkg/log"
)

// executor runs one request. Satisfied by *Executors; narrowed to an
// interface so dispatcher tests can inject failing and panicking stubs.
type executor interface {
	Execute(ctx context.Context, req core.Request) (map[string]any, error)
}

// Dispatcher fans requests out to the executor, one goroutine per request,
// so a long takeoff never blocks pose ingestion behind it.
type Dispatcher struct {
	exec    executor
	emitter core.Emitter
}

// NewDispatcher creates a Dispatcher emitting results through emitter.
func NewDispatcher(exec executor, emitter core.Emitter) *Dispatcher {
	return &Dispatcher{exec: exec, emitter: emitter}
}

// Run consumes requests until in closes or ctx is cancelled, then waits for
// in-flight requests to finish.
func (d *Dispatcher) Run(ctx context.Context, in <-chan core.Request) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-in:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				d.dispatch(ctx, req)
			}()
		}
	}
}

// dispatch runs one request and emits its result event, if the request type
// has one. A panicking executor is converted into a failed result.
func (d *Dispatcher) dispatch(ctx context.Context, req core.Request) {
	payload, err := func() (p map[string]any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("command panicked: %v", r)
				log.Error(err, "Recovered from command panic", "type", req.Type)
			}
		}()
		return d.exec.Execute(ctx, req)
	}()

	// Request types without a result kind stay silent on the event channel;
	// failures only reach the operational log.
	kind, hasResult := core.ResultKinds[core.RequestType(req.Type)]
	if !hasResult {
		if err != nil {
			log.Error(err, "Command failed", "type", req.Type)
		}
		return
	}

	result := map[string]any{"type": kind}
	if len(req.RequestID) > 0 {
		result["request_id"] = json.RawMessage(req.RequestID)
	}

	if err != nil {
		result["ok"] = false
		result["error"] = err.Error()
		metrics.CommandsTotal.WithLabelValues(req.Type, "failed").Inc()
		log.Error(err, "Command failed", "type", req.Type)
	} else {
		result["ok"] = true
		for k, v := range payload {
			result[k] = v
		}
		metrics.CommandsTotal.WithLabelValues(req.Type, "success").Inc()
	}

	d.emitter.Emit(result)
}
