package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/skyfield-io/mavbridge/internal/bridge/core"
	"github.com/skyfield-io/mavbridge/pkg/log"
)

// Reader parses command requests from line-delimited JSON input.
// Malformed lines are reported and discarded; they never stop the reader.
type Reader struct {
	in   io.Reader
	emit core.Emitter
}

// NewReader creates a Reader on in (normally os.Stdin).
func NewReader(in io.Reader, emit core.Emitter) *Reader {
	return &Reader{in: in, emit: emit}
}

// Run reads until EOF or context cancellation, sending each decoded request
// to out. Returns nil on clean EOF.
func (r *Reader) Run(ctx context.Context, out chan<- core.Request) error {
	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req core.Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			log.Error(err, "Invalid command payload")
			r.emit.Emit(core.NewLogEvent("error", fmt.Sprintf("Invalid command payload: %v", err)))
			continue
		}

		select {
		case out <- req:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("command input: %w", err)
	}

	log.Info("Command input closed")
	return nil
}
