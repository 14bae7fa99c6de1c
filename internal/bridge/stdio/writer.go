// Package stdio frames the bridge's stdio contract: one JSON object per
// line, inbound command requests on stdin, outbound events on stdout.
package stdio

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/skyfield-io/mavbridge/internal/bridge/core"
	"github.com/skyfield-io/mavbridge/pkg/log"
)

// Writer emits events as line-delimited JSON. Safe for concurrent use.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

var _ core.Emitter = (*Writer)(nil)

// NewWriter creates a Writer on w (normally os.Stdout).
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

// Emit serializes v onto one line. Encoding failures are logged, never fatal:
// a bad event must not take the bridge down.
func (w *Writer) Emit(v any) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.enc.Encode(v); err != nil {
		log.Error(err, "Failed to emit event")
	}
}
