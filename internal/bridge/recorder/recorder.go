// Package recorder buffers time-correlated (pose, vehicle position) rows
// while a recording session is active and exports them as CSV on stop.
//
// The join is last-write-wins: each accepted pose sample pairs with whatever
// position sample was stored most recently, with no bound on its staleness.
// The exported row carries both timestamps so staleness is visible offline.
package recorder

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skyfield-io/mavbridge/internal/bridge/core"
	"github.com/skyfield-io/mavbridge/pkg/log"
)

// header is the fixed 10-column export contract.
var header = []string{
	"timestamp_log",
	"timestamp_slam",
	"slam_x",
	"slam_y",
	"slam_z",
	"timestamp_mavlink",
	"gps_lat",
	"gps_lon",
	"gps_alt",
	"gps_alt_rel",
}

// PoseSample is the latest externally supplied pose. Replaced in place,
// never accumulated. Orientation components are optional passthrough.
type PoseSample struct {
	Timestamp int64
	X, Y, Z   float64
	QW        *float64
	QX        *float64
	QY        *float64
	QZ        *float64
}

// PositionSample is the latest vehicle position subset used for row
// correlation. Replaced in place.
type PositionSample struct {
	Timestamp   int64
	Lat         *float64
	Lon         *float64
	Alt         *float64
	RelativeAlt *float64
}

// Recorder owns the row buffer and the latest samples of both streams.
// All methods are safe for concurrent use.
type Recorder struct {
	mu sync.Mutex

	active    bool
	sessionID string
	rows      [][]string

	latestPose     *PoseSample
	latestPosition *PositionSample

	now func() time.Time
}

// New creates an inactive Recorder. clock overrides the time source for
// tests; nil selects time.Now.
func New(clock func() time.Time) *Recorder {
	if clock == nil {
		clock = time.Now
	}
	return &Recorder{now: clock}
}

// Start activates a recording session, clearing any buffered rows.
// Starting while already active replaces the un-exported buffer; it is not
// an error. Returns the session id.
func (r *Recorder) Start() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		log.Warn("Recording restarted, discarding buffered rows", "rows", len(r.rows), "session", r.sessionID)
	}

	r.rows = nil
	r.active = true
	r.sessionID = uuid.NewString()

	log.Info("Recording started", "session", r.sessionID)
	return r.sessionID
}

// Active reports whether a recording session is in progress.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Export is the result of stopping a session.
type Export struct {
	// CSV is the base64-encoded UTF-8 CSV text.
	CSV string

	// FileName embeds the export instant: slam-log-<unix-seconds>.csv
	FileName string

	// Rows is the number of data rows exported.
	Rows int
}

// Stop deactivates the session, serializes the buffer and clears it.
// Fails with core.ErrRecorderInactive when no session is active.
func (r *Recorder) Stop() (*Export, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active {
		return nil, core.ErrRecorderInactive
	}
	r.active = false

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("encode csv header: %w", err)
	}
	if err := w.WriteAll(r.rows); err != nil {
		return nil, fmt.Errorf("encode csv rows: %w", err)
	}

	exported := len(r.rows)
	r.rows = nil

	out := &Export{
		CSV:      base64.StdEncoding.EncodeToString(buf.Bytes()),
		FileName: fmt.Sprintf("slam-log-%d.csv", r.now().Unix()),
		Rows:     exported,
	}

	log.Info("Recording stopped", "session", r.sessionID, "rows", exported, "file", out.FileName)
	return out, nil
}

// SetPosition replaces the latest vehicle position sample.
func (r *Recorder) SetPosition(p PositionSample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latestPosition = &p
}

// ObservePose replaces the latest pose sample and, while a session is
// active, appends one joined row. Returns the row's log-vs-pose clock delta
// in milliseconds when a row was appended, nil otherwise.
func (r *Recorder) ObservePose(p PoseSample) *int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.latestPose = &p
	if !r.active {
		return nil
	}

	logMs := r.now().UnixMilli()
	delta := logMs - p.Timestamp

	row := []string{
		strconv.FormatInt(logMs, 10),
		strconv.FormatInt(p.Timestamp, 10),
		formatFloat(p.X),
		formatFloat(p.Y),
		formatFloat(p.Z),
	}
	row = append(row, positionColumns(r.latestPosition)...)
	r.rows = append(r.rows, row)

	return &delta
}

func positionColumns(p *PositionSample) []string {
	if p == nil {
		return []string{"", "", "", "", ""}
	}
	return []string{
		strconv.FormatInt(p.Timestamp, 10),
		formatFloatPtr(p.Lat),
		formatFloatPtr(p.Lon),
		formatFloatPtr(p.Alt),
		formatFloatPtr(p.RelativeAlt),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
