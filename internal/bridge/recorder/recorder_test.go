package recorder

import (
	"encoding/base64"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyfield-io/mavbridge/internal/bridge/core"
)

func f(v float64) *float64 { return &v }

func decodeExport(t *testing.T, e *Export) [][]string {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(e.CSV)
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(string(raw))).ReadAll()
	require.NoError(t, err)
	return records
}

func TestStopWithoutStartFails(t *testing.T) {
	r := New(nil)

	_, err := r.Stop()
	require.ErrorIs(t, err, core.ErrRecorderInactive)
	assert.False(t, r.Active())

	// No side effects: a later session starts from an empty buffer.
	r.Start()
	e, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, 0, e.Rows)
}

func TestRoundTripLastWriteWinsJoin(t *testing.T) {
	now := time.Unix(1700000100, 0)
	r := New(func() time.Time { return now })

	r.Start()

	r.SetPosition(PositionSample{Timestamp: 1, Lat: f(-7.4), Lon: f(112.8), Alt: f(12), RelativeAlt: f(1.5)})
	r.ObservePose(PoseSample{Timestamp: 1000, X: 0.1, Y: 0.2, Z: 0.3})
	r.ObservePose(PoseSample{Timestamp: 2000, X: 1.1, Y: 1.2, Z: 1.3})
	r.SetPosition(PositionSample{Timestamp: 2, Lat: f(-7.5), Lon: f(112.9), Alt: f(13), RelativeAlt: f(2.5)})
	r.ObservePose(PoseSample{Timestamp: 3000, X: 2.1, Y: 2.2, Z: 2.3})

	e, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, 3, e.Rows)
	assert.Equal(t, "slam-log-1700000100.csv", e.FileName)

	records := decodeExport(t, e)
	require.Len(t, records, 4, "header plus three data rows")
	assert.Equal(t, "timestamp_log", records[0][0])
	assert.Equal(t, "gps_alt_rel", records[0][9])

	// First two rows join the first position sample, the third the second.
	assert.Equal(t, "-7.4", records[1][6])
	assert.Equal(t, "-7.4", records[2][6])
	assert.Equal(t, "-7.5", records[3][6])
	assert.Equal(t, "2.5", records[3][9])
	assert.Equal(t, "2000", records[2][1])
}

func TestPoseBeforeAnyPositionYieldsEmptyColumns(t *testing.T) {
	r := New(nil)
	r.Start()
	r.ObservePose(PoseSample{Timestamp: 1000, X: 1, Y: 2, Z: 3})

	e, err := r.Stop()
	require.NoError(t, err)
	records := decodeExport(t, e)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"", "", "", "", ""}, records[1][5:])
}

func TestStartWhileActiveReplacesBuffer(t *testing.T) {
	r := New(nil)

	first := r.Start()
	r.ObservePose(PoseSample{Timestamp: 1000, X: 1, Y: 2, Z: 3})
	r.ObservePose(PoseSample{Timestamp: 2000, X: 1, Y: 2, Z: 3})

	second := r.Start()
	assert.NotEqual(t, first, second)
	assert.True(t, r.Active())

	e, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, 0, e.Rows, "restart resets the buffer, never accumulates")
}

func TestInactivePoseUpdatesLatestOnly(t *testing.T) {
	r := New(nil)

	delta := r.ObservePose(PoseSample{Timestamp: 1000, X: 1, Y: 2, Z: 3})
	assert.Nil(t, delta, "no row and no delta while inactive")

	r.Start()
	e, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, 0, e.Rows)
}

func TestObservePoseReturnsLogDelta(t *testing.T) {
	now := time.UnixMilli(1700000000500)
	r := New(func() time.Time { return now })
	r.Start()

	delta := r.ObservePose(PoseSample{Timestamp: 1700000000000, X: 1, Y: 2, Z: 3})
	require.NotNil(t, delta)
	assert.EqualValues(t, 500, *delta)
}
