package fitscan

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tormoder/fit"

	"github.com/strukturantcoder/gymdagbokense-sub002/internal/domain"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/taxonomy"
)

// window encodes one strength record in the layout Scan expects.
func window(category, reps byte, weightTenths uint16) []byte {
	w := []byte{category, reps, 0, 0}
	binary.LittleEndian.PutUint16(w[2:], weightTenths)
	return w
}

func syntheticBuffer(size int, headerLen byte, windows map[int][]byte) []byte {
	buf := make([]byte, size)
	buf[0] = headerLen
	for offset, w := range windows {
		copy(buf[offset:], w)
	}
	return buf
}

func TestScanSingleWindow(t *testing.T) {
	buf := syntheticBuffer(32, 14, map[int][]byte{20: window(0, 8, 705)})

	got := Scan(buf)

	require.Equal(t, map[string]domain.ExerciseSets{
		"Bench Press": {Name: "Bench Press", Reps: []int{8}, Weights: []float64{70.5}},
	}, got.ByName())
	require.Len(t, got.Sets, 1)
	require.Equal(t, 20, got.Sets[0].Offset)
	require.Equal(t, 0, got.Sets[0].Category)
}

func TestScanNamesEveryCategoryByCategoryName(t *testing.T) {
	for category := 0; category <= MaxCategory; category++ {
		buf := append([]byte{1}, window(byte(category), 5, 0)...)

		got := Scan(buf)

		require.Len(t, got.Exercises, 1, "category %d", category)
		require.Equal(t, taxonomy.CategoryName(category), got.Exercises[0].Name)
	}
}

func TestScanEmptyAndShortInput(t *testing.T) {
	require.True(t, Scan(nil).Empty())
	require.True(t, Scan([]byte{}).Empty())
	require.True(t, Scan([]byte{14}).Empty())
	require.True(t, Scan([]byte{14, 0, 8, 1, 0}).Empty(), "buffer shorter than its header length")
	require.True(t, Scan([]byte{1, 0, 8, 1}).Empty(), "no room for a full window after the header")
}

func TestScanSkipsHeaderBytes(t *testing.T) {
	buf := syntheticBuffer(24, 12, map[int][]byte{2: window(0, 8, 705), 16: window(28, 5, 1000)})

	got := Scan(buf)

	require.Len(t, got.Exercises, 1)
	require.Equal(t, "Squat", got.Exercises[0].Name)
}

func TestScanGroupsByNameInScanOrder(t *testing.T) {
	// Weights are chosen so no shifted window also passes the bounds.
	buf := syntheticBuffer(64, 12, map[int][]byte{
		16: window(0, 5, 650),
		24: window(28, 5, 1000),
		32: window(0, 5, 650),
		40: window(0, 3, 625),
	})

	got := Scan(buf)

	require.Len(t, got.Exercises, 2)
	require.Equal(t, "Bench Press", got.Exercises[0].Name)
	require.Equal(t, []int{5, 5, 3}, got.Exercises[0].Reps)
	require.Equal(t, []float64{65, 65, 62.5}, got.Exercises[0].Weights)
	require.Equal(t, "Squat", got.Exercises[1].Name)
	require.Equal(t, []float64{100}, got.Exercises[1].Weights)
}

func TestScanConsidersOverlappingWindows(t *testing.T) {
	// [3 5 5 0 0]: offset 12 reads cat 3 reps 5 weight 5 (0.5kg), offset 13 reads cat 5 reps 5 weight 0.
	buf := append(make([]byte, 12), 3, 5, 5, 0, 0)
	buf[0] = 12

	got := Scan(buf)

	require.Len(t, got.Sets, 2)
	require.Equal(t, 12, got.Sets[0].Offset)
	require.Equal(t, 13, got.Sets[1].Offset)
	require.Equal(t, "Carry", got.Exercises[0].Name)
	require.Equal(t, "Core", got.Exercises[1].Name)
}

func TestScanRejectsOutOfBoundWindows(t *testing.T) {
	cases := map[string][]byte{
		"zero reps":        window(0, 0, 100),
		"too many reps":    window(0, 101, 100),
		"too heavy":        window(0, 5, 5001),
		"unknown category": window(33, 5, 100),
	}
	for name, w := range cases {
		t.Run(name, func(t *testing.T) {
			buf := append([]byte{1}, w...)
			require.True(t, Scan(buf).Empty())
		})
	}
}

func TestScanAcceptsBoundaryValues(t *testing.T) {
	buf := syntheticBuffer(32, 12, map[int][]byte{
		12: window(32, 100, 5000),
		24: window(0, 1, 0),
	})

	got := Scan(buf)

	require.Len(t, got.Sets, 2)
	require.Equal(t, 500.0, got.Sets[0].WeightKg)
	require.Equal(t, 0.0, got.Sets[1].WeightKg)
}

func TestScanIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	buf := make([]byte, 4096)
	rng.Read(buf)
	buf[0] = 14

	first := Scan(buf)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, Scan(buf))
	}
}

func TestScanRandomBuffersStayInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		buf := make([]byte, rng.Intn(2048))
		rng.Read(buf)
		assertBounds(t, buf, Scan(buf))
	}
}

func FuzzScan(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{14})
	f.Add(syntheticBuffer(32, 14, map[int][]byte{20: window(0, 8, 705)}))
	f.Fuzz(func(t *testing.T, buf []byte) {
		assertBounds(t, buf, Scan(buf))
	})
}

func assertBounds(t *testing.T, buf []byte, got domain.Extraction) {
	t.Helper()
	total := 0
	for _, set := range got.Sets {
		require.GreaterOrEqual(t, set.Reps, MinReps)
		require.LessOrEqual(t, set.Reps, MaxReps)
		require.GreaterOrEqual(t, set.WeightKg, 0.0)
		require.LessOrEqual(t, set.WeightKg, 500.0)
		require.GreaterOrEqual(t, set.Category, 0)
		require.LessOrEqual(t, set.Category, MaxCategory)
		require.GreaterOrEqual(t, set.Offset, int(buf[0]))
		require.LessOrEqual(t, set.Offset+windowSize, len(buf))
	}
	for _, ex := range got.Exercises {
		require.NotEmpty(t, ex.Name)
		require.Len(t, ex.Weights, len(ex.Reps))
		total += len(ex.Reps)
	}
	require.Equal(t, len(got.Sets), total)
}

func encodeActivity(t *testing.T) []byte {
	t.Helper()

	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	require.NoError(t, err)
	file.FileId.TimeCreated = time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	file.FileId.SerialNumber = 3999000111

	activity, err := file.Activity()
	require.NoError(t, err)

	start := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	event := fit.NewEventMsg()
	event.Timestamp = start
	event.Event = fit.EventTimer
	event.EventType = fit.EventTypeStart
	activity.Events = append(activity.Events, event)

	var buf bytes.Buffer
	require.NoError(t, fit.Encode(&buf, file, binary.LittleEndian))
	return buf.Bytes()
}

func TestInspectWellFormedFile(t *testing.T) {
	data := encodeActivity(t)

	summary := Inspect(data)

	require.True(t, summary.WellFormed)
	require.True(t, summary.CRCValid)
	require.NotEmpty(t, summary.FileType)
	require.Equal(t, uint32(3999000111), summary.SerialNumber)
	require.Equal(t, time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC), summary.CreatedAt)
}

func TestInspectDetectsCorruption(t *testing.T) {
	data := encodeActivity(t)
	data[len(data)-3] ^= 0xFF

	require.False(t, Inspect(data).CRCValid)
}

func TestInspectRejectsNonContainer(t *testing.T) {
	require.Equal(t, domain.FileSummary{}, Inspect(nil))
	require.Equal(t, domain.FileSummary{}, Inspect(syntheticBuffer(32, 14, map[int][]byte{20: window(0, 8, 705)})))
}

func TestScanRealContainerIsSafe(t *testing.T) {
	data := encodeActivity(t)
	assertBounds(t, data, Scan(data))
}
