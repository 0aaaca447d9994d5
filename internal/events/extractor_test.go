package events

import (
	"math"
	"testing"
)

func TestMaxPoolWindowCount(t *testing.T) {
	cases := []struct {
		name   string
		length int
		width  int
	}{
		{"exact", 10, 2},
		{"remainder", 11, 2},
		{"single window", 3, 5},
		{"width one", 7, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			column := make([]float32, tc.length)
			for i := range column {
				column[i] = float32(i)
			}
			pooled := MaxPool(column, tc.width)
			want := int(math.Ceil(float64(tc.length) / float64(tc.width)))
			if len(pooled) != want {
				t.Fatalf("expected %d windows, got %d", want, len(pooled))
			}
		})
	}
}

func TestMaxPoolValues(t *testing.T) {
	column := []float32{0.05, 0.95, 0.10, 0.80, 0.0}
	pooled := MaxPool(column, 2)
	want := []float32{0.95, 0.80, 0.0}
	if len(pooled) != len(want) {
		t.Fatalf("expected %d windows, got %d", len(want), len(pooled))
	}
	for i := range want {
		if pooled[i] != want[i] {
			t.Fatalf("window %d: expected %v, got %v", i, want[i], pooled[i])
		}
	}
}

func TestMaxPoolEmptyAndInvalidWidth(t *testing.T) {
	if got := MaxPool(nil, 2); got != nil {
		t.Fatalf("expected nil for empty column, got %v", got)
	}
	if got := MaxPool([]float32{0.5}, 0); got != nil {
		t.Fatalf("expected nil for zero width, got %v", got)
	}
}

func TestExtractFiltersAndOrders(t *testing.T) {
	column := []float32{0.05, 0.95, 0.10, 0.80, 0.0}
	detections := Extract(column, 2, 0, 50)
	if len(detections) != 2 {
		t.Fatalf("expected 2 detections, got %d: %v", len(detections), detections)
	}
	if detections[0].Timestamp != 0 || detections[0].Confidence != 95 {
		t.Fatalf("unexpected first detection: %+v", detections[0])
	}
	wantSecond := float64(2) / ModelFramesPerSecond
	if detections[1].Timestamp != wantSecond || detections[1].Confidence != 80 {
		t.Fatalf("unexpected second detection: %+v", detections[1])
	}
}

func TestExtractOffset(t *testing.T) {
	column := []float32{0.99}
	detections := Extract(column, 100, 30, 50)
	if len(detections) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(detections))
	}
	if detections[0].Timestamp != 30 {
		t.Fatalf("expected offset timestamp 30, got %v", detections[0].Timestamp)
	}
}

func TestExtractThresholdMonotonic(t *testing.T) {
	column := []float32{0.05, 0.95, 0.10, 0.80, 0.0, 0.33, 0.61, 0.2}
	prev := len(Extract(column, 2, 0, 0))
	for threshold := 5; threshold <= 100; threshold += 5 {
		count := len(Extract(column, 2, 0, threshold))
		if count > prev {
			t.Fatalf("raising threshold to %d increased detections from %d to %d", threshold, prev, count)
		}
		prev = count
	}
}

func TestExtractEmptyResultIsNotError(t *testing.T) {
	if got := Extract([]float32{0.01, 0.02}, 2, 0, 90); len(got) != 0 {
		t.Fatalf("expected no detections, got %v", got)
	}
}

func TestColumn(t *testing.T) {
	matrix := [][]float32{
		{0.1, 0.2, 0.3},
		{0.4, 0.5, 0.6},
	}
	column := Column(matrix, 1)
	if len(column) != 2 || column[0] != 0.2 || column[1] != 0.5 {
		t.Fatalf("unexpected column: %v", column)
	}
	if got := Column(matrix, 9); len(got) != 0 {
		t.Fatalf("expected empty column for out-of-range code, got %v", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	cases := map[float64]string{
		0:       "00:00:00",
		61:      "00:01:01",
		3661.9:  "01:01:01",
		86399.0: "23:59:59",
	}
	for seconds, want := range cases {
		if got := FormatTimestamp(seconds); got != want {
			t.Fatalf("FormatTimestamp(%v) = %q, want %q", seconds, got, want)
		}
	}
}
