package events

import "fmt"

// ModelFramesPerSecond is the classifier's output frame rate.
const ModelFramesPerSecond = 100

// Detection is one threshold-passing event.
type Detection struct {
	// Timestamp is seconds from the start of the asset.
	Timestamp float64
	// Confidence is the pooled score expressed as a percentage.
	Confidence int
}

// Column extracts the confidence column for one class code from a framewise
// score matrix (rows are model frames, columns are classes).
func Column(matrix [][]float32, code int) []float32 {
	column := make([]float32, 0, len(matrix))
	for _, row := range matrix {
		if code < 0 || code >= len(row) {
			continue
		}
		column = append(column, row[code])
	}
	return column
}

// MaxPool reduces a confidence column into non-overlapping windows of the
// given width, keeping each window's maximum. The final, shorter window is
// pooled on its own and appended. Width must be positive.
func MaxPool(column []float32, width int) []float32 {
	if width <= 0 || len(column) == 0 {
		return nil
	}
	pooled := make([]float32, 0, (len(column)+width-1)/width)
	for pos := 0; pos < len(column); pos += width {
		end := pos + width
		if end > len(column) {
			end = len(column)
		}
		max := column[pos]
		for _, value := range column[pos+1 : end] {
			if value > max {
				max = value
			}
		}
		pooled = append(pooled, max)
	}
	return pooled
}

// Extract pools one class's confidence column and returns the detections whose
// pooled confidence meets the threshold, ordered by ascending timestamp.
// Precision is the pooling window in model frames; offset is seconds already
// elapsed from prior chunks; threshold is a percentage in [0, 100].
func Extract(column []float32, precision int, offset float64, threshold int) []Detection {
	pooled := MaxPool(column, precision)
	if len(pooled) == 0 {
		return nil
	}
	detections := make([]Detection, 0, len(pooled))
	for i, score := range pooled {
		percent := int(score * 100)
		if percent < threshold {
			continue
		}
		detections = append(detections, Detection{
			Timestamp:  offset + float64(i)*float64(precision)/ModelFramesPerSecond,
			Confidence: percent,
		})
	}
	return detections
}

// FormatTimestamp renders seconds as HH:MM:SS.
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}
