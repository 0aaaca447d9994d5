// Package events turns framewise classifier confidence into timestamped
// detections.
//
// The classifier emits one confidence row per model frame at a fixed frame
// rate. Extraction selects the column for one event class, max-pools it into
// non-overlapping precision windows, converts window indices to absolute
// timestamps, and filters by a percentage threshold. An empty result is a
// valid outcome, not an error.
package events
