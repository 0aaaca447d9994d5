// Package inference drives the sound classifier over decoded audio, chunk by
// chunk, and collects per-class detections.
package inference

import (
	"context"
	"fmt"
	"log/slog"

	"bdetect/internal/events"
)

// Classifier scores a chunk of mono float32 samples. The returned matrix has
// one row per model output frame and one column per sound class.
type Classifier interface {
	Infer(samples []float32) ([][]float32, error)
	Close() error
}

// Engine runs a classifier over whole assets.
type Engine struct {
	classifier Classifier
	logger     *slog.Logger

	sampleRate int
	chunkSize  int
	precision  int
	threshold  int
}

// Params tunes an inference engine.
type Params struct {
	// SampleRate is the decoded audio rate in Hz.
	SampleRate int
	// ChunkSize is the number of samples per classifier pass.
	ChunkSize int
	// Precision is the pooling window in model frames.
	Precision int
	// Threshold is the minimum confidence percentage to report.
	Threshold int
}

// NewEngine wires an engine around a classifier.
func NewEngine(classifier Classifier, params Params, logger *slog.Logger) *Engine {
	return &Engine{
		classifier: classifier,
		logger:     logger,
		sampleRate: params.SampleRate,
		chunkSize:  params.ChunkSize,
		precision:  params.Precision,
		threshold:  params.Threshold,
	}
}

// Chunks splits samples into classifier-sized chunks. A trailing chunk shorter
// than one second of audio is dropped; the model produces no usable frames
// for it.
func Chunks(samples []float32, chunkSize, sampleRate int) [][]float32 {
	if chunkSize <= 0 {
		return nil
	}
	var chunks [][]float32
	for pos := 0; pos < len(samples); pos += chunkSize {
		end := pos + chunkSize
		if end > len(samples) {
			end = len(samples)
		}
		chunk := samples[pos:end]
		if len(chunk) < sampleRate {
			break
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// Analyze classifies the whole sample buffer and returns detections per class
// code, timestamped from the start of the asset. Each chunk is scored once;
// all requested classes are read from the same score matrix.
func (e *Engine) Analyze(ctx context.Context, samples []float32, classes []events.Class) (map[int][]events.Detection, error) {
	results := make(map[int][]events.Detection, len(classes))
	for _, class := range classes {
		results[class.Code] = nil
	}

	chunks := Chunks(samples, e.chunkSize, e.sampleRate)
	offset := 0.0
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		matrix, err := e.classifier.Infer(chunk)
		if err != nil {
			return nil, fmt.Errorf("classify chunk %d: %w", i, err)
		}

		for _, class := range classes {
			column := events.Column(matrix, class.Code)
			detections := events.Extract(column, e.precision, offset, e.threshold)
			results[class.Code] = append(results[class.Code], detections...)
		}

		offset += float64(len(chunk)) / float64(e.sampleRate)
	}

	e.logger.Debug("analysis complete", "chunks", len(chunks), "seconds", offset)
	return results, nil
}
