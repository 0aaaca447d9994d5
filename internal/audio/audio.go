// Package audio decodes media files to mono PCM samples by piping through
// ffmpeg, so any container yt-dlp produces can feed the classifier.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// ErrNoAudio indicates ffmpeg produced zero samples for the input.
var ErrNoAudio = errors.New("no audio stream decoded")

// readChunkBytes sizes each stdout read. Must be even so samples never split
// across reads.
const readChunkBytes = 1 << 16

// Decoder runs ffmpeg to extract normalized float32 samples.
type Decoder struct {
	binary string
	logger *slog.Logger
}

// NewDecoder returns a decoder using the given ffmpeg binary.
func NewDecoder(binary string, logger *slog.Logger) *Decoder {
	return &Decoder{binary: binary, logger: logger}
}

// Decode converts the file to mono signed 16-bit PCM at the given sample rate
// and returns the samples scaled to [-1, 1). The whole track is held in
// memory; an hour of 32 kHz mono audio is under half a gigabyte.
func (d *Decoder) Decode(ctx context.Context, path string, sampleRate int) ([]float32, error) {
	args := []string{
		"-i", path,
		"-f", "s16le",
		"-ac", "1",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-",
	}
	cmd := exec.CommandContext(ctx, d.binary, args...)

	var stderr strings.Builder
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create ffmpeg stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	samples, readErr := readSamples(stdout)
	waitErr := cmd.Wait()

	if readErr != nil {
		return nil, fmt.Errorf("read ffmpeg output: %w", readErr)
	}
	if waitErr != nil {
		return nil, fmt.Errorf("ffmpeg failed for %s: %w (%s)", path, waitErr, tail(stderr.String()))
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoAudio, path)
	}

	d.logger.Debug("decoded audio",
		"path", path,
		"samples", len(samples),
		"seconds", float64(len(samples))/float64(sampleRate))
	return samples, nil
}

func readSamples(r io.Reader) ([]float32, error) {
	var samples []float32
	buf := make([]byte, readChunkBytes)
	carry := 0
	for {
		n, err := r.Read(buf[carry:])
		n += carry
		carry = 0

		complete := n - n%2
		samples = append(samples, PCM16ToFloat32(buf[:complete])...)
		if n > complete {
			buf[0] = buf[complete]
			carry = 1
		}

		if err == io.EOF {
			return samples, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// PCM16ToFloat32 converts little-endian signed 16-bit samples to float32 in
// [-1, 1). The byte slice length must be even.
func PCM16ToFloat32(b []byte) []float32 {
	out := make([]float32, len(b)/2)
	for i := range out {
		v := int16(uint16(b[2*i]) | uint16(b[2*i+1])<<8)
		out[i] = float32(v) / 32768
	}
	return out
}

// tail trims ffmpeg's stderr to its final line for error messages.
func tail(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
