// Package extract implements the streaming audio extractor and
// peak-envelope emitter: a bounded-buffer read loop over a transcoder
// stdout pipe that decodes raw bytes into PCM samples while maintaining a
// running peak-envelope window.
package extract

import (
	"context"
	"fmt"
	"io"

	"silence-excise/internal/samplecache"
	"silence-excise/internal/transcoder"
)

const (
	readBurstBytes  = 16 * 1024
	peaksPerBatch   = 10
	maxEnvelopeSize = 500000
)

// WaveformStep is emitted every time a batch of peaks is ready.
type WaveformStep struct {
	Peaks    []float32
	Progress float64
}

// WaveformDone is emitted once on end-of-stream.
type WaveformDone struct {
	DurationSec  float64
	TotalSamples int
	CacheID      string
	// Peaks holds the complete envelope iff its length is <= 500000
	// buckets, else is empty (the "peaks-over-IPC cap" design note).
	Peaks []float32
}

// Sink receives extraction events. Exactly one of the two notification
// methods fires per event.
type Sink interface {
	OnWaveformStep(WaveformStep)
	OnWaveformDone(WaveformDone)
}

// ToolMissingError wraps the transcoder-driver error for callers who only
// care about this specific failure mode.
type ToolMissingError struct{ Err error }

func (e *ToolMissingError) Error() string { return fmt.Sprintf("extraction tool missing: %v", e.Err) }
func (e *ToolMissingError) Unwrap() error { return e.Err }

// ExtractionFailedError wraps a nonzero transcoder exit during extraction.
type ExtractionFailedError struct{ Err error }

func (e *ExtractionFailedError) Error() string { return fmt.Sprintf("extraction failed: %v", e.Err) }
func (e *ExtractionFailedError) Unwrap() error { return e.Err }

// PartialError is returned when a pipe read error truncated extraction; the
// caller still receives whatever PCM was read successfully.
type PartialError struct{ Err error }

func (e *PartialError) Error() string { return fmt.Sprintf("partial extraction: %v", e.Err) }
func (e *PartialError) Unwrap() error { return e.Err }

// Extractor runs the transcoder to emit raw mono s16le PCM and decodes it
// incrementally into normalized floats while emitting a peak envelope.
type Extractor struct {
	Driver *transcoder.Driver
	Cache  *samplecache.Cache
}

// NewExtractor returns an Extractor backed by d, populating cache on
// success.
func NewExtractor(d *transcoder.Driver, cache *samplecache.Cache) *Extractor {
	return &Extractor{Driver: d, Cache: cache}
}

// Extract spawns the transcoder against sourcePath, decodes its PCM output,
// and reports progress through sink. durationSec, if known (e.g. from a
// prior probe), is used to compute WaveformStep.Progress; pass 0 if
// unknown.
func (e *Extractor) Extract(ctx context.Context, sourcePath string, sampleRate int, durationSec float64, sink Sink) (string, error) {
	args := []string{"-i", sourcePath, "-vn", "-ac", "1", "-ar", fmt.Sprintf("%d", sampleRate), "-f", "s16le", "-"}

	stream, err := e.Driver.SpawnStream(ctx, args)
	if err != nil {
		if transcoder.IsToolMissing(err) {
			return "", &ToolMissingError{Err: err}
		}
		return "", err
	}

	samples, readErr := decodeStream(stream.Stdout, sampleRate, durationSec, sink)
	waitErr := stream.Wait()

	if readErr != nil {
		cacheID := e.finalize(sourcePath, sampleRate, samples, durationSec, sink)
		return cacheID, &PartialError{Err: readErr}
	}
	if waitErr != nil {
		return "", &ExtractionFailedError{Err: waitErr}
	}

	cacheID := e.finalize(sourcePath, sampleRate, samples, durationSec, sink)
	return cacheID, nil
}

// decodeStream reads raw s16le PCM from r in readBurstBytes-sized bursts,
// normalizing each sample pair into a float32 in [-1.0, 1.0) and
// maintaining a running peak-envelope window flushed in batches of
// peaksPerBatch. It returns every sample successfully decoded even when it
// returns a non-nil error (so a partial read can still be finalized).
func decodeStream(r io.Reader, sampleRate int, durationSec float64, sink Sink) ([]float32, error) {
	peakWindow := sampleRate / 50
	if peakWindow < 1 {
		peakWindow = 1
	}

	var (
		carry        []byte
		samples      []float32
		pendingPeaks []float32
		windowMaxAbs float32
		windowCount  int
		sampledCount int
	)

	buf := make([]byte, readBurstBytes)

	flushBatch := func() {
		if len(pendingPeaks) == 0 {
			return
		}
		progress := 0.0
		if durationSec > 0 && sampleRate > 0 {
			progress = float64(sampledCount) / float64(sampleRate) / durationSec
		}
		batch := make([]float32, len(pendingPeaks))
		copy(batch, pendingPeaks)
		sink.OnWaveformStep(WaveformStep{Peaks: batch, Progress: progress})
		pendingPeaks = pendingPeaks[:0]
	}

	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := buf[:n]
			if len(carry) > 0 {
				data = append(append([]byte{}, carry...), data...)
				carry = nil
			}

			usable := len(data)
			if usable%2 != 0 {
				carry = append(carry, data[usable-1])
				usable--
			}

			for i := 0; i < usable; i += 2 {
				lo, hi := data[i], data[i+1]
				v := int16(uint16(lo) | uint16(hi)<<8)
				f := float32(v) / 32768.0
				samples = append(samples, f)
				sampledCount++

				abs := f
				if abs < 0 {
					abs = -abs
				}
				if abs > windowMaxAbs {
					windowMaxAbs = abs
				}
				windowCount++
				if windowCount >= peakWindow {
					pendingPeaks = append(pendingPeaks, windowMaxAbs)
					windowMaxAbs = 0
					windowCount = 0
					if len(pendingPeaks) >= peaksPerBatch {
						flushBatch()
					}
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				if windowCount > 0 {
					pendingPeaks = append(pendingPeaks, windowMaxAbs)
				}
				flushBatch()
				return samples, nil
			}
			flushBatch()
			return samples, err
		}
	}
}

// finalize stores the assembled buffer in the cache under sourcePath (the
// SamplesKey, per spec C3: "writes the assembled PcmBuffer to C2 under the
// source path"), emits WaveformDone, and returns that same path as the
// cache_id so the caller can thread it straight into detect_silences.
func (e *Extractor) finalize(sourcePath string, sampleRate int, samples []float32, durationSec float64, sink Sink) string {
	cacheID := sourcePath
	e.Cache.Insert(cacheID, samplecache.PcmBuffer{Samples: samples, SampleRate: sampleRate})

	window := maxInt(sampleRate/50, 1)
	totalBuckets := (len(samples) + window - 1) / window
	var peaks []float32
	if totalBuckets <= maxEnvelopeSize {
		peaks = rebuildEnvelope(samples, sampleRate)
	}

	actualDuration := durationSec
	if actualDuration == 0 && sampleRate > 0 {
		actualDuration = float64(len(samples)) / float64(sampleRate)
	}

	sink.OnWaveformDone(WaveformDone{
		DurationSec:  actualDuration,
		TotalSamples: len(samples),
		CacheID:      cacheID,
		Peaks:        peaks,
	})
	return cacheID
}

// rebuildEnvelope recomputes the full peak envelope from the assembled
// sample buffer, used only when it is small enough to ship in WaveformDone.
func rebuildEnvelope(samples []float32, sampleRate int) []float32 {
	window := sampleRate / 50
	if window < 1 {
		window = 1
	}
	var peaks []float32
	for start := 0; start < len(samples); start += window {
		end := start + window
		if end > len(samples) {
			end = len(samples)
		}
		var maxAbs float32
		for _, s := range samples[start:end] {
			abs := s
			if abs < 0 {
				abs = -abs
			}
			if abs > maxAbs {
				maxAbs = abs
			}
		}
		peaks = append(peaks, maxAbs)
	}
	return peaks
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
