// Package excise implements the excision planner, parallel batch renderer,
// and stitcher: the pipeline that turns a silence segment list into a
// silence-free output container. Job-scoped state follows a one-shot
// lifecycle (extract, plan, render, stitch) with no retry-on-premature-end
// concept.
package excise

import (
	"time"

	"silence-excise/internal/silence"
)

// SpeechSegment is a kept (non-silent) interval of the source.
type SpeechSegment struct {
	Start float64
	End   float64
}

// Batch is a contiguous ordered subset of speech segments rendered by one
// transcoder job.
type Batch struct {
	Segments  []SpeechSegment
	SeekStart float64
}

// BatchPlan is the ordered sequence of batches produced by the planner.
type BatchPlan struct {
	Batches []Batch
}

// maxBatchSize bounds UI progress granularity against per-job startup cost.
const maxBatchSize = 10

// EncoderPolicy selects how the video encoder is chosen for batch renders.
type EncoderPolicy int

const (
	// HwPreferred auto-detects a hardware encoder for the running OS,
	// falling back to software if none is known.
	HwPreferred EncoderPolicy = iota
	// SwOnly always uses the software encoder.
	SwOnly
)

// ProcessResult is the summary returned once a process_video job completes.
type ProcessResult struct {
	OriginalDuration    float64
	ProcessedDuration   float64
	SilenceSegments     []silence.Segment
	TotalSilenceRemoved float64
	CompressionRatio    float64
	ProcessingTimeSec   float64
}

// ProgressEvent is emitted on the video-progress event sink channel.
type ProgressEvent struct {
	Percent float64
	Message string
	ETA     *time.Duration
}

// ErrExportCancelled is returned by Renderer.Render when the cancellation
// flag is observed on a poll tick. Stitch does not consult the flag. It is an
// expected outcome, not a retry trigger.
type ErrExportCancelled struct{}

func (ErrExportCancelled) Error() string { return "export cancelled" }
