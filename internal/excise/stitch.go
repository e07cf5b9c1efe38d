package excise

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"silence-excise/internal/silence"
	"silence-excise/internal/transcoder"
)

// Stitcher losslessly concatenates the rendered batch segments into the
// final output container (spec C8): stream-copy only, no re-encode.
type Stitcher struct {
	Driver *transcoder.Driver
}

// NewStitcher returns a Stitcher backed by d.
func NewStitcher(d *transcoder.Driver) *Stitcher {
	return &Stitcher{Driver: d}
}

// Stitch writes the concat list file, invokes the transcoder to stream-copy
// the parts into outputPath, and returns the completed ProcessResult. tempDir
// is removed unconditionally before returning, on every exit path.
func (s *Stitcher) Stitch(ctx context.Context, tempDir, outputPath string, numBatches int, originalDuration float64, silences []silence.Segment, startedAt time.Time, sink func(ProgressEvent)) (ProcessResult, error) {
	defer os.RemoveAll(tempDir)

	listPath := filepath.Join(tempDir, "concat_list.txt")
	if err := writeConcatList(listPath, numBatches); err != nil {
		return ProcessResult{}, &IoError{Err: err}
	}

	args := []string{
		"-f", "concat", "-safe", "0", "-i", listPath,
		"-c", "copy", "-movflags", "+faststart", "-y", outputPath,
	}
	if err := s.Driver.RunToCompletion(ctx, args); err != nil {
		return ProcessResult{}, err
	}

	var totalRemoved float64
	for _, sg := range silences {
		totalRemoved += sg.Duration
	}
	processedDuration := originalDuration - totalRemoved

	compressionRatio := 0.0
	if originalDuration > 0 {
		compressionRatio = totalRemoved / originalDuration * 100
	}

	result := ProcessResult{
		OriginalDuration:    originalDuration,
		ProcessedDuration:   processedDuration,
		SilenceSegments:     silences,
		TotalSilenceRemoved: totalRemoved,
		CompressionRatio:    compressionRatio,
		ProcessingTimeSec:   time.Since(startedAt).Seconds(),
	}

	sink(ProgressEvent{Percent: 100, Message: "done"})

	return result, nil
}

// writeConcatList writes one "file 'part_<i>.ts'" line per batch in index
// order, matching the literal format the transcoder's concat demuxer
// expects.
func writeConcatList(listPath string, numBatches int) error {
	f, err := os.Create(listPath)
	if err != nil {
		return err
	}
	defer f.Close()

	for i := 0; i < numBatches; i++ {
		if _, err := fmt.Fprintf(f, "file 'part_%d.ts'\n", i); err != nil {
			return err
		}
	}
	return nil
}
