package excise

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"silence-excise/internal/cancel"
	"silence-excise/internal/logx"
	"silence-excise/internal/transcoder"
)

// renderPermits is the default cap on concurrent transcoder processes: each
// Renderer creates one semaphore on its first Render call and every later
// Render call on it shares that semaphore, so it is the only rate limiter on
// batch rendering.
const renderPermits = 4

// cancelPollInterval is the latency floor for observing the shared
// cancellation flag during a render.
const cancelPollInterval = 100 * time.Millisecond

// IoError wraps a filesystem failure encountered while preparing or
// cleaning up the render temp directory.
type IoError struct{ Err error }

func (e *IoError) Error() string { return fmt.Sprintf("io error: %v", e.Err) }
func (e *IoError) Unwrap() error { return e.Err }

// Renderer is the parallel batch renderer (spec C7).
type Renderer struct {
	Driver  *transcoder.Driver
	Policy  EncoderPolicy
	Permits int64

	semOnce sync.Once
	sem     *semaphore.Weighted
}

// NewRenderer returns a Renderer with the default permit count and a
// hardware-preferred encoder policy.
func NewRenderer(d *transcoder.Driver) *Renderer {
	return &Renderer{Driver: d, Policy: HwPreferred, Permits: renderPermits}
}

// TempDirFor returns the per-job temp directory for an output path (spec:
// "<output_path>.temp_parts").
func TempDirFor(outputPath string) string {
	return outputPath + ".temp_parts"
}

// Render creates tempDir, spawns one rendering task per batch bounded by the
// semaphore, and emits progress as tasks complete. It returns
// ErrExportCancelled if tok is observed cancelled on a poll tick; in that
// case outstanding tasks are aborted via context cancellation and tempDir is
// removed before returning.
func (r *Renderer) Render(ctx context.Context, inputPath string, plan BatchPlan, hasVideo bool, tempDir string, sink func(ProgressEvent), tok *cancel.Token) error {
	if err := os.RemoveAll(tempDir); err != nil {
		return &IoError{Err: err}
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return &IoError{Err: err}
	}

	total := len(plan.Batches)
	if total == 0 {
		return nil
	}

	taskCtx, cancelTasks := context.WithCancel(ctx)
	defer cancelTasks()

	r.semOnce.Do(func() {
		permits := r.Permits
		if permits <= 0 {
			permits = renderPermits
		}
		r.sem = semaphore.NewWeighted(permits)
	})
	sem := r.sem

	type outcome struct {
		idx int
		err error
	}
	results := make(chan outcome, total)

	for i, batch := range plan.Batches {
		i, batch := i, batch
		go func() {
			if err := sem.Acquire(taskCtx, 1); err != nil {
				results <- outcome{i, err}
				return
			}
			defer sem.Release(1)
			err := r.renderBatch(taskCtx, inputPath, batch, hasVideo, tempDir, i)
			results <- outcome{i, err}
		}()
	}

	ticker := time.NewTicker(cancelPollInterval)
	defer ticker.Stop()

	start := time.Now()
	var completed int64
	var firstErr error
	received := 0

	for received < total {
		select {
		case res := <-results:
			received++
			if res.err != nil && firstErr == nil {
				firstErr = res.err
			}
			c := atomic.AddInt64(&completed, 1)
			elapsed := time.Since(start)
			var eta *time.Duration
			if c > 0 && c < int64(total) {
				remain := elapsed * time.Duration(int64(total)-c) / time.Duration(c)
				eta = &remain
			}
			sink(ProgressEvent{
				Percent: 1 + 90*float64(c)/float64(total),
				Message: fmt.Sprintf("rendered batch %d/%d", c, total),
				ETA:     eta,
			})
		case <-ticker.C:
			if tok.IsCancelled() {
				cancelTasks()
				os.RemoveAll(tempDir)
				logx.Infof("Render", "cancelled after %d/%d batches", completed, total)
				return ErrExportCancelled{}
			}
		}
	}

	if firstErr != nil {
		os.RemoveAll(tempDir)
		return firstErr
	}
	return nil
}

// renderBatch invokes the transcoder on a single batch: input-side seek,
// the trim/concat filter graph, and AAC/hw-or-sw-video output into
// part_<idx>.ts.
func (r *Renderer) renderBatch(ctx context.Context, inputPath string, batch Batch, hasVideo bool, tempDir string, idx int) error {
	graph, hasAnySegment := buildFilterGraph(batch, hasVideo)
	if !hasAnySegment {
		return nil
	}

	outPath := filepath.Join(tempDir, fmt.Sprintf("part_%d.ts", idx))

	args := []string{
		"-nostdin",
		"-ss", fmt.Sprintf("%.3f", batch.SeekStart),
		"-i", inputPath,
		"-filter_complex", graph,
	}
	if hasVideo {
		args = append(args, "-map", "[fv]")
		args = append(args, r.videoEncoderArgs()...)
	}
	args = append(args, "-map", "[fa]", "-c:a", "aac", "-b:a", "128k")
	args = append(args, "-f", "mpegts", "-y", outPath)

	return r.Driver.RunToCompletion(ctx, args)
}

// videoEncoderArgs picks the video codec per the runtime encoder policy: a
// hardware encoder on operating systems known to have one, software libx264
// ultrafast elsewhere.
func (r *Renderer) videoEncoderArgs() []string {
	if r.Policy == HwPreferred && runtime.GOOS == "darwin" {
		return []string{"-c:v", "h264_videotoolbox"}
	}
	return []string{"-c:v", "libx264", "-preset", "ultrafast"}
}

// buildFilterGraph constructs the -filter_complex argument for one batch:
// a trim (and, for video, a setpts reset) per segment, rebased by the
// batch's seek_start, followed by a concat producing [fa] and (if hasVideo)
// [fv].
func buildFilterGraph(batch Batch, hasVideo bool) (string, bool) {
	if len(batch.Segments) == 0 {
		return "", false
	}

	var parts []string
	var audioLabels, videoLabels []string

	for i, seg := range batch.Segments {
		start := seg.Start - batch.SeekStart
		if start < 0 {
			start = 0
		}
		end := seg.End - batch.SeekStart

		aLabel := fmt.Sprintf("a%d", i)
		parts = append(parts, fmt.Sprintf("[0:a]atrim=start=%.3f:end=%.3f,asetpts=PTS-STARTPTS[%s]", start, end, aLabel))
		audioLabels = append(audioLabels, fmt.Sprintf("[%s]", aLabel))

		if hasVideo {
			vLabel := fmt.Sprintf("v%d", i)
			parts = append(parts, fmt.Sprintf("[0:v]trim=start=%.3f:end=%.3f,setpts=PTS-STARTPTS[%s]", start, end, vLabel))
			videoLabels = append(videoLabels, fmt.Sprintf("[%s]", vLabel))
		}
	}

	n := len(batch.Segments)
	parts = append(parts, fmt.Sprintf("%sconcat=n=%d:v=0:a=1[fa]", strings.Join(audioLabels, ""), n))
	if hasVideo {
		parts = append(parts, fmt.Sprintf("%sconcat=n=%d:v=1:a=0[fv]", strings.Join(videoLabels, ""), n))
	}

	return strings.Join(parts, ";"), true
}
