package job

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"silence-excise/internal/cancel"
	"silence-excise/internal/excise"
	"silence-excise/internal/extract"
	"silence-excise/internal/logx"
	"silence-excise/internal/mediainfo"
	"silence-excise/internal/samplecache"
	"silence-excise/internal/silence"
	"silence-excise/internal/transcoder"
)

// Manager orchestrates C1-C10 into the six commands the shell/UI consumes.
// Modeled on the teacher's SessionManager: one mutex-guarded struct holding
// shared collaborators, a single active cancellation token instead of a
// sessions map (the token of the most recently started export; concurrent
// exports are not prevented, and cancel_export reaches only that latest
// one), and an EventBus replacing
// SessionManager.sendEvent's single net.Conn writer.
type Manager struct {
	driver    *transcoder.Driver
	cache     *samplecache.Cache
	prober    *mediainfo.Prober
	extractor *extract.Extractor
	renderer  *excise.Renderer
	stitcher  *excise.Stitcher
	Events    *EventBus

	mu          sync.Mutex
	activeToken *cancel.Token
}

// NewManager wires together the default collaborators for driver and cache.
func NewManager(driver *transcoder.Driver, cache *samplecache.Cache) *Manager {
	return &Manager{
		driver:    driver,
		cache:     cache,
		prober:    mediainfo.NewProber(driver),
		extractor: extract.NewExtractor(driver, cache),
		renderer:  excise.NewRenderer(driver),
		stitcher:  excise.NewStitcher(driver),
		Events:    NewEventBus(),
	}
}

// SetRenderConcurrency overrides the C7 bounded-concurrency permit count
// (default 4). Intended to be called once, before any job runs.
func (m *Manager) SetRenderConcurrency(n int64) {
	if n > 0 {
		m.renderer.Permits = n
	}
}

// GetVideoInfo implements get_video_info(path) -> VideoInfo.
func (m *Manager) GetVideoInfo(ctx context.Context, path string) (VideoInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return VideoInfo{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return m.prober.Probe(ctx, path, filepath.Base(path), info.Size())
}

// ExtractAudio implements extract_audio(path, sample_rate?) -> AudioData.
func (m *Manager) ExtractAudio(ctx context.Context, path string, sampleRate int) (AudioData, error) {
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}

	var durationSec float64
	if info, err := m.prober.Probe(ctx, path, filepath.Base(path), 0); err == nil {
		durationSec = info.DurationSec
	}

	sink := &managerSink{bus: m.Events, ctx: ctx}
	m.Events.EmitProgress(AnalysisProgress{Stage: "extract", Message: "extracting audio", Percent: 0})

	if _, err := m.extractor.Extract(ctx, path, sampleRate, durationSec, sink); err != nil {
		if _, ok := err.(*extract.PartialError); !ok {
			return AudioData{}, err
		}
		logx.Warnf("Extract", "partial extraction for %s: %v", path, err)
	}

	m.Events.EmitProgress(AnalysisProgress{Stage: "extract", Message: "extraction complete", Percent: 1})

	return AudioData{
		Peaks:      sink.lastDonePeaks,
		SampleRate: sampleRate,
		Duration:   sink.lastDoneDuration,
		Channels:   1,
		Format:     "pcm_s16le",
		BitDepth:   16,
		CacheID:    path,
	}, nil
}

// DetectSilences implements detect_silences(cache_id, audio_data?,
// sample_rate, threshold_db, min_silence_duration) -> SilenceSegment[].
func (m *Manager) DetectSilences(cacheID string, fallback []float32, sampleRate int, thresholdDB, minSilenceDurationSec float64) ([]silence.Segment, error) {
	return silence.Detect(m.cache, cacheID, fallback, silence.Params{
		SampleRate:            sampleRate,
		ThresholdDB:           thresholdDB,
		MinSilenceDurationSec: minSilenceDurationSec,
	})
}

// AudioStatistics summarizes the cached PCM buffer under cacheID (or
// fallback on a cache miss) the way a waveform inspector panel would:
// peak/RMS levels, dynamic range, and an estimated silence ratio.
// Supplemental to spec §6, grounded on the original implementation's
// calculate_statistics (see DESIGN.md).
func (m *Manager) AudioStatistics(cacheID string, fallback []float32, sampleRate int) (silence.Statistics, error) {
	samples := fallback
	if buf, ok := m.cache.Get(cacheID); ok {
		samples = buf.Samples
		if buf.SampleRate > 0 {
			sampleRate = buf.SampleRate
		}
	} else if fallback == nil {
		return silence.Statistics{}, &silence.NoSamplesError{Key: cacheID}
	}
	return silence.ComputeStatistics(samples, sampleRate), nil
}

// ProcessVideo implements process_video(...) -> VideoProcessResponse: the
// full detect -> plan -> render -> stitch pipeline, honoring cancellation.
func (m *Manager) ProcessVideo(ctx context.Context, req ProcessVideoRequest) (VideoProcessResponse, error) {
	sampleRate := req.SampleRate
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}
	outputPath := req.OutputPath
	if outputPath == "" {
		outputPath = deriveOutputPath(req.InputPath)
	}

	tok, jobID := m.beginJob()
	defer m.endJob(tok)

	started := time.Now()
	logx.Infof("Job", "starting export %s for %s", shortJobID(jobID), req.InputPath)

	info, err := m.prober.Probe(ctx, req.InputPath, filepath.Base(req.InputPath), 0)
	if err != nil {
		return VideoProcessResponse{}, err
	}

	silences := req.Segments
	if silences == nil {
		m.Events.EmitProgress(AnalysisProgress{Stage: "analyze", Message: "extracting audio", Percent: 0})
		sink := &managerSink{bus: m.Events, ctx: ctx}
		if _, err := m.extractor.Extract(ctx, req.InputPath, sampleRate, info.DurationSec, sink); err != nil {
			if _, ok := err.(*extract.PartialError); !ok {
				return VideoProcessResponse{}, err
			}
		}

		m.Events.EmitProgress(AnalysisProgress{Stage: "analyze", Message: "detecting silences", Percent: 0.5})
		silences, err = silence.Detect(m.cache, req.InputPath, nil, silence.Params{
			SampleRate:            sampleRate,
			ThresholdDB:           req.ThresholdDB,
			MinSilenceDurationSec: req.MinSilenceDurationSec,
		})
		if err != nil {
			return VideoProcessResponse{}, err
		}
	}

	intervals := make([]excise.Interval, len(silences))
	for i, s := range silences {
		intervals[i] = excise.Interval{Start: s.StartTime, End: s.EndTime}
	}
	speech := excise.PlanSpeechSegments(intervals, info.DurationSec)
	plan := excise.Plan(speech)

	tempDir := excise.TempDirFor(outputPath)
	progressSink := func(evt excise.ProgressEvent) {
		var eta *float64
		if evt.ETA != nil {
			secs := evt.ETA.Seconds()
			eta = &secs
		}
		m.Events.EmitProgress(VideoProgress{Percent: evt.Percent, Message: evt.Message, ETASec: eta})
	}

	if err := m.renderer.Render(ctx, req.InputPath, plan, info.HasVideo, tempDir, progressSink, tok); err != nil {
		return VideoProcessResponse{}, err
	}

	result, err := m.stitcher.Stitch(ctx, tempDir, outputPath, len(plan.Batches), info.DurationSec, silences, started, progressSink)
	if err != nil {
		return VideoProcessResponse{}, err
	}

	return VideoProcessResponse{Result: result}, nil
}

// CancelExport implements cancel_export() -> void: flips the active job's
// cancellation token, if any job is running.
func (m *Manager) CancelExport() {
	m.mu.Lock()
	tok := m.activeToken
	m.mu.Unlock()
	if tok != nil {
		tok.Cancel()
	}
}

// BatchProcess implements batch_process(input_paths[], output_dir,
// threshold_db, min_silence_duration) -> ProcessResult[]. Each input runs
// through ProcessVideo sequentially; every render goes through the Manager's
// one renderer and so shares its single semaphore, while each job keeps its
// own temp dir.
func (m *Manager) BatchProcess(ctx context.Context, req BatchProcessRequest) ([]excise.ProcessResult, error) {
	var results []excise.ProcessResult
	for _, input := range req.InputPaths {
		outputPath := filepath.Join(req.OutputDir, filepath.Base(input))
		resp, err := m.ProcessVideo(ctx, ProcessVideoRequest{
			InputPath:             input,
			OutputPath:            outputPath,
			ThresholdDB:           req.ThresholdDB,
			MinSilenceDurationSec: req.MinSilenceDurationSec,
		})
		if err != nil {
			return results, fmt.Errorf("batch item %s: %w", input, err)
		}
		results = append(results, resp.Result)
	}
	return results, nil
}

// beginJob mints a fresh cancellation token and a job ID used only for log
// correlation across concurrent requests (the teacher's SessionManager does
// the same with its playback session IDs; see DESIGN.md).
func (m *Manager) beginJob() (*cancel.Token, string) {
	tok := cancel.New()
	jobID := uuid.NewString()
	m.mu.Lock()
	m.activeToken = tok
	m.mu.Unlock()
	return tok, jobID
}

func (m *Manager) endJob(tok *cancel.Token) {
	m.mu.Lock()
	if m.activeToken == tok {
		m.activeToken = nil
	}
	m.mu.Unlock()
}

// shortJobID truncates a job ID for compact log lines, matching the
// teacher's shortSessionID convention.
func shortJobID(id string) string {
	const n = 8
	if len(id) > n {
		return id[:n]
	}
	return id
}

// deriveOutputPath appends "_excised" before the extension when no explicit
// output path was requested.
func deriveOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	base := inputPath[:len(inputPath)-len(ext)]
	return base + "_excised" + ext
}

// managerSink adapts extract.Sink onto the EventBus, tracking the most
// recent WaveformDone so ExtractAudio can assemble its AudioData return
// value.
type managerSink struct {
	bus *EventBus
	ctx context.Context

	lastDonePeaks    []float32
	lastDoneDuration float64
}

func (s *managerSink) OnWaveformStep(step extract.WaveformStep) {
	s.bus.EmitPeakBatch(s.ctx, step)
}

func (s *managerSink) OnWaveformDone(done extract.WaveformDone) {
	s.lastDonePeaks = done.Peaks
	s.lastDoneDuration = done.DurationSec
	s.bus.EmitPeakBatch(s.ctx, done)
}
