// Package server exposes the six job commands over HTTP, plus the outbound
// event-sink channels as Server-Sent Events and the media-range handler for
// local playback. One API struct wraps the orchestrator, binding JSON
// requests via gin.Context.ShouldBindJSON and returning a uniform response
// shape per endpoint.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"silence-excise/internal/excise"
	"silence-excise/internal/job"
	"silence-excise/internal/logx"
	"silence-excise/internal/mediaserver"
	"silence-excise/internal/silence"
)

// API handles the HTTP command surface.
type API struct {
	manager *job.Manager
}

// NewAPI creates a new API handler wrapping manager.
func NewAPI(manager *job.Manager) *API {
	return &API{manager: manager}
}

// GetVideoInfo handles POST /video-info (get_video_info(path) -> VideoInfo).
func (a *API) GetVideoInfo(c *gin.Context) {
	var req GetVideoInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	logx.Infof("API", "get_video_info: path=%s", req.Path)

	info, err := a.manager.GetVideoInfo(c.Request.Context(), req.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, info)
}

// ExtractAudio handles POST /extract-audio
// (extract_audio(path, sample_rate?) -> AudioData).
func (a *API) ExtractAudio(c *gin.Context) {
	var req ExtractAudioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	logx.Infof("API", "extract_audio: path=%s sample_rate=%d", req.Path, req.SampleRate)

	data, err := a.manager.ExtractAudio(c.Request.Context(), req.Path, req.SampleRate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, AudioDataResponse{
		Peaks:      data.Peaks,
		SampleRate: data.SampleRate,
		Duration:   data.Duration,
		Channels:   data.Channels,
		Format:     data.Format,
		BitDepth:   data.BitDepth,
		CacheID:    data.CacheID,
	})
}

// DetectSilences handles POST /detect-silences
// (detect_silences(cache_id, audio_data?, sample_rate, threshold_db,
// min_silence_duration) -> SilenceSegment[]).
func (a *API) DetectSilences(c *gin.Context) {
	var req DetectSilencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	logx.Infof("API", "detect_silences: cache_id=%s threshold_db=%.1f min=%.3f", req.CacheID, req.ThresholdDB, req.MinSilenceDurationSec)

	segs, err := a.manager.DetectSilences(req.CacheID, nil, req.SampleRate, req.ThresholdDB, req.MinSilenceDurationSec)
	if err != nil {
		c.JSON(statusForSilenceErr(err), ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, toSilenceResponses(segs))
}

// ProcessVideo handles POST /process-video
// (process_video({...}) -> VideoProcessResponse).
func (a *API) ProcessVideo(c *gin.Context) {
	var req ProcessVideoRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	logx.Infof("API", "process_video: input=%s output=%s", req.InputPath, req.OutputPath)

	resp, err := a.manager.ProcessVideo(c.Request.Context(), job.ProcessVideoRequest{
		InputPath:             req.InputPath,
		OutputPath:            req.OutputPath,
		ThresholdDB:           req.ThresholdDB,
		MinSilenceDurationSec: req.MinSilenceDurationSec,
		SampleRate:            req.SampleRate,
	})
	if err != nil {
		if _, ok := err.(excise.ErrExportCancelled); ok {
			c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	r := resp.Result
	c.JSON(http.StatusOK, VideoProcessResponseBody{
		OriginalDuration:    r.OriginalDuration,
		ProcessedDuration:   r.ProcessedDuration,
		SilenceSegments:     toSilenceResponses(r.SilenceSegments),
		TotalSilenceRemoved: r.TotalSilenceRemoved,
		CompressionRatio:    r.CompressionRatio,
		ProcessingTimeSec:   r.ProcessingTimeSec,
	})
}

// CancelExport handles POST /cancel-export (cancel_export() -> void).
func (a *API) CancelExport(c *gin.Context) {
	logx.Infof("API", "cancel_export")
	a.manager.CancelExport()
	c.JSON(http.StatusOK, gin.H{"status": "cancelling"})
}

// BatchProcess handles POST /batch-process (batch_process(...) ->
// ProcessResult[]).
func (a *API) BatchProcess(c *gin.Context) {
	var req BatchProcessRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	logx.Infof("API", "batch_process: %d inputs -> %s", len(req.InputPaths), req.OutputDir)

	results, err := a.manager.BatchProcess(c.Request.Context(), job.BatchProcessRequest{
		InputPaths:            req.InputPaths,
		OutputDir:             req.OutputDir,
		ThresholdDB:           req.ThresholdDB,
		MinSilenceDurationSec: req.MinSilenceDurationSec,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	out := make([]VideoProcessResponseBody, len(results))
	for i, r := range results {
		out[i] = VideoProcessResponseBody{
			OriginalDuration:    r.OriginalDuration,
			ProcessedDuration:   r.ProcessedDuration,
			SilenceSegments:     toSilenceResponses(r.SilenceSegments),
			TotalSilenceRemoved: r.TotalSilenceRemoved,
			CompressionRatio:    r.CompressionRatio,
			ProcessingTimeSec:   r.ProcessingTimeSec,
		}
	}
	c.JSON(http.StatusOK, out)
}

// AudioStatistics handles POST /audio-statistics, exposing
// internal/silence's peak/RMS/dynamic-range summary over a cached PCM
// buffer.
func (a *API) AudioStatistics(c *gin.Context) {
	var req AudioStatisticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	stats, err := a.manager.AudioStatistics(req.CacheID, nil, req.SampleRate)
	if err != nil {
		if _, ok := err.(*silence.NoSamplesError); ok {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, AudioStatisticsResponse{
		SampleCount:    stats.SampleCount,
		DurationSec:    stats.DurationSec,
		MinValue:       stats.MinValue,
		MaxValue:       stats.MaxValue,
		RMSDb:          stats.RMSDb,
		PeakDb:         stats.PeakDb,
		DynamicRangeDb: stats.DynamicRangeDb,
		SilenceRatio:   stats.SilenceRatio,
	})
}

// Events handles GET /events, streaming the job manager's progress and
// peak-batch channels as Server-Sent Events for as long as the client stays
// connected. Progress events are lossy-latest; peak-batch events are
// guaranteed delivery (see internal/job.EventBus).
func (a *API) Events(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	events := a.manager.Events
	for {
		select {
		case <-clientGone:
			return
		case evt := <-events.Progress():
			c.SSEvent("progress", evt)
			c.Writer.Flush()
		case evt := <-events.Peaks():
			c.SSEvent("peaks", evt)
			c.Writer.Flush()
		}
	}
}

// MediaRange handles GET /media, the local byte-range file server (spec
// C10). The target path is percent-decoded from the "uri" query parameter
// using the "media" scheme's host-prefix forms.
func (a *API) MediaRange(c *gin.Context) {
	uri := c.Query("uri")
	path, err := mediaserver.ResolvePath("media", uri)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err := mediaserver.ServeRange(c.Writer, c.Request, path); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	}
}

func toSilenceResponses(segs []silence.Segment) []SilenceSegmentResponse {
	out := make([]SilenceSegmentResponse, len(segs))
	for i, s := range segs {
		out[i] = SilenceSegmentResponse{
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			Duration:  s.Duration,
			AverageDB: s.AverageDB,
		}
	}
	return out
}

func statusForSilenceErr(err error) int {
	switch err.(type) {
	case *silence.InvalidArgumentError, *silence.SampleRateTooLowError:
		return http.StatusBadRequest
	case *silence.NoSamplesError:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
