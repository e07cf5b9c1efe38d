package server

// GetVideoInfoRequest is the request body for POST /video-info.
type GetVideoInfoRequest struct {
	Path string `json:"path" binding:"required"`
}

// ExtractAudioRequest is the request body for POST /extract-audio.
type ExtractAudioRequest struct {
	Path       string `json:"path" binding:"required"`
	SampleRate int    `json:"sample_rate"`
}

// AudioDataResponse mirrors job.AudioData with JSON tags.
type AudioDataResponse struct {
	Peaks      []float32 `json:"peaks"`
	SampleRate int       `json:"sample_rate"`
	Duration   float64   `json:"duration"`
	Channels   int       `json:"channels"`
	Format     string    `json:"format"`
	BitDepth   int       `json:"bit_depth"`
	CacheID    string    `json:"cache_id"`
}

// DetectSilencesRequest is the request body for POST /detect-silences.
type DetectSilencesRequest struct {
	CacheID               string  `json:"cache_id" binding:"required"`
	SampleRate            int     `json:"sample_rate" binding:"required"`
	ThresholdDB           float64 `json:"threshold_db"`
	MinSilenceDurationSec float64 `json:"min_silence_duration" binding:"required"`
}

// SilenceSegmentResponse is one entry of a detect_silences response.
type SilenceSegmentResponse struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Duration  float64 `json:"duration"`
	AverageDB float64 `json:"average_db"`
}

// ProcessVideoRequestBody is the request body for POST /process-video.
type ProcessVideoRequestBody struct {
	InputPath             string  `json:"input_path" binding:"required"`
	OutputPath            string  `json:"output_path"`
	ThresholdDB           float64 `json:"threshold_db"`
	MinSilenceDurationSec float64 `json:"min_silence_duration" binding:"required"`
	SampleRate            int     `json:"sample_rate"`
}

// VideoProcessResponseBody is the response body for POST /process-video.
type VideoProcessResponseBody struct {
	OriginalDuration    float64                  `json:"original_duration"`
	ProcessedDuration   float64                  `json:"processed_duration"`
	SilenceSegments     []SilenceSegmentResponse `json:"silence_segments"`
	TotalSilenceRemoved float64                  `json:"total_silence_removed"`
	CompressionRatio    float64                  `json:"compression_ratio"`
	ProcessingTimeSec   float64                  `json:"processing_time_sec"`
}

// BatchProcessRequestBody is the request body for POST /batch-process.
type BatchProcessRequestBody struct {
	InputPaths            []string `json:"input_paths" binding:"required"`
	OutputDir             string   `json:"output_dir" binding:"required"`
	ThresholdDB           float64  `json:"threshold_db"`
	MinSilenceDurationSec float64  `json:"min_silence_duration" binding:"required"`
}

// AudioStatisticsRequest is the request body for POST /audio-statistics.
type AudioStatisticsRequest struct {
	CacheID    string `json:"cache_id" binding:"required"`
	SampleRate int    `json:"sample_rate" binding:"required"`
}

// AudioStatisticsResponse is the response body for POST /audio-statistics.
type AudioStatisticsResponse struct {
	SampleCount     int     `json:"sample_count"`
	DurationSec     float64 `json:"duration_sec"`
	MinValue        float32 `json:"min_value"`
	MaxValue        float32 `json:"max_value"`
	RMSDb           float64 `json:"rms_db"`
	PeakDb          float64 `json:"peak_db"`
	DynamicRangeDb  float64 `json:"dynamic_range_db"`
	SilenceRatio    float64 `json:"silence_ratio"`
}

// ErrorResponse is the uniform error shape across all command endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}
