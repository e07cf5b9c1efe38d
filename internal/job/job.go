package job

import (
	"silence-excise/internal/excise"
	"silence-excise/internal/mediainfo"
	"silence-excise/internal/silence"
)

// AudioData is the result shape of extract_audio (spec §6).
type AudioData struct {
	Peaks      []float32
	SampleRate int
	Duration   float64
	Channels   int
	Format     string
	BitDepth   int
	CacheID    string
}

// ProcessVideoRequest is the input shape of process_video.
type ProcessVideoRequest struct {
	InputPath             string
	OutputPath            string
	ThresholdDB           float64
	MinSilenceDurationSec float64
	SampleRate            int
	// Segments, if non-nil, skips detection and uses these silences
	// directly (the command's "segments?" optional field).
	Segments []silence.Segment
}

// VideoProcessResponse is the result shape of process_video.
type VideoProcessResponse struct {
	Result excise.ProcessResult
}

// BatchProcessRequest is the input shape of batch_process.
type BatchProcessRequest struct {
	InputPaths            []string
	OutputDir             string
	ThresholdDB           float64
	MinSilenceDurationSec float64
}

// VideoInfo re-exports mediainfo.VideoInfo as the get_video_info result
// shape (spec §6).
type VideoInfo = mediainfo.VideoInfo

const defaultSampleRate = 16000
