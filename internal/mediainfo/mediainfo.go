// Package mediainfo retrieves container and stream metadata via the probe
// tool (spec C4), grounded on the teacher's youtube.ExtractMetadata
// (internal/platform/youtube/youtube.go), which shells a tool, captures its
// stdout, and json.Unmarshal's the result into a typed struct.
package mediainfo

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"silence-excise/internal/transcoder"
)

// Resolution is the width/height of a video stream.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// VideoInfo is the probed description of a source media file (spec §3).
type VideoInfo struct {
	Path        string      `json:"path"`
	Filename    string      `json:"filename"`
	SizeBytes   int64       `json:"size_bytes"`
	DurationSec float64     `json:"duration_sec"`
	Container   string      `json:"container_name,omitempty"`
	VideoCodec  string      `json:"video_codec,omitempty"`
	AudioCodec  string      `json:"audio_codec,omitempty"`
	Resolution  *Resolution `json:"resolution,omitempty"`
	Framerate   float64     `json:"framerate,omitempty"`
	Bitrate     int64       `json:"bitrate,omitempty"`
	HasVideo    bool        `json:"has_video"`
	HasAudio    bool        `json:"has_audio"`
}

// probeFormat and probeStream mirror the subset of ffprobe's JSON schema
// this package consumes.
type probeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
	Size       string `json:"size"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Duration     string `json:"duration"`
	AvgFrameRate string `json:"avg_frame_rate"`
	BitRate      string `json:"bit_rate"`
}

type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

// MalformedError is returned when the probe tool's stdout cannot be parsed
// as the expected JSON shape.
type MalformedError struct {
	Err error
}

func (e *MalformedError) Error() string { return fmt.Sprintf("malformed probe output: %v", e.Err) }
func (e *MalformedError) Unwrap() error { return e.Err }

// Prober runs the probe tool and parses its output into a VideoInfo.
type Prober struct {
	Driver *transcoder.Driver
}

// NewProber returns a Prober backed by d.
func NewProber(d *transcoder.Driver) *Prober {
	return &Prober{Driver: d}
}

// Probe invokes the probe tool with
// "-v quiet -print_format json -show_format -show_streams <path>" and
// resolves the result into a VideoInfo. filename and sizeBytes are supplied
// by the caller (filesystem concerns, not the probe tool's business).
func (p *Prober) Probe(ctx context.Context, path, filename string, sizeBytes int64) (VideoInfo, error) {
	args := []string{"-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", path}
	out, err := p.Driver.RunProbe(ctx, args)
	if err != nil {
		return VideoInfo{}, err
	}

	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return VideoInfo{}, &MalformedError{Err: err}
	}

	info := VideoInfo{
		Path:      path,
		Filename:  filename,
		SizeBytes: sizeBytes,
		Container: parsed.Format.FormatName,
	}

	info.DurationSec = resolveDuration(parsed)
	info.Bitrate = parseInt64(parsed.Format.BitRate)

	for _, s := range parsed.Streams {
		switch s.CodecType {
		case "video":
			info.HasVideo = true
			if info.VideoCodec == "" {
				info.VideoCodec = s.CodecName
			}
			if info.Resolution == nil && (s.Width > 0 || s.Height > 0) {
				info.Resolution = &Resolution{Width: s.Width, Height: s.Height}
			}
			if info.Framerate == 0 {
				info.Framerate = parseFrameRate(s.AvgFrameRate)
			}
		case "audio":
			info.HasAudio = true
			if info.AudioCodec == "" {
				info.AudioCodec = s.CodecName
			}
		}
	}

	return info, nil
}

// resolveDuration follows the spec's order: format.duration, else the
// first stream's duration, else 0.
func resolveDuration(p probeOutput) float64 {
	if d, err := strconv.ParseFloat(p.Format.Duration, 64); err == nil {
		return d
	}
	for _, s := range p.Streams {
		if d, err := strconv.ParseFloat(s.Duration, 64); err == nil {
			return d
		}
	}
	return 0
}

// parseFrameRate parses a "num/den" string, treating a zero denominator (or
// a malformed string) as unknown (0).
func parseFrameRate(raw string) float64 {
	parts := strings.SplitN(raw, "/", 2)
	if len(parts) != 2 {
		return 0
	}
	num, errN := strconv.ParseFloat(parts[0], 64)
	den, errD := strconv.ParseFloat(parts[1], 64)
	if errN != nil || errD != nil || den == 0 {
		return 0
	}
	return num / den
}

func parseInt64(raw string) int64 {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
