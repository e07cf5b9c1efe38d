// Package silence implements the sliding-window RMS silence detector (spec
// C5). The windowed-RMS-over-raw-PCM computation has no third-party
// counterpart anywhere in the retrieval pack (the pack's audio libraries are
// format codecs, not DSP classifiers), so this stays on the standard
// library's math package; see DESIGN.md.
package silence

import (
	"fmt"
	"math"
	"sort"

	"silence-excise/internal/samplecache"
)

// Segment is a detected silence interval (spec SilenceSegment).
type Segment struct {
	StartTime float64
	EndTime   float64
	Duration  float64
	AverageDB float64
}

// InvalidArgumentError is returned for caller-side contract violations.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string { return fmt.Sprintf("invalid argument: %s", e.Reason) }

// SampleRateTooLowError is returned when sample_rate*0.02 rounds to zero,
// i.e. the analysis window would be empty.
type SampleRateTooLowError struct {
	SampleRate int
}

func (e *SampleRateTooLowError) Error() string {
	return fmt.Sprintf("sample rate %d too low: window size rounds to zero", e.SampleRate)
}

// NoSamplesError is returned when the detector is asked to run without a
// cached buffer and no fallback was supplied.
type NoSamplesError struct {
	Key string
}

func (e *NoSamplesError) Error() string { return fmt.Sprintf("no cached samples for %q and no fallback supplied", e.Key) }

const (
	windowSeconds   = 0.02
	mergeGapSeconds = 0.100
	minDB           = -100.0
)

// Params bundles the detector's tunables.
type Params struct {
	SampleRate            int
	ThresholdDB           float64
	MinSilenceDurationSec float64
}

// Detect resolves samples from cache (falling back to fallbackSamples on a
// miss), validates params, and runs the detection algorithm.
func Detect(cache *samplecache.Cache, key string, fallbackSamples []float32, p Params) ([]Segment, error) {
	var samples []float32
	if buf, ok := cache.Get(key); ok {
		samples = buf.Samples
	} else if fallbackSamples != nil {
		samples = fallbackSamples
	} else {
		return nil, &NoSamplesError{Key: key}
	}
	return DetectSamples(samples, p)
}

// DetectSamples runs the windowed-RMS classifier directly over samples,
// without consulting the cache. This is the core algorithm; Detect is a
// thin cache-resolution wrapper around it.
func DetectSamples(samples []float32, p Params) ([]Segment, error) {
	if p.MinSilenceDurationSec <= 0 {
		return nil, &InvalidArgumentError{Reason: "min_silence_duration must be > 0"}
	}
	window := int(math.Floor(float64(p.SampleRate) * windowSeconds))
	if window < 1 {
		return nil, &SampleRateTooLowError{SampleRate: p.SampleRate}
	}
	if len(samples) == 0 {
		return nil, nil
	}

	minSilenceSamples := int(math.Floor(p.MinSilenceDurationSec * float64(p.SampleRate)))
	thresholdLinear := math.Pow(10, p.ThresholdDB/20)

	var segments []Segment
	inRun := false
	var runStartSample int
	var sumEnergy float64
	var countWindows int

	emit := func(endSample int) {
		if endSample-runStartSample < minSilenceSamples {
			return
		}
		avgDB := minDB
		if sumEnergy > 0 {
			avgDB = 20 * math.Log10(sumEnergy/float64(countWindows))
		}
		start := float64(runStartSample) / float64(p.SampleRate)
		end := float64(endSample) / float64(p.SampleRate)
		segments = append(segments, Segment{
			StartTime: start,
			EndTime:   end,
			Duration:  end - start,
			AverageDB: avgDB,
		})
	}

	for start := 0; start < len(samples); start += window {
		end := start + window
		if end > len(samples) {
			end = len(samples)
		}

		rms := windowRMS(samples[start:end])
		silent := rms < thresholdLinear

		if silent {
			if !inRun {
				inRun = true
				runStartSample = start
				sumEnergy = 0
				countWindows = 0
			}
			sumEnergy += rms
			countWindows++
		} else if inRun {
			emit(start)
			inRun = false
		}
	}

	if inRun {
		emit(len(samples))
	}

	return mergeAdjacent(segments), nil
}

// windowRMS computes sqrt(mean(x^2)) over the window.
func windowRMS(window []float32) float64 {
	if len(window) == 0 {
		return 0
	}
	var sumSq float64
	for _, x := range window {
		xf := float64(x)
		sumSq += xf * xf
	}
	return math.Sqrt(sumSq / float64(len(window)))
}

// mergeAdjacent sorts segments by start time and folds any pair whose gap is
// <= mergeGapSeconds into one, recomputing average_db as the
// duration-weighted mean of the two source dBs.
func mergeAdjacent(segments []Segment) []Segment {
	if len(segments) < 2 {
		return segments
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].StartTime < segments[j].StartTime })

	merged := []Segment{segments[0]}
	for _, next := range segments[1:] {
		last := &merged[len(merged)-1]
		if next.StartTime-last.EndTime <= mergeGapSeconds {
			totalDur := last.Duration + next.Duration
			var weightedDB float64
			if totalDur > 0 {
				weightedDB = (last.AverageDB*last.Duration + next.AverageDB*next.Duration) / totalDur
			} else {
				weightedDB = last.AverageDB
			}
			last.EndTime = next.EndTime
			last.Duration = last.EndTime - last.StartTime
			last.AverageDB = weightedDB
		} else {
			merged = append(merged, next)
		}
	}
	return merged
}
