package silence

import (
	"math"
	"testing"
)

func sine(durationSec float64, sampleRate int, freq float64, amplitude float32) []float32 {
	n := int(durationSec * float64(sampleRate))
	out := make([]float32, n)
	for i := range out {
		out[i] = amplitude * float32(math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

func zeros(durationSec float64, sampleRate int) []float32 {
	return make([]float32, int(durationSec*float64(sampleRate)))
}

func concat(parts ...[]float32) []float32 {
	var out []float32
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

const testRate = 16000

func TestDetectSamples_EmptyBufferYieldsNoSilences(t *testing.T) {
	segs, err := DetectSamples(nil, Params{SampleRate: testRate, ThresholdDB: -40, MinSilenceDurationSec: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 0 {
		t.Errorf("expected no segments, got %v", segs)
	}
}

func TestDetectSamples_InvalidMinSilenceDuration(t *testing.T) {
	_, err := DetectSamples(zeros(1, testRate), Params{SampleRate: testRate, ThresholdDB: -40, MinSilenceDurationSec: 0})
	if err == nil {
		t.Fatal("expected InvalidArgumentError")
	}
	if _, ok := err.(*InvalidArgumentError); !ok {
		t.Errorf("expected *InvalidArgumentError, got %T", err)
	}
}

func TestDetectSamples_SampleRateTooLow(t *testing.T) {
	_, err := DetectSamples(zeros(1, 10), Params{SampleRate: 10, ThresholdDB: -40, MinSilenceDurationSec: 0.5})
	if err == nil {
		t.Fatal("expected SampleRateTooLowError")
	}
	if _, ok := err.(*SampleRateTooLowError); !ok {
		t.Errorf("expected *SampleRateTooLowError, got %T", err)
	}
}

// S1: 3s zeros, threshold=-40dB, min=0.5s -> one segment {0.0, 3.0, avg~-100}
func TestDetectSamples_S1_AllSilent(t *testing.T) {
	samples := zeros(3.0, testRate)
	segs, err := DetectSamples(samples, Params{SampleRate: testRate, ThresholdDB: -40, MinSilenceDurationSec: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d: %v", len(segs), segs)
	}
	s := segs[0]
	if math.Abs(s.StartTime-0.0) > 0.01 || math.Abs(s.EndTime-3.0) > 0.01 {
		t.Errorf("expected segment spanning [0,3), got [%v,%v)", s.StartTime, s.EndTime)
	}
	if s.AverageDB > -90 {
		t.Errorf("expected average_db near -100, got %v", s.AverageDB)
	}
}

// S2: 1s sine, 1s zeros, 1s sine, threshold=-40, min=0.5 -> one segment {1.0,2.0}
func TestDetectSamples_S2_SineSilenceSine(t *testing.T) {
	samples := concat(sine(1, testRate, 440, 1.0), zeros(1, testRate), sine(1, testRate, 440, 1.0))
	segs, err := DetectSamples(samples, Params{SampleRate: testRate, ThresholdDB: -40, MinSilenceDurationSec: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d: %v", len(segs), segs)
	}
	s := segs[0]
	if math.Abs(s.StartTime-1.0) > 0.02 || math.Abs(s.EndTime-2.0) > 0.02 {
		t.Errorf("expected segment near [1,2), got [%v,%v)", s.StartTime, s.EndTime)
	}
}

// S3: 0.5s sine, 0.2s silence, 0.05s sine, 0.2s silence, 0.5s sine;
// threshold=-40, min=0.15 -> merge (gap 0.05 <= 0.1) into one {0.5, 0.95}
func TestDetectSamples_S3_MergeAcrossShortGap(t *testing.T) {
	samples := concat(
		sine(0.5, testRate, 440, 1.0),
		zeros(0.2, testRate),
		sine(0.05, testRate, 440, 1.0),
		zeros(0.2, testRate),
		sine(0.5, testRate, 440, 1.0),
	)
	segs, err := DetectSamples(samples, Params{SampleRate: testRate, ThresholdDB: -40, MinSilenceDurationSec: 0.15})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected 1 merged segment, got %d: %v", len(segs), segs)
	}
	s := segs[0]
	if math.Abs(s.StartTime-0.5) > 0.02 || math.Abs(s.EndTime-0.95) > 0.02 {
		t.Errorf("expected merged segment near [0.5,0.95), got [%v,%v)", s.StartTime, s.EndTime)
	}
}

func TestDetectSamples_NoSilences(t *testing.T) {
	samples := sine(2, testRate, 440, 1.0)
	segs, err := DetectSamples(samples, Params{SampleRate: testRate, ThresholdDB: -40, MinSilenceDurationSec: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 0 {
		t.Errorf("expected no segments in a pure-tone buffer, got %v", segs)
	}
}

func TestDetectSamples_ExactlyMinDurationEmitted(t *testing.T) {
	samples := concat(sine(0.5, testRate, 440, 1.0), zeros(0.5, testRate), sine(0.5, testRate, 440, 1.0))
	segs, err := DetectSamples(samples, Params{SampleRate: testRate, ThresholdDB: -40, MinSilenceDurationSec: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected a silence exactly equal to min_silence_duration to be emitted, got %d", len(segs))
	}
}

func TestDetectSamples_OneWindowShorterIsDropped(t *testing.T) {
	// One window short of the minimum (0.5s - 0.02s window) should not
	// produce a segment.
	shortSilence := 0.5 - windowSeconds
	samples := concat(sine(0.5, testRate, 440, 1.0), zeros(shortSilence, testRate), sine(0.5, testRate, 440, 1.0))
	segs, err := DetectSamples(samples, Params{SampleRate: testRate, ThresholdDB: -40, MinSilenceDurationSec: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 0 {
		t.Errorf("expected the under-length silence to be dropped, got %v", segs)
	}
}

func TestDetectSamples_SeparatedByExactly100msMerges(t *testing.T) {
	samples := concat(zeros(0.5, testRate), sine(mergeGapSeconds, testRate, 440, 1.0), zeros(0.5, testRate))
	segs, err := DetectSamples(samples, Params{SampleRate: testRate, ThresholdDB: -40, MinSilenceDurationSec: 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 1 {
		t.Errorf("expected segments separated by exactly 100ms to merge, got %d segments: %v", len(segs), segs)
	}
}

func TestDetectSamples_SeparatedByMoreThan100msDoesNotMerge(t *testing.T) {
	samples := concat(zeros(0.5, testRate), sine(0.15, testRate, 440, 1.0), zeros(0.5, testRate))
	segs, err := DetectSamples(samples, Params{SampleRate: testRate, ThresholdDB: -40, MinSilenceDurationSec: 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 2 {
		t.Errorf("expected two distinct segments when separated by >100ms, got %d: %v", len(segs), segs)
	}
}

func TestDetectSamples_Idempotent(t *testing.T) {
	samples := concat(sine(0.5, testRate, 440, 1.0), zeros(0.5, testRate), sine(0.5, testRate, 440, 1.0))
	params := Params{SampleRate: testRate, ThresholdDB: -40, MinSilenceDurationSec: 0.3}

	first, err := DetectSamples(samples, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := DetectSamples(samples, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("expected identical segment counts across runs, got %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("segment %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestDetectSamples_AverageDBNeverExceedsThreshold(t *testing.T) {
	samples := concat(sine(0.5, testRate, 440, 1.0), zeros(0.5, testRate), sine(0.5, testRate, 440, 1.0))
	threshold := -40.0
	segs, err := DetectSamples(samples, Params{SampleRate: testRate, ThresholdDB: threshold, MinSilenceDurationSec: 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range segs {
		// one window of rounding tolerance
		if s.AverageDB > threshold+1.0 {
			t.Errorf("segment average_db %v exceeds threshold %v beyond rounding tolerance", s.AverageDB, threshold)
		}
	}
}
