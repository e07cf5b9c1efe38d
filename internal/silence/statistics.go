package silence

import "math"

// Statistics summarizes a PCM buffer the way a waveform inspector panel
// would: peak/RMS levels in dB, dynamic range, and an estimated silence
// ratio using a fixed -40 dB housekeeping threshold independent of the
// caller's own detection threshold.
type Statistics struct {
	SampleCount     int
	DurationSec     float64
	MinValue        float32
	MaxValue        float32
	RMSDb           float64
	PeakDb          float64
	DynamicRangeDb  float64
	SilenceRatio    float64
	DetectedSilence int
}

// statsSilenceThresholdDB is the fixed housekeeping threshold Statistics
// uses to estimate a buffer's silence ratio, independent of whatever
// threshold a caller passes to Detect.
const statsSilenceThresholdDB = -40.0

// ComputeStatistics summarizes samples at the given sample rate. An empty
// buffer reports zeroed fields with RMSDb/PeakDb floored to minDB.
func ComputeStatistics(samples []float32, sampleRate int) Statistics {
	if len(samples) == 0 {
		return Statistics{RMSDb: minDB, PeakDb: minDB}
	}

	minV, maxV := samples[0], samples[0]
	for _, s := range samples[1:] {
		if s < minV {
			minV = s
		}
		if s > maxV {
			maxV = s
		}
	}

	rms := windowRMS(samples)
	rmsDb := linearToDB(rms)

	peak := math.Max(math.Abs(float64(minV)), math.Abs(float64(maxV)))
	peakDb := linearToDB(peak)

	window := int(math.Floor(float64(sampleRate) * windowSeconds))
	if window < 1 {
		window = 1
	}
	threshold := math.Pow(10, statsSilenceThresholdDB/20)

	totalWindows := 0
	silentWindows := 0
	for start := 0; start < len(samples); start += window {
		end := start + window
		if end > len(samples) {
			end = len(samples)
		}
		totalWindows++
		if windowRMS(samples[start:end]) < threshold {
			silentWindows++
		}
	}
	silenceRatio := 0.0
	if totalWindows > 0 {
		silenceRatio = float64(silentWindows) / float64(totalWindows)
	}

	return Statistics{
		SampleCount:    len(samples),
		DurationSec:    float64(len(samples)) / float64(sampleRate),
		MinValue:       minV,
		MaxValue:       maxV,
		RMSDb:          rmsDb,
		PeakDb:         peakDb,
		DynamicRangeDb: peakDb - rmsDb,
		SilenceRatio:   silenceRatio,
	}
}

// linearToDB converts a linear amplitude to dB, clamping to minDB the way
// the detector's average_db computation does.
func linearToDB(linear float64) float64 {
	if linear <= 0 {
		return minDB
	}
	return 20 * math.Log10(linear)
}
