package excise

// speechTolerance absorbs sub-window slices at silence boundaries with a
// ±10ms tolerance.
const speechTolerance = 0.01

// PlanSpeechSegments derives the ordered list of kept (speech) segments from
// the detected silences and the total source duration.
func PlanSpeechSegments(silences []Interval, totalDuration float64) []SpeechSegment {
	var out []SpeechSegment
	lastEnd := 0.0

	for _, s := range silences {
		if s.Start > lastEnd+speechTolerance {
			out = append(out, SpeechSegment{Start: lastEnd, End: s.Start})
		}
		lastEnd = s.End
	}

	if lastEnd < totalDuration-speechTolerance {
		out = append(out, SpeechSegment{Start: lastEnd, End: totalDuration})
	}

	return out
}

// Interval is the minimal silence shape the planner needs: a start/end pair,
// sorted by Start by the caller (the detector already guarantees this).
type Interval struct {
	Start float64
	End   float64
}

// Plan partitions speech segments into batches of at most maxBatchSize,
// recording each batch's seek_start.
func Plan(segments []SpeechSegment) BatchPlan {
	var plan BatchPlan
	for i := 0; i < len(segments); i += maxBatchSize {
		end := i + maxBatchSize
		if end > len(segments) {
			end = len(segments)
		}
		chunk := segments[i:end]
		plan.Batches = append(plan.Batches, Batch{
			Segments:  chunk,
			SeekStart: chunk[0].Start,
		})
	}
	return plan
}
