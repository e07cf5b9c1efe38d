package extract

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

type fakeSink struct {
	steps []WaveformStep
	done  *WaveformDone
}

func (f *fakeSink) OnWaveformStep(s WaveformStep) { f.steps = append(f.steps, s) }
func (f *fakeSink) OnWaveformDone(d WaveformDone)  { d2 := d; f.done = &d2 }

func pcmOf(values ...int16) []byte {
	buf := new(bytes.Buffer)
	for _, v := range values {
		binary.Write(buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

func TestDecodeStream_NormalizesSamples(t *testing.T) {
	data := pcmOf(32767, -32768, 0)
	sink := &fakeSink{}
	samples, err := decodeStream(bytes.NewReader(data), 16000, 0, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	if samples[1] != -1.0 {
		t.Errorf("expected min sample to normalize to -1.0, got %v", samples[1])
	}
	if samples[2] != 0 {
		t.Errorf("expected zero sample, got %v", samples[2])
	}
}

func TestDecodeStream_HandlesOddByteCarry(t *testing.T) {
	// A reader that yields 1 byte, then 3 bytes (so a carry byte crosses
	// the read boundary), exercising the odd-length-read carry path.
	full := pcmOf(100, 200)
	r := &chunkedReader{chunks: [][]byte{full[:1], full[1:]}}
	sink := &fakeSink{}
	samples, err := decodeStream(r, 16000, 0, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples decoded across the carry boundary, got %d", len(samples))
	}
}

func TestDecodeStream_FlushesBatchEveryTenPeaks(t *testing.T) {
	sampleRate := 100 // peakWindow = max(1, 100/50) = 2 samples/window
	// 40 samples -> 20 windows -> 2 batches of 10 peaks each.
	values := make([]int16, 40)
	for i := range values {
		values[i] = int16(i * 100)
	}
	sink := &fakeSink{}
	_, err := decodeStream(bytes.NewReader(pcmOf(values...)), sampleRate, 0, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.steps) != 2 {
		t.Fatalf("expected 2 flushed batches, got %d", len(sink.steps))
	}
	for _, step := range sink.steps {
		if len(step.Peaks) != peaksPerBatch {
			t.Errorf("expected %d peaks per batch, got %d", peaksPerBatch, len(step.Peaks))
		}
	}
}

func TestDecodeStream_TrailingPartialWindowStillEmitted(t *testing.T) {
	sampleRate := 100 // window = 2 samples
	// 3 samples -> window 1 full (2 samples), window 2 partial (1 sample).
	sink := &fakeSink{}
	_, err := decodeStream(bytes.NewReader(pcmOf(10, 20, 30)), sampleRate, 0, sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.steps) != 1 {
		t.Fatalf("expected 1 flushed batch containing both windows, got %d", len(sink.steps))
	}
	if len(sink.steps[0].Peaks) != 2 {
		t.Errorf("expected 2 peaks (one full window, one trailing partial), got %d", len(sink.steps[0].Peaks))
	}
}

func TestDecodeStream_ReadErrorReturnsPartialSamples(t *testing.T) {
	sink := &fakeSink{}
	r := &errReader{data: pcmOf(1, 2, 3), failAfter: 4}
	samples, err := decodeStream(r, 16000, 0, sink)
	if err == nil {
		t.Fatal("expected a read error")
	}
	if len(samples) == 0 {
		t.Error("expected partially decoded samples despite the error")
	}
}

// chunkedReader returns each chunk on successive Read calls.
type chunkedReader struct {
	chunks [][]byte
	idx    int
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if c.idx >= len(c.chunks) {
		return 0, io.EOF
	}
	n := copy(p, c.chunks[c.idx])
	c.idx++
	return n, nil
}

// errReader returns an injected error after a fixed number of bytes.
type errReader struct {
	data      []byte
	failAfter int
	pos       int
}

func (r *errReader) Read(p []byte) (int, error) {
	if r.pos >= r.failAfter || r.pos >= len(r.data) {
		return 0, io.ErrUnexpectedEOF
	}
	remaining := r.data[r.pos:]
	if limit := r.failAfter - r.pos; limit < len(remaining) {
		remaining = remaining[:limit]
	}
	n := copy(p, remaining)
	r.pos += n
	return n, nil
}
