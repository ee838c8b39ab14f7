package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/voxlab/subvox/internal/subtitle"
	"github.com/voxlab/subvox/tts"
	"github.com/voxlab/subvox/tts/engines/mock"
)

// fakeStretcher resizes PCM by the ratio, mimicking what atempo does to
// duration without invoking ffmpeg.
type fakeStretcher struct {
	calls []float64
}

func (f *fakeStretcher) Stretch(_ context.Context, data []byte, ratio float64) ([]byte, error) {
	if len(data) == 0 {
		return nil, tts.ErrEmptyAudio
	}
	f.calls = append(f.calls, ratio)
	n := int(float64(len(data)) / ratio)
	n -= n % 2
	return make([]byte, n), nil
}

// fakeEncoder records the track instead of writing a file.
type fakeEncoder struct {
	track   []byte
	path    string
	calls   int
	failErr error
}

func (f *fakeEncoder) Encode(_ context.Context, data []byte, outPath string) error {
	f.calls++
	if f.failErr != nil {
		return f.failErr
	}
	f.track = data
	f.path = outPath
	return nil
}

func newTestConverter(t *testing.T, engine tts.Engine) (*Converter, *fakeStretcher, *fakeEncoder) {
	t.Helper()
	stretcher := &fakeStretcher{}
	encoder := &fakeEncoder{}
	conv := New(engine, stretcher, encoder, Options{SampleRate: 22050})
	return conv, stretcher, encoder
}

func newMockEngine(t *testing.T) *mock.Engine {
	t.Helper()
	engine := mock.New()
	if err := engine.Initialize(tts.EngineConfig{Voice: "test", SampleRate: 22050}); err != nil {
		t.Fatal(err)
	}
	return engine
}

const twoCueInput = `1
00:00:00,000 --> 00:00:02,000
alpha

2
00:00:05,000 --> 00:00:06,000
bravo
`

func TestClampRatio(t *testing.T) {
	tests := []struct {
		ratio    float64
		expected float64
	}{
		{10.0, 2.0},
		{0.1, 0.5},
		{1.0, 1.0},
		{1.5, 1.5},
		{0.5, 0.5},
		{2.0, 2.0},
	}
	for _, tt := range tests {
		if got := clampRatio(tt.ratio, 0.5, 2.0); got != tt.expected {
			t.Errorf("clampRatio(%v) = %v, want %v", tt.ratio, got, tt.expected)
		}
	}
}

func TestReconcileClampsAtBounds(t *testing.T) {
	engine := newMockEngine(t)
	conv, stretcher, _ := newTestConverter(t, engine)

	// raw 10s against target 1s: natural ratio 10, clamped to 2.0.
	rendered := &tts.Audio{
		Data:       make([]byte, 10*22050*2),
		SampleRate: 22050,
		Channels:   1,
		Duration:   10 * time.Second,
	}
	_, ratio, err := conv.reconcile(context.Background(), rendered, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if ratio != 2.0 {
		t.Errorf("ratio = %v, want 2.0", ratio)
	}

	// raw 1s against target 10s: natural ratio 0.1, clamped to 0.5.
	rendered = &tts.Audio{
		Data:       make([]byte, 22050*2),
		SampleRate: 22050,
		Channels:   1,
		Duration:   time.Second,
	}
	_, ratio, err = conv.reconcile(context.Background(), rendered, 10*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if ratio != 0.5 {
		t.Errorf("ratio = %v, want 0.5", ratio)
	}

	if len(stretcher.calls) != 2 {
		t.Errorf("stretcher invoked %d times, want 2", len(stretcher.calls))
	}
}

func TestReconcileSkipsUnityRatio(t *testing.T) {
	engine := newMockEngine(t)
	conv, stretcher, _ := newTestConverter(t, engine)

	rendered := &tts.Audio{
		Data:       make([]byte, 2*22050*2),
		SampleRate: 22050,
		Channels:   1,
		Duration:   2 * time.Second,
	}
	data, ratio, err := conv.reconcile(context.Background(), rendered, 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if ratio != 1.0 {
		t.Errorf("ratio = %v, want 1.0", ratio)
	}
	if len(data) != len(rendered.Data) {
		t.Error("unity ratio should pass audio through untouched")
	}
	if len(stretcher.calls) != 0 {
		t.Error("stretcher should not run for unity ratio")
	}
}

func TestReconcileEmptyAudio(t *testing.T) {
	engine := newMockEngine(t)
	conv, _, _ := newTestConverter(t, engine)

	_, _, err := conv.reconcile(context.Background(), &tts.Audio{}, time.Second)
	if !errors.Is(err, tts.ErrEmptyAudio) {
		t.Errorf("expected ErrEmptyAudio, got %v", err)
	}
}

func TestAssembleOrdering(t *testing.T) {
	engine := newMockEngine(t)
	// Render each cue at exactly its target duration so no stretching
	// muddies the segment math.
	engine.Durations["alpha"] = 2 * time.Second
	engine.Durations["bravo"] = time.Second

	conv, _, encoder := newTestConverter(t, engine)
	report, err := conv.Convert(context.Background(), strings.NewReader(twoCueInput), "out.mp3")
	if err != nil {
		t.Fatal(err)
	}

	// Expected sequence: Speech(2s), Silence(3s), Speech(1s) = 6s track.
	if report.OutputDuration != 6*time.Second {
		t.Errorf("output duration = %v, want 6s", report.OutputDuration)
	}
	if report.SourceDuration != 6*time.Second {
		t.Errorf("source duration = %v, want 6s", report.SourceDuration)
	}
	if report.CuesVoiced != 2 || report.CuesSkipped != 0 {
		t.Errorf("voiced/skipped = %d/%d", report.CuesVoiced, report.CuesSkipped)
	}
	if len(encoder.track) != 6*22050*2 {
		t.Errorf("track length = %d bytes, want %d", len(encoder.track), 6*22050*2)
	}
}

func TestAssembleSegmentSequence(t *testing.T) {
	engine := newMockEngine(t)
	engine.Durations["alpha"] = 2 * time.Second
	engine.Durations["bravo"] = time.Second
	conv, _, _ := newTestConverter(t, engine)

	cues := parseAndNormalize(t, conv, twoCueInput)
	results := conv.synthesizeAll(context.Background(), cues)
	segments := conv.assemble(cues, results)

	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	if segments[0].Kind != SpeechSegment || segments[0].TargetDuration != 2*time.Second {
		t.Errorf("segment 0 = %+v", segments[0])
	}
	if segments[1].Kind != SilenceSegment || segments[1].Duration != 3*time.Second {
		t.Errorf("segment 1 = %+v", segments[1])
	}
	if segments[2].Kind != SpeechSegment || segments[2].TargetDuration != time.Second {
		t.Errorf("segment 2 = %+v", segments[2])
	}
}

func TestAssembleAbsorbsSubEpsilonGap(t *testing.T) {
	input := `1
00:00:00,000 --> 00:00:02,000
alpha

2
00:00:02,050 --> 00:00:03,000
bravo
`
	engine := newMockEngine(t)
	engine.Durations["alpha"] = 2 * time.Second
	engine.Durations["bravo"] = 950 * time.Millisecond
	conv, _, _ := newTestConverter(t, engine)

	cues := parseAndNormalize(t, conv, input)
	results := conv.synthesizeAll(context.Background(), cues)
	segments := conv.assemble(cues, results)

	for _, seg := range segments {
		if seg.Kind == SilenceSegment {
			t.Fatalf("0.05s gap should be absorbed, got silence of %v", seg.Duration)
		}
	}
	if len(segments) != 2 {
		t.Errorf("expected 2 speech segments, got %d", len(segments))
	}
}

func TestConvertSurvivesFailedCue(t *testing.T) {
	engine := newMockEngine(t)
	engine.Durations["bravo"] = time.Second
	engine.FailOn["alpha"] = true

	conv, _, encoder := newTestConverter(t, engine)
	report, err := conv.Convert(context.Background(), strings.NewReader(twoCueInput), "out.mp3")
	if err != nil {
		t.Fatalf("one good cue should yield file success, got %v", err)
	}
	if report.CuesVoiced != 1 || report.CuesSkipped != 1 {
		t.Errorf("voiced/skipped = %d/%d, want 1/1", report.CuesVoiced, report.CuesSkipped)
	}
	if encoder.calls != 1 {
		t.Errorf("encoder called %d times, want 1", encoder.calls)
	}

	// The failed first cue leaves the cursor at 0; bravo starts at 5s, so
	// its leading silence covers the whole span.
	if report.OutputDuration != 6*time.Second {
		t.Errorf("output duration = %v, want 6s", report.OutputDuration)
	}
}

func TestConvertFailedCueLeavesCursor(t *testing.T) {
	engine := newMockEngine(t)
	engine.Durations["alpha"] = 2 * time.Second
	engine.FailOn["bravo"] = true
	conv, _, _ := newTestConverter(t, engine)

	cues := parseAndNormalize(t, conv, twoCueInput)
	results := conv.synthesizeAll(context.Background(), cues)
	segments := conv.assemble(cues, results)

	// Only alpha's speech: the failed trailing cue emits neither speech
	// nor silence.
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if segments[0].Kind != SpeechSegment || segments[0].CueIndex != 1 {
		t.Errorf("segment = %+v", segments[0])
	}
}

func TestConvertNoCues(t *testing.T) {
	engine := newMockEngine(t)
	conv, _, encoder := newTestConverter(t, engine)

	_, err := conv.Convert(context.Background(), strings.NewReader("not a subtitle file\n"), "out.mp3")
	if !errors.Is(err, tts.ErrNoCues) {
		t.Errorf("expected ErrNoCues, got %v", err)
	}
	if encoder.calls != 0 {
		t.Error("no artifact may be produced when nothing parses")
	}
}

func TestConvertAllCuesFail(t *testing.T) {
	engine := newMockEngine(t)
	engine.FailOn["alpha"] = true
	engine.FailOn["bravo"] = true

	conv, _, encoder := newTestConverter(t, engine)
	_, err := conv.Convert(context.Background(), strings.NewReader(twoCueInput), "out.mp3")
	if !errors.Is(err, tts.ErrNoSegments) {
		t.Errorf("expected ErrNoSegments, got %v", err)
	}
	if encoder.calls != 0 {
		t.Error("no artifact may be produced when every cue fails")
	}
}

func TestConvertEncodingFailure(t *testing.T) {
	engine := newMockEngine(t)
	engine.Durations["alpha"] = 2 * time.Second
	engine.Durations["bravo"] = time.Second

	stretcher := &fakeStretcher{}
	encoder := &fakeEncoder{failErr: tts.ErrEncodingFailed}
	conv := New(engine, stretcher, encoder, Options{SampleRate: 22050})

	_, err := conv.Convert(context.Background(), strings.NewReader(twoCueInput), "out.mp3")
	if !errors.Is(err, tts.ErrEncodingFailed) {
		t.Errorf("expected ErrEncodingFailed, got %v", err)
	}
}

func TestConvertParallelKeepsOrder(t *testing.T) {
	engine := newMockEngine(t)
	engine.Durations["alpha"] = 2 * time.Second
	engine.Durations["bravo"] = time.Second

	stretcher := &fakeStretcher{}
	encoder := &fakeEncoder{}
	conv := New(engine, stretcher, encoder, Options{SampleRate: 22050, Jobs: 4})

	report, err := conv.Convert(context.Background(), strings.NewReader(twoCueInput), "out.mp3")
	if err != nil {
		t.Fatal(err)
	}
	if report.OutputDuration != 6*time.Second {
		t.Errorf("output duration = %v, want 6s", report.OutputDuration)
	}
}

func TestConvertParallelRecordsEveryCue(t *testing.T) {
	const cueCount = 40

	var input strings.Builder
	for i := 0; i < cueCount; i++ {
		start := time.Duration(i) * 2 * time.Second
		end := start + time.Second
		fmt.Fprintf(&input, "%d\n%s --> %s\ncue number %d\n\n",
			i+1, subtitle.FormatTimestamp(start), subtitle.FormatTimestamp(end), i+1)
	}

	engine := newMockEngine(t)
	stretcher := &fakeStretcher{}
	encoder := &fakeEncoder{}
	conv := New(engine, stretcher, encoder, Options{SampleRate: 22050, Jobs: 8})

	report, err := conv.Convert(context.Background(), strings.NewReader(input.String()), "out.mp3")
	if err != nil {
		t.Fatal(err)
	}
	if report.CuesVoiced != cueCount {
		t.Errorf("cues voiced = %d, want %d", report.CuesVoiced, cueCount)
	}
	if len(engine.Calls) != cueCount {
		t.Errorf("recorded calls = %d, want %d", len(engine.Calls), cueCount)
	}
	seen := make(map[string]bool, len(engine.Calls))
	for _, call := range engine.Calls {
		seen[call] = true
	}
	if len(seen) != cueCount {
		t.Errorf("distinct recorded calls = %d, want %d", len(seen), cueCount)
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.SampleRate != 22050 || o.StretchMin != 0.5 || o.StretchMax != 2.0 {
		t.Errorf("defaults = %+v", o)
	}
	if o.GapEpsilon != 100*time.Millisecond || o.Jobs != 1 {
		t.Errorf("defaults = %+v", o)
	}
}

// parseAndNormalize mirrors the front half of Convert for tests exercising
// assemble directly.
func parseAndNormalize(t *testing.T, _ *Converter, input string) subtitle.List {
	t.Helper()
	return normalizedCues(strings.NewReader(input))
}
