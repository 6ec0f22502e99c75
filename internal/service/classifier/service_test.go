package classifier

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"

	"github.com/chaitanyak175/attack-capital/internal/adapter/audio"
	"github.com/chaitanyak175/attack-capital/internal/adapter/model"
	"github.com/chaitanyak175/attack-capital/internal/domain"
	"github.com/chaitanyak175/attack-capital/internal/ports"
)

// stubModel returns fixed logits without touching a real runtime.
type stubModel struct {
	logits []float32
	err    error
}

func (m *stubModel) Infer(ctx context.Context, input []float32) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]float32, len(m.logits))
	copy(out, m.logits)
	return out, nil
}

func (m *stubModel) Metadata() domain.ModelMetadata {
	return domain.ModelMetadata{
		ModelName:          "test/amd-checkpoint",
		ExpectedSampleRate: domain.TargetSampleRate,
		NumLabels:          2,
		Labels:             []string{"voicemail/machine", "human"},
		Device:             "cpu",
	}
}

// captureExtractor records the waveform handed to it and passes it through.
type captureExtractor struct {
	lastWaveform []float32
}

func (e *captureExtractor) Extract(waveform []float32, sampleRate int) ([]float32, error) {
	e.lastWaveform = append([]float32(nil), waveform...)
	return e.lastWaveform, nil
}

func newTestService(t *testing.T, m ports.Model, cfg Config) (*Service, *captureExtractor) {
	t.Helper()
	ext := &captureExtractor{}
	svc := NewService(audio.NewDecoder(domain.TargetSampleRate), ext, m, cfg, zap.NewNop())
	return svc, ext
}

func TestService_NormalizeLength_PadsShortWaveform(t *testing.T) {
	svc, _ := newTestService(t, &stubModel{logits: []float32{0, 0}}, Config{MinDurationS: 2, MaxDurationS: 5})

	original := []float32{0.5, -0.25, 0.125}
	out := svc.normalizeLength(append([]float32(nil), original...))

	want := 2 * domain.TargetSampleRate
	if len(out) != want {
		t.Fatalf("Expected padded length %d, got %d", want, len(out))
	}
	for i, s := range original {
		if out[i] != s {
			t.Errorf("Sample %d changed: got %f, want %f", i, out[i], s)
		}
	}
	for i := len(original); i < len(out); i++ {
		if out[i] != 0 {
			t.Fatalf("Padding sample %d is %f, want 0", i, out[i])
		}
	}
}

func TestService_NormalizeLength_TruncatesLongWaveform(t *testing.T) {
	svc, _ := newTestService(t, &stubModel{logits: []float32{0, 0}}, Config{MinDurationS: 1, MaxDurationS: 5})

	n := 7 * domain.TargetSampleRate
	long := make([]float32, n)
	for i := range long {
		long[i] = float32(i%100) / 100
	}

	out := svc.normalizeLength(long)

	want := 5 * domain.TargetSampleRate
	if len(out) != want {
		t.Fatalf("Expected truncated length %d, got %d", want, len(out))
	}
	for i := range out {
		if out[i] != long[i] {
			t.Fatalf("Truncated sample %d differs from prefix", i)
		}
	}
}

func TestService_NormalizeLength_InRangeUnchanged(t *testing.T) {
	svc, _ := newTestService(t, &stubModel{logits: []float32{0, 0}}, Config{MinDurationS: 1, MaxDurationS: 30})

	wave := make([]float32, 3*domain.TargetSampleRate)
	out := svc.normalizeLength(wave)
	if len(out) != len(wave) {
		t.Errorf("In-range waveform resized: got %d, want %d", len(out), len(wave))
	}
}

func TestSoftmax_SumsToOne(t *testing.T) {
	tests := [][]float32{
		{0, 0},
		{2.0, -1.0},
		{-50, 50},
		{1000, 999},
		{-3.5, -3.5},
	}

	for _, logits := range tests {
		dist := Softmax(logits)
		if dist[0] < 0 || dist[1] < 0 {
			t.Errorf("Softmax(%v) has negative probability: %v", logits, dist)
		}
		sum := dist[0] + dist[1]
		if math.Abs(sum-1.0) > 1e-5 {
			t.Errorf("Softmax(%v) sums to %f, want 1.0", logits, sum)
		}
	}
}

func TestSoftmax_TieResolvesToVoicemail(t *testing.T) {
	dist := Softmax([]float32{1.5, 1.5})
	if dist.Predicted() != domain.ClassVoicemail {
		t.Errorf("Tie resolved to class %d, want %d", dist.Predicted(), domain.ClassVoicemail)
	}
	if dist.Label() != domain.LabelVoicemail {
		t.Errorf("Tie labeled %q, want %q", dist.Label(), domain.LabelVoicemail)
	}
}

func TestSoftmax_HumanIffHigherProbability(t *testing.T) {
	human := Softmax([]float32{-1.0, 2.0})
	if human.Label() != domain.LabelHuman {
		t.Errorf("Expected human label, got %q", human.Label())
	}

	voicemail := Softmax([]float32{2.0, -1.0})
	if voicemail.Label() != domain.LabelVoicemail {
		t.Errorf("Expected voicemail label, got %q", voicemail.Label())
	}
}

func TestService_ClassifyBeforeModelLoad(t *testing.T) {
	svc := NewService(audio.NewDecoder(domain.TargetSampleRate), nil, nil, Config{}, zap.NewNop())

	pred, err := svc.Classify(context.Background(), make([]byte, 32000), ports.DecodeRawPCM)
	if !errors.Is(err, domain.ErrModelNotLoaded) {
		t.Fatalf("Expected ErrModelNotLoaded, got %v", err)
	}
	if pred != nil {
		t.Errorf("Expected no partial result, got %+v", pred)
	}
}

func TestService_MalformedContainerPayload(t *testing.T) {
	svc, _ := newTestService(t, &stubModel{logits: []float32{0, 0}}, Config{})

	_, err := svc.Classify(context.Background(), []byte("this is not audio at all"), ports.DecodeContainer)
	var decodeErr *domain.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Expected *domain.DecodeError, got %T: %v", err, err)
	}
}

func TestService_RawPCMZeroBuffer(t *testing.T) {
	svc, ext := newTestService(t, &stubModel{logits: []float32{1, 0}}, Config{MinDurationS: 1, MaxDurationS: 30})

	// 16000 zero-valued int16 samples at 16 kHz: exactly one second, so no
	// padding applies.
	raw := make([]byte, 16000*2)
	pred, err := svc.Classify(context.Background(), raw, ports.DecodeRawPCM)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if len(ext.lastWaveform) != 16000 {
		t.Fatalf("Expected 16000-sample waveform, got %d", len(ext.lastWaveform))
	}
	for i, s := range ext.lastWaveform {
		if s != 0 {
			t.Fatalf("Sample %d is %f, want 0", i, s)
		}
	}
	if pred.AudioDuration != 1.0 {
		t.Errorf("Expected 1.0s audio duration, got %f", pred.AudioDuration)
	}
}

func TestService_InferenceFailure(t *testing.T) {
	svc, _ := newTestService(t, &stubModel{err: errors.New("runtime exploded")}, Config{})

	_, err := svc.Classify(context.Background(), make([]byte, 32000), ports.DecodeRawPCM)
	var inferErr *domain.InferenceError
	if !errors.As(err, &inferErr) {
		t.Fatalf("Expected *domain.InferenceError, got %T: %v", err, err)
	}
}

// writeSineWAV writes a mono 16-bit PCM WAV with a 440 Hz sine and returns
// its bytes.
func writeSineWAV(t *testing.T, sampleRate int, seconds float64) []byte {
	t.Helper()

	n := int(float64(sampleRate) * seconds)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, n),
	}
	for i := 0; i < n; i++ {
		buf.Data[i] = int(0.5 * 32767 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	}

	path := filepath.Join(t.TempDir(), "sine.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create temp WAV: %v", err)
	}
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	if err := enc.Write(buf); err != nil {
		t.Fatalf("Failed to write WAV samples: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to close WAV encoder: %v", err)
	}
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read back WAV: %v", err)
	}
	return data
}

func TestService_EndToEnd_SineWAV(t *testing.T) {
	ext := model.NewExtractor(model.DefaultExtractorConfig())
	stub := &stubModel{logits: []float32{2.0, -1.0}}
	svc := NewService(audio.NewDecoder(domain.TargetSampleRate), ext, stub, Config{MinDurationS: 1, MaxDurationS: 30}, zap.NewNop())

	payload := writeSineWAV(t, domain.TargetSampleRate, 2.0)

	pred, err := svc.Classify(context.Background(), payload, ports.DecodeContainer)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if pred.Label != domain.LabelVoicemail {
		t.Errorf("Expected voicemail label, got %q", pred.Label)
	}

	// softmax of [2.0, -1.0] for class 0
	wantConfidence := 1.0 / (1.0 + math.Exp(-3.0))
	if math.Abs(pred.Confidence-wantConfidence) > 1e-6 {
		t.Errorf("Confidence %f, want %f", pred.Confidence, wantConfidence)
	}
	if pred.Confidence != pred.Probabilities.Voicemail {
		t.Errorf("Confidence %f does not match voicemail probability %f", pred.Confidence, pred.Probabilities.Voicemail)
	}

	sum := pred.Probabilities.Voicemail + pred.Probabilities.Human
	if math.Abs(sum-1.0) > 1e-5 {
		t.Errorf("Probabilities sum to %f, want 1.0", sum)
	}

	if math.Abs(pred.AudioDuration-2.0) > 1e-9 {
		t.Errorf("Audio duration %f, want 2.0", pred.AudioDuration)
	}
	if pred.SampleRate != domain.TargetSampleRate {
		t.Errorf("Sample rate %d, want %d", pred.SampleRate, domain.TargetSampleRate)
	}
	if pred.ModelInfo.ModelName != "test/amd-checkpoint" {
		t.Errorf("Unexpected model info: %+v", pred.ModelInfo)
	}
}
