// Package classifier implements the preprocessing-and-inference pipeline:
// raw payload bytes in, labeled and confidence-scored prediction out.
package classifier

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/chaitanyak175/attack-capital/internal/domain"
	"github.com/chaitanyak175/attack-capital/internal/observability/telemetry"
	"github.com/chaitanyak175/attack-capital/internal/ports"
)

// Config bounds the duration of audio fed to the model. The two upstream
// deployments disagreed on these (1 s/30 s vs 2 s/5 s), so both are
// configuration here.
type Config struct {
	// MinDurationS is the minimum clip duration in seconds; shorter
	// waveforms are right-padded with zeros.
	MinDurationS float64
	// MaxDurationS is the maximum clip duration in seconds; longer
	// waveforms are truncated from the start.
	MaxDurationS float64
}

func (c *Config) applyDefaults() {
	if c.MinDurationS <= 0 {
		c.MinDurationS = 1
	}
	if c.MaxDurationS <= 0 {
		c.MaxDurationS = 30
	}
}

// Service is the pipeline. It holds immutable references to the loaded
// model and its preprocessing companion; Classify is safe for concurrent
// use.
type Service struct {
	decoder    ports.AudioDecoder
	extractor  ports.FeatureExtractor
	model      ports.Model
	sampleRate int
	minSamples int
	maxSamples int
	log        *zap.Logger
}

// NewService wires the pipeline. model and extractor may be nil only in a
// not-yet-loaded state; Classify then fails with ErrModelNotLoaded.
func NewService(decoder ports.AudioDecoder, extractor ports.FeatureExtractor, model ports.Model, cfg Config, log *zap.Logger) *Service {
	cfg.applyDefaults()

	s := &Service{
		decoder:    decoder,
		extractor:  extractor,
		model:      model,
		sampleRate: domain.TargetSampleRate,
		minSamples: int(cfg.MinDurationS * float64(domain.TargetSampleRate)),
		maxSamples: int(cfg.MaxDurationS * float64(domain.TargetSampleRate)),
		log:        log,
	}

	if s.Ready() {
		telemetry.ModelLoaded.Set(1)
	} else {
		telemetry.ModelLoaded.Set(0)
	}
	return s
}

// Ready reports whether the model and feature extractor are loaded.
func (s *Service) Ready() bool {
	return s.model != nil && s.extractor != nil
}

// Metadata returns the loaded model's descriptive metadata.
func (s *Service) Metadata() (domain.ModelMetadata, error) {
	if !s.Ready() {
		return domain.ModelMetadata{}, domain.ErrModelNotLoaded
	}
	return s.model.Metadata(), nil
}

// Classify runs the full pipeline: decode, length-normalize, extract
// features, forward pass, softmax and argmax.
func (s *Service) Classify(ctx context.Context, raw []byte, mode ports.DecodeMode) (*domain.Prediction, error) {
	start := time.Now()

	if !s.Ready() {
		return nil, domain.ErrModelNotLoaded
	}

	waveform, err := s.decode(raw, mode)
	if err != nil {
		telemetry.PredictionsTotal.WithLabelValues("", "decode_error").Inc()
		return nil, err
	}

	waveform = s.normalizeLength(waveform)
	duration := float64(len(waveform)) / float64(s.sampleRate)

	features, err := s.extractor.Extract(waveform, s.sampleRate)
	if err != nil {
		telemetry.PredictionsTotal.WithLabelValues("", "error").Inc()
		return nil, domain.NewInferenceError("feature extraction", err)
	}

	logits, err := s.model.Infer(ctx, features)
	if err != nil {
		telemetry.PredictionsTotal.WithLabelValues("", "error").Inc()
		return nil, domain.NewInferenceError("forward pass", err)
	}
	if len(logits) < 2 {
		telemetry.PredictionsTotal.WithLabelValues("", "error").Inc()
		return nil, domain.NewInferenceError("forward pass", fmt.Errorf("expected 2 logits, got %d", len(logits)))
	}

	dist := Softmax(logits[:2])
	label := dist.Label()
	confidence := dist[dist.Predicted()]

	meta := s.model.Metadata()
	elapsed := time.Since(start)

	telemetry.PredictionsTotal.WithLabelValues(label, "ok").Inc()
	telemetry.PredictionConfidence.Observe(confidence)
	telemetry.AudioDurationSeconds.Observe(duration)
	telemetry.InferenceLatency.Observe(elapsed.Seconds())

	s.log.Info("Prediction",
		zap.String("request_id", uuid.New().String()),
		zap.String("label", label),
		zap.Float64("confidence", confidence),
		zap.Float64("audio_duration_s", duration),
		zap.Duration("elapsed", elapsed),
	)

	return &domain.Prediction{
		Label:      label,
		Confidence: confidence,
		Probabilities: domain.Probabilities{
			Voicemail: dist[domain.ClassVoicemail],
			Human:     dist[domain.ClassHuman],
		},
		AudioDuration:    duration,
		SampleRate:       s.sampleRate,
		ProcessingTimeMS: float64(elapsed.Microseconds()) / 1000,
		ModelInfo: domain.ModelInfo{
			ModelName: meta.ModelName,
			Device:    meta.Device,
		},
	}, nil
}

func (s *Service) decode(raw []byte, mode ports.DecodeMode) ([]float32, error) {
	switch mode {
	case ports.DecodeRawPCM:
		return s.decoder.DecodeRawPCM(raw)
	default:
		return s.decoder.DecodeContainer(raw)
	}
}

// normalizeLength pads short waveforms with zeros up to the minimum and
// truncates long ones to the maximum, so inference latency and memory stay
// bounded regardless of input size.
func (s *Service) normalizeLength(waveform []float32) []float32 {
	if len(waveform) < s.minSamples {
		padded := make([]float32, s.minSamples)
		copy(padded, waveform)
		return padded
	}
	if len(waveform) > s.maxSamples {
		return waveform[:s.maxSamples]
	}
	return waveform
}

// Softmax converts two raw logits into a probability distribution. The max
// is subtracted first for numerical stability.
func Softmax(logits []float32) domain.ClassDistribution {
	vals := make([]float64, len(logits))
	for i, l := range logits {
		vals[i] = float64(l)
	}

	max := floats.Max(vals)
	for i, v := range vals {
		vals[i] = math.Exp(v - max)
	}
	sum := floats.Sum(vals)

	var dist domain.ClassDistribution
	dist[domain.ClassVoicemail] = vals[domain.ClassVoicemail] / sum
	dist[domain.ClassHuman] = vals[domain.ClassHuman] / sum
	return dist
}
