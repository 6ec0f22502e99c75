package ports

import (
	"context"

	"github.com/chaitanyak175/attack-capital/internal/domain"
)

// DecodeMode selects how classifier input bytes are interpreted.
type DecodeMode int

const (
	// DecodeContainer treats the payload as a standard audio container
	// (WAV) and resamples it to the target rate.
	DecodeContainer DecodeMode = iota
	// DecodeRawPCM treats the payload as signed 16-bit little-endian PCM
	// already at the target rate. No resampling is performed.
	DecodeRawPCM
)

// Model runs a forward pass through the pretrained classification network.
// Implementations must be safe for concurrent Infer calls.
type Model interface {
	// Infer returns the raw per-class logits for a model-ready input.
	Infer(ctx context.Context, input []float32) ([]float32, error)
	Metadata() domain.ModelMetadata
}

// FeatureExtractor converts a fixed-length waveform into the tensor
// representation the model expects.
type FeatureExtractor interface {
	Extract(waveform []float32, sampleRate int) ([]float32, error)
}

// AudioDecoder turns raw payload bytes into a mono waveform at the target
// sample rate, samples in [-1, 1].
type AudioDecoder interface {
	DecodeContainer(raw []byte) ([]float32, error)
	DecodeRawPCM(raw []byte) ([]float32, error)
}

// Classifier is the preprocessing-and-inference pipeline.
type Classifier interface {
	Classify(ctx context.Context, raw []byte, mode DecodeMode) (*domain.Prediction, error)
	// Ready reports whether the model and feature extractor are loaded.
	Ready() bool
	Metadata() (domain.ModelMetadata, error)
}
