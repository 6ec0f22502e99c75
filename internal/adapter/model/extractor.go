package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/chaitanyak175/attack-capital/internal/domain"
)

// ExtractorConfig mirrors the checkpoint's preprocessor configuration. The
// values ship alongside the weights; they are not tuning knobs of this
// service.
type ExtractorConfig struct {
	DoNormalize  bool    `json:"do_normalize"`
	SamplingRate int     `json:"sampling_rate"`
	PaddingValue float64 `json:"padding_value"`
	FeatureSize  int     `json:"feature_size"`
}

// DefaultExtractorConfig returns the wav2vec2 convention: 16 kHz input,
// zero-mean unit-variance normalization.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		DoNormalize:  true,
		SamplingRate: domain.TargetSampleRate,
		PaddingValue: 0,
		FeatureSize:  1,
	}
}

// CheckpointDir maps a checkpoint identifier or path to the directory its
// companion files (preprocessor_config.json) live in. Returns "" when the
// checkpoint cannot be located; the extractor then runs on defaults.
func CheckpointDir(modelPath, cacheDir string) string {
	file, err := resolveModelFile(modelPath, cacheDir)
	if err != nil {
		return ""
	}
	return filepath.Dir(file)
}

// LoadExtractorConfig reads preprocessor_config.json from the checkpoint
// directory, falling back to defaults when the file is absent.
func LoadExtractorConfig(dir string) (ExtractorConfig, error) {
	cfg := DefaultExtractorConfig()
	if dir == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, "preprocessor_config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read preprocessor config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid preprocessor config: %w", err)
	}
	return cfg, nil
}

// Extractor prepares a waveform for the network the way the checkpoint's
// companion preprocessor does.
type Extractor struct {
	cfg ExtractorConfig
}

// NewExtractor creates an Extractor with the given config.
func NewExtractor(cfg ExtractorConfig) *Extractor {
	if cfg.SamplingRate == 0 {
		cfg.SamplingRate = domain.TargetSampleRate
	}
	return &Extractor{cfg: cfg}
}

// Extract converts a waveform into the model input. With normalization
// enabled the output has zero mean and unit variance; without it the
// waveform passes through unchanged.
func (e *Extractor) Extract(waveform []float32, sampleRate int) ([]float32, error) {
	if len(waveform) == 0 {
		return nil, fmt.Errorf("empty waveform")
	}
	if sampleRate != e.cfg.SamplingRate {
		return nil, fmt.Errorf("waveform sample rate %d does not match expected %d", sampleRate, e.cfg.SamplingRate)
	}

	out := make([]float32, len(waveform))
	if !e.cfg.DoNormalize {
		copy(out, waveform)
		return out, nil
	}

	var mean float64
	for _, s := range waveform {
		mean += float64(s)
	}
	mean /= float64(len(waveform))

	var variance float64
	for _, s := range waveform {
		d := float64(s) - mean
		variance += d * d
	}
	variance /= float64(len(waveform))

	// The 1e-7 epsilon matches the checkpoint's preprocessor and keeps
	// all-silence input finite.
	scale := 1.0 / math.Sqrt(variance+1e-7)
	for i, s := range waveform {
		out[i] = float32((float64(s) - mean) * scale)
	}
	return out, nil
}
