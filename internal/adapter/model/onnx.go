// Package model loads the exported checkpoint into an ONNX Runtime session
// and exposes it behind ports.Model. The session is created once at startup
// and is read-only afterwards; Run is safe from concurrent call sites.
package model

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/chaitanyak175/attack-capital/internal/domain"
)

// Config controls model loading.
type Config struct {
	// ModelPath is the checkpoint identifier or a filesystem path to the
	// exported .onnx file (or a directory containing model.onnx).
	ModelPath string
	// CacheDir is where checkpoint directories live when ModelPath is an
	// identifier rather than a path.
	CacheDir string
	// Device selects the execution provider: "auto", "cpu" or "cuda".
	Device string
	// LibraryPath optionally points at the onnxruntime shared library.
	LibraryPath string
}

// ONNXModel wraps a DynamicAdvancedSession over the exported classifier.
type ONNXModel struct {
	session  *ort.DynamicAdvancedSession
	meta     domain.ModelMetadata
	inputLen int64
	log      *zap.Logger
}

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

func initRuntime(libraryPath string) error {
	ortInitOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// Load creates the inference session. It is called once at process startup;
// any failure here is fatal to the caller.
func Load(cfg Config, log *zap.Logger) (*ONNXModel, error) {
	if err := initRuntime(cfg.LibraryPath); err != nil {
		return nil, fmt.Errorf("failed to initialize onnxruntime: %w", err)
	}

	modelFile, err := resolveModelFile(cfg.ModelPath, cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(modelFile)
	if err != nil {
		return nil, fmt.Errorf("model file not accessible: %w", err)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer opts.Destroy()

	device := selectDevice(cfg.Device, opts, log)

	session, err := ort.NewDynamicAdvancedSession(
		modelFile,
		[]string{"input_values"},
		[]string{"logits"},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create inference session: %w", err)
	}

	// float32 weights dominate the file, so bytes/4 approximates the
	// parameter count.
	params := info.Size() / 4

	m := &ONNXModel{
		session: session,
		meta: domain.ModelMetadata{
			ModelName:          cfg.ModelPath,
			ModelType:          "Wav2Vec2ForSequenceClassification",
			ExpectedSampleRate: domain.TargetSampleRate,
			NumLabels:          2,
			Labels:             []string{"voicemail/machine", "human"},
			ModelParameters:    params,
			ModelSizeMB:        float64(info.Size()) / 1024 / 1024,
			Device:             device,
		},
		log: log,
	}

	log.Info("Model loaded",
		zap.String("model", cfg.ModelPath),
		zap.String("file", modelFile),
		zap.String("device", device),
		zap.Int64("approx_parameters", params),
	)

	return m, nil
}

// Infer runs a forward pass and returns the raw per-class logits.
func (m *ONNXModel) Infer(ctx context.Context, input []float32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(input) == 0 {
		return nil, fmt.Errorf("empty model input")
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(input))), input)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(m.meta.NumLabels)))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	if err := m.session.Run(
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
	); err != nil {
		return nil, fmt.Errorf("forward pass failed: %w", err)
	}

	logits := make([]float32, m.meta.NumLabels)
	copy(logits, outputTensor.GetData())
	return logits, nil
}

// Metadata returns the descriptive metadata of the loaded checkpoint.
func (m *ONNXModel) Metadata() domain.ModelMetadata {
	return m.meta
}

// Close releases the inference session.
func (m *ONNXModel) Close() error {
	if m.session != nil {
		err := m.session.Destroy()
		m.session = nil
		return err
	}
	return nil
}

// selectDevice appends the CUDA execution provider when requested and
// available, falling back to CPU otherwise.
func selectDevice(device string, opts *ort.SessionOptions, log *zap.Logger) string {
	switch strings.ToLower(device) {
	case "", "auto", "cuda":
		cudaOpts, err := ort.NewCUDAProviderOptions()
		if err != nil {
			log.Info("CUDA not available, using CPU", zap.Error(err))
			return "cpu"
		}
		defer cudaOpts.Destroy()
		if err := opts.AppendExecutionProviderCUDA(cudaOpts); err != nil {
			log.Info("CUDA not available, using CPU", zap.Error(err))
			return "cpu"
		}
		return "cuda"
	default:
		return "cpu"
	}
}

// resolveModelFile maps a checkpoint identifier or path to the .onnx file on
// disk. Identifiers are looked up under cacheDir with path separators
// flattened, matching how the weights are laid out by the export step.
func resolveModelFile(modelPath, cacheDir string) (string, error) {
	if info, err := os.Stat(modelPath); err == nil {
		if info.IsDir() {
			return filepath.Join(modelPath, "model.onnx"), nil
		}
		return modelPath, nil
	}

	if cacheDir == "" {
		return "", fmt.Errorf("model %q not found and no cache directory configured", modelPath)
	}

	dir := filepath.Join(cacheDir, strings.ReplaceAll(modelPath, "/", "--"))
	file := filepath.Join(dir, "model.onnx")
	if _, err := os.Stat(file); err != nil {
		return "", fmt.Errorf("model %q not found in cache %s: %w", modelPath, cacheDir, err)
	}
	return file, nil
}
