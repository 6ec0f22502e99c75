package config

import "time"

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Model   ModelConfig   `mapstructure:"model"`
	Audio   AudioConfig   `mapstructure:"audio"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	BodyLimit      int           `mapstructure:"body_limit"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
}

type ModelConfig struct {
	// Path is the checkpoint identifier or a filesystem path to the
	// exported model.
	Path string `mapstructure:"path"`
	// CacheDir is where checkpoint weights are cached locally.
	CacheDir string `mapstructure:"cache_dir"`
	// Device selects the compute device: auto, cpu or cuda.
	Device string `mapstructure:"device"`
	// LibraryPath optionally points at the onnxruntime shared library.
	LibraryPath string `mapstructure:"library_path"`
}

type AudioConfig struct {
	MinDurationS float64 `mapstructure:"min_duration_s"`
	MaxDurationS float64 `mapstructure:"max_duration_s"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
