package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/app/configs")

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Allow common env vars without APP_ prefix for Docker/VM deploys
	viper.BindEnv("http.host", "HOST", "APP_HTTP_HOST")
	viper.BindEnv("http.port", "PORT", "APP_HTTP_PORT")
	viper.BindEnv("http.allowed_origins", "ALLOWED_ORIGINS")
	viper.BindEnv("model.path", "HF_MODEL_PATH", "APP_MODEL_PATH")
	viper.BindEnv("model.cache_dir", "HF_CACHE_DIR", "APP_MODEL_CACHE_DIR")
	viper.BindEnv("model.device", "MODEL_DEVICE")
	viper.BindEnv("model.library_path", "ONNXRUNTIME_LIB_PATH")
	viper.BindEnv("audio.min_duration_s", "MIN_DURATION_S")
	viper.BindEnv("audio.max_duration_s", "MAX_DURATION_S")
	viper.BindEnv("app.environment", "APP_ENVIRONMENT")
	viper.BindEnv("logging.level", "LOG_LEVEL")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// env vars only
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// ALLOWED_ORIGINS arrives as a comma-separated string from the env.
	if len(cfg.HTTP.AllowedOrigins) == 1 && strings.Contains(cfg.HTTP.AllowedOrigins[0], ",") {
		cfg.HTTP.AllowedOrigins = strings.Split(cfg.HTTP.AllowedOrigins[0], ",")
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("app.name", "amd-service")
	viper.SetDefault("http.host", "0.0.0.0")
	viper.SetDefault("http.port", 8000)
	viper.SetDefault("http.body_limit", 32<<20)
	viper.SetDefault("model.path", "jakeBland/wav2vec-vm-finetune")
	viper.SetDefault("model.cache_dir", "./models")
	viper.SetDefault("model.device", "auto")
	viper.SetDefault("audio.min_duration_s", 1)
	viper.SetDefault("audio.max_duration_s", 30)
	viper.SetDefault("logging.level", "info")
}
