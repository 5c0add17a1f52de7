// Package config loads the server configuration from YAML with
// environment variable overrides for deployment secrets.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`

	DatabaseURL   string `yaml:"databaseURL"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	JWTSecret     string `yaml:"jwtSecret"`
	TokenTTLHours int    `yaml:"tokenTTLHours"`

	// storageDriver selects "minio" or "local".
	StorageDriver    string `yaml:"storageDriver"`
	MinioEndpoint    string `yaml:"minioEndpoint"`
	MinioAccessKey   string `yaml:"minioAccessKey"`
	MinioSecretKey   string `yaml:"minioSecretKey"`
	MinioBucket      string `yaml:"minioBucket"`
	MinioUseSSL      bool   `yaml:"minioUseSSL"`
	LocalStoragePath string `yaml:"localStoragePath"`

	// aiProvider selects "gemini" or "openai" (any OpenAI-compatible endpoint).
	AIProvider   string `yaml:"aiProvider"`
	AIModel      string `yaml:"aiModel"`
	AIBaseURL    string `yaml:"aiBaseURL"`
	AIAPIKey     string `yaml:"aiApiKey"`
	GeminiAPIKey string `yaml:"geminiApiKey"`

	MaxUploadBytes        int64 `yaml:"maxUploadBytes"`
	WorkerConcurrency     int   `yaml:"workerConcurrency"`
	QueueMaxRetries       int   `yaml:"queueMaxRetries"`
	CheckerIntervalMins   int   `yaml:"checkerIntervalMinutes"`
	RegisterRatePerMinute int   `yaml:"registerRateLimitPerMinute"`
	LoginRatePerMinute    int   `yaml:"loginRateLimitPerMinute"`

	TrustedProxies []string `yaml:"trustedProxies"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("MINDVAULT_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("MINDVAULT_STORAGE_DRIVER"); v != "" {
		cfg.StorageDriver = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("MINDVAULT_AI_PROVIDER"); v != "" {
		cfg.AIProvider = v
	}
	if v := os.Getenv("MINDVAULT_AI_MODEL"); v != "" {
		cfg.AIModel = v
	}
	if v := os.Getenv("MINDVAULT_AI_BASE_URL"); v != "" {
		cfg.AIBaseURL = v
	}
	if v := os.Getenv("MINDVAULT_AI_API_KEY"); v != "" {
		cfg.AIAPIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("MINDVAULT_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("MINDVAULT_WORKER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WorkerConcurrency = n
		}
	}
	if v := os.Getenv("MINDVAULT_QUEUE_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QueueMaxRetries = n
		}
	}
	if v := os.Getenv("MINDVAULT_CHECKER_INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CheckerIntervalMins = n
		}
	}
	if v := os.Getenv("MINDVAULT_TRUSTED_PROXIES"); v != "" {
		entries := strings.Split(v, ",")
		cfg.TrustedProxies = cfg.TrustedProxies[:0]
		for _, e := range entries {
			if e = strings.TrimSpace(e); e != "" {
				cfg.TrustedProxies = append(cfg.TrustedProxies, e)
			}
		}
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if cfg.RedisAddr == "" {
		return errors.New("config: redisAddr is required (set in config.yaml or REDIS_ADDR)")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return errors.New("config: jwtSecret is required (set in config.yaml or MINDVAULT_JWT_SECRET)")
	}
	switch cfg.StorageDriver {
	case "minio":
		if cfg.MinioEndpoint == "" || cfg.MinioBucket == "" {
			return errors.New("config: minioEndpoint and minioBucket are required when storageDriver=minio")
		}
		if cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" {
			return errors.New("config: minio credentials are required (MINIO_ACCESS_KEY + MINIO_SECRET_KEY)")
		}
	case "local":
		if strings.TrimSpace(cfg.LocalStoragePath) == "" {
			return errors.New("config: localStoragePath is required when storageDriver=local")
		}
	default:
		return fmt.Errorf("config: unknown storageDriver %q (want minio or local)", cfg.StorageDriver)
	}
	switch cfg.AIProvider {
	case "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			return errors.New("config: geminiApiKey is required when aiProvider=gemini (set GEMINI_API_KEY)")
		}
	case "openai":
		if cfg.AIBaseURL == "" || cfg.AIModel == "" {
			return errors.New("config: aiBaseURL and aiModel are required when aiProvider=openai")
		}
	default:
		return fmt.Errorf("config: unknown aiProvider %q (want gemini or openai)", cfg.AIProvider)
	}
	if cfg.MaxUploadBytes < 0 {
		return errors.New("config: maxUploadBytes must be >= 0")
	}
	if cfg.WorkerConcurrency < 0 {
		return errors.New("config: workerConcurrency must be >= 0")
	}
	if cfg.CheckerIntervalMins < 0 {
		return errors.New("config: checkerIntervalMinutes must be >= 0")
	}
	return nil
}
