package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default configuration file location.
const ConfigPath = "config.yaml"

// Persistence backends.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Changefeed backends.
const (
	ChangefeedOff   = ""
	ChangefeedRedis = "redis"
	ChangefeedAMQP  = "amqp"
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`

	SessionSecret   string `yaml:"sessionSecret"`
	SessionIssuer   string `yaml:"sessionIssuer"`
	SessionAudience string `yaml:"sessionAudience"`

	PersistBackend string `yaml:"persistBackend"`
	DataDir        string `yaml:"dataDir"`
	DatabaseURL    string `yaml:"databaseURL"`
	RedisAddr      string `yaml:"redisAddr"`
	RedisPassword  string `yaml:"redisPassword"`

	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioUseSSL    bool   `yaml:"minioUseSSL"`

	ChangefeedBackend string `yaml:"changefeedBackend"`
	ChangefeedStream  string `yaml:"changefeedStream"`
	AMQPURL           string `yaml:"amqpURL"`
	AMQPExchange      string `yaml:"amqpExchange"`

	CommentRateLimitPerMinute int   `yaml:"commentRateLimitPerMinute"`
	UploadRateLimitPerMinute  int   `yaml:"uploadRateLimitPerMinute"`
	MaxUploadBytes            int64 `yaml:"maxUploadBytes"`
}

// Load reads config from path (defaults to config.yaml) and applies
// environment overrides.
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
	applyEnvOverrides(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *FileConfig) {
	if v := os.Getenv("ALAMEDA_SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
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
	if v := os.Getenv("MINIO_USE_SSL"); v == "true" {
		cfg.MinioUseSSL = true
	}
	if v := os.Getenv("AMQP_URL"); v != "" {
		cfg.AMQPURL = v
	}
	if v := os.Getenv("ALAMEDA_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.SessionSecret == "" {
		return errors.New("config: sessionSecret is required (set in config.yaml or ALAMEDA_SESSION_SECRET)")
	}
	switch cfg.PersistBackend {
	case BackendFile, BackendMemory:
		if cfg.PersistBackend == BackendFile && cfg.DataDir == "" {
			return errors.New("config: dataDir is required for the file backend")
		}
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return errors.New("config: redisAddr is required for the redis backend")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("config: databaseURL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("config: unknown persistBackend %q", cfg.PersistBackend)
	}
	switch cfg.ChangefeedBackend {
	case ChangefeedOff:
	case ChangefeedRedis:
		if cfg.RedisAddr == "" {
			return errors.New("config: redisAddr is required for the redis changefeed")
		}
	case ChangefeedAMQP:
		if cfg.AMQPURL == "" {
			return errors.New("config: amqpURL is required for the amqp changefeed")
		}
	default:
		return fmt.Errorf("config: unknown changefeedBackend %q", cfg.ChangefeedBackend)
	}
	if cfg.MinioEndpoint != "" {
		if cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" || cfg.MinioBucket == "" {
			return errors.New("config: minio endpoint set but credentials or bucket missing")
		}
	}
	return nil
}
