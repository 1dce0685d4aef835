package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port             string   `mapstructure:"PORT"`
	Env              string   `mapstructure:"ENV"`
	CORSOrigins      []string `mapstructure:"CORS_ORIGINS"`
	DatabaseURL      string   `mapstructure:"DATABASE_URL"`
	DBMaxConns       int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns       int32    `mapstructure:"DB_MIN_CONNS"`
	TokenDBPath      string   `mapstructure:"TOKEN_DB_PATH"`
	PatientTokenSalt string   `mapstructure:"PATIENT_TOKEN_SALT"`
	OpenAIAPIKey     string   `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel      string   `mapstructure:"OPENAI_MODEL"`
	MinioEndpoint    string   `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey   string   `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey   string   `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket      string   `mapstructure:"MINIO_BUCKET"`
	MinioUseSSL      bool     `mapstructure:"MINIO_USE_SSL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("TOKEN_DB_PATH", "data/session-token")
	v.SetDefault("PATIENT_TOKEN_SALT", "bio-hacker-salt")
	v.SetDefault("MINIO_BUCKET", "lab-reports")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("TOKEN_DB_PATH")
	v.BindEnv("PATIENT_TOKEN_SALT")
	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("OPENAI_MODEL")
	v.BindEnv("MINIO_ENDPOINT")
	v.BindEnv("MINIO_ACCESS_KEY")
	v.BindEnv("MINIO_SECRET_KEY")
	v.BindEnv("MINIO_BUCKET")
	v.BindEnv("MINIO_USE_SSL")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// MinioConfigured reports whether object storage is set up; without it the
// server keeps uploads in memory for the life of the process.
func (c *Config) MinioConfigured() bool {
	return c.MinioEndpoint != ""
}

// Validate checks that partially-specified backends are rejected early.
func (c *Config) Validate() error {
	if c.MinioConfigured() && (c.MinioAccessKey == "" || c.MinioSecretKey == "") {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
	}
	if c.OpenAIModel != "" && c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when OPENAI_MODEL is set")
	}
	return nil
}
