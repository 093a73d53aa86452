package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the complete service configuration. Each client
// receives its section as an immutable value at startup; nothing reads
// configuration globally after boot.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	Minio    MinioConfig    `toml:"minio"`
	OCR      OCRConfig      `toml:"ocr"`
	Ledger   LedgerConfig   `toml:"ledger"`
	Auth     AuthConfig     `toml:"auth"`
}

type ServerConfig struct {
	Port int `toml:"port"`
}

type DatabaseConfig struct {
	URL string `toml:"url"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type MinioConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
	Bucket    string `toml:"bucket"`
}

// OCRConfig contains the extraction service endpoint and timeout.
type OCRConfig struct {
	APIBase        string `toml:"api_base"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// LedgerConfig contains the voucher service endpoint and credentials.
type LedgerConfig struct {
	APIBase        string `toml:"api_base"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type AuthConfig struct {
	JWTSecret         string `toml:"jwt_secret"`
	TokenTTLSeconds   int    `toml:"token_ttl_seconds"`
	RefreshTTLSeconds int    `toml:"refresh_ttl_seconds"`
}

// Load reads configuration from a TOML file and applies environment
// overrides for secrets so they never have to live on disk.
func Load(filename string) (*Config, error) {
	cfg := &Config{}
	_, err := toml.DecodeFile(filename, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("LEDGER_API_KEY"); v != "" {
		cfg.Ledger.APIKey = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.Minio.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.Minio.SecretKey = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Minio.Endpoint == "" {
		c.Minio.Endpoint = "localhost:9000"
	}
	if c.Minio.Bucket == "" {
		c.Minio.Bucket = "receipts"
	}
	if c.OCR.TimeoutSeconds == 0 {
		c.OCR.TimeoutSeconds = 30
	}
	if c.Ledger.TimeoutSeconds == 0 {
		c.Ledger.TimeoutSeconds = 15
	}
	if c.Auth.TokenTTLSeconds == 0 {
		c.Auth.TokenTTLSeconds = 3600
	}
	if c.Auth.RefreshTTLSeconds == 0 {
		c.Auth.RefreshTTLSeconds = 7 * 24 * 3600
	}
}
