package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	OCR      OCRConfig      `yaml:"ocr"`
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	LogLevel string         `yaml:"log_level"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string        `yaml:"http_addr"`
	GRPCAddr       string        `yaml:"grpc_addr"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ProcessRoot    string        `yaml:"process_root"` // gRPC Process paths must live beneath it; empty allows any
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract     string `yaml:"tesseract"`
	Pdftoppm      string `yaml:"pdftoppm"`
	TesseractLang string `yaml:"lang"`
	TessdataDir   string `yaml:"tessdata_dir"`
	DPI           int    `yaml:"dpi"`
	MaxPages      int    `yaml:"max_pages"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Mode            string        `yaml:"mode"`     // live | stub
	Provider        string        `yaml:"provider"` // openai | azure | gemini
	Model           string        `yaml:"model"`    // empty picks the provider default
	APIKey          string        `yaml:"api_key"`
	BaseURL         string        `yaml:"base_url"`
	AzureEndpoint   string        `yaml:"azure_endpoint"`
	AzureDeployment string        `yaml:"azure_deployment"`
	AzureAPIVersion string        `yaml:"azure_api_version"`
	Temperature     float32       `yaml:"temperature"`
	MaxTokens       int           `yaml:"max_tokens"`
	MaxInputChars   int           `yaml:"max_input_chars"`
	Timeout         time.Duration `yaml:"timeout"`
	CacheSize       int           `yaml:"cache_size"`
}

// PipelineConfig holds classification gating and thresholds
type PipelineConfig struct {
	GateOnClassification bool `yaml:"gate_on_classification"`
	StrongThreshold      int  `yaml:"strong_threshold"`
	TotalThreshold       int  `yaml:"total_threshold"`
}

// StorageConfig holds upload storage configuration
type StorageConfig struct {
	Backend   string `yaml:"backend"` // local | s3
	UploadDir string `yaml:"upload_dir"`
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// DatabaseConfig holds history store configuration
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"` // sqlite | postgres | "" (disabled)
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout     time.Duration `yaml:"dial_timeout"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:       ":8000",
			GRPCAddr:       ":9090",
			MaxUploadBytes: 25 << 20,
			RequestTimeout: 3 * time.Minute,
		},
		OCR: OCRConfig{
			Tesseract:     "tesseract",
			Pdftoppm:      "pdftoppm",
			TesseractLang: "eng",
			DPI:           300,
			MaxPages:      8,
		},
		LLM: LLMConfig{
			Mode:            "live",
			Provider:        "azure",
			AzureAPIVersion: "2024-02-15-preview",
			Temperature:     0,
			MaxTokens:       2000,
			MaxInputChars:   8000,
			Timeout:         60 * time.Second,
		},
		Pipeline: PipelineConfig{
			StrongThreshold: 1,
			TotalThreshold:  10,
		},
		Storage: StorageConfig{
			Backend:   "local",
			UploadDir: "./uploads",
			UseSSL:    true,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "file:referrals.db?_pragma=busy_timeout(5000)",
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		LogLevel: "info",
	}
}

// LoadConfig layers defaults, an optional YAML file, a .env file and the environment.
// path may be empty; CONFIG_FILE is consulted in that case.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, WrapAppError(CodeConfig, "read config file", ErrInvalidInput, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, WrapAppError(CodeConfig, "parse config file "+path, ErrInvalidInput, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.MaxUploadBytes = getEnvAsInt64("MAX_UPLOAD_BYTES", c.Server.MaxUploadBytes)
	c.Server.RequestTimeout = getEnvAsDuration("REQUEST_TIMEOUT", c.Server.RequestTimeout)
	c.Server.ProcessRoot = getEnv("PROCESS_ROOT", c.Server.ProcessRoot)

	c.OCR.Tesseract = getEnv("TESSERACT_CMD", c.OCR.Tesseract)
	c.OCR.Pdftoppm = getEnv("PDFTOPPM_CMD", c.OCR.Pdftoppm)
	c.OCR.TesseractLang = getEnv("TESSERACT_LANG", c.OCR.TesseractLang)
	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.OCR.DPI = getEnvAsInt("OCR_DPI", c.OCR.DPI)
	c.OCR.MaxPages = getEnvAsInt("MAX_PAGES", c.OCR.MaxPages)

	c.LLM.Mode = strings.ToLower(getEnv("LLM_MODE", c.LLM.Mode))
	c.LLM.Provider = strings.ToLower(getEnv("LLM_PROVIDER", c.LLM.Provider))
	c.LLM.Model = getEnv("LLM_MODEL", c.LLM.Model)
	c.LLM.APIKey = getEnv("LLM_API_KEY", c.LLM.APIKey)
	switch c.LLM.Provider {
	case "azure":
		c.LLM.APIKey = getEnv("AZURE_OPENAI_API_KEY", c.LLM.APIKey)
		c.LLM.AzureEndpoint = getEnv("AZURE_OPENAI_ENDPOINT", c.LLM.AzureEndpoint)
		c.LLM.AzureDeployment = getEnv("AZURE_OPENAI_DEPLOYMENT", c.LLM.AzureDeployment)
		c.LLM.AzureAPIVersion = getEnv("AZURE_OPENAI_API_VERSION", c.LLM.AzureAPIVersion)
	case "openai":
		c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
		c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	case "gemini":
		c.LLM.APIKey = getEnv("GEMINI_API_KEY", c.LLM.APIKey)
	}
	c.LLM.Temperature = getEnvAsFloat32("LLM_TEMPERATURE", c.LLM.Temperature)
	c.LLM.MaxTokens = getEnvAsInt("LLM_MAX_TOKENS", c.LLM.MaxTokens)
	c.LLM.MaxInputChars = getEnvAsInt("LLM_MAX_INPUT_CHARS", c.LLM.MaxInputChars)
	c.LLM.Timeout = getEnvAsDuration("LLM_TIMEOUT", c.LLM.Timeout)
	c.LLM.CacheSize = getEnvAsInt("LLM_CACHE_SIZE", c.LLM.CacheSize)

	c.Pipeline.GateOnClassification = getEnvAsBool("PIPELINE_GATE_ON_CLASSIFICATION", c.Pipeline.GateOnClassification)
	c.Pipeline.StrongThreshold = getEnvAsInt("CLASSIFIER_STRONG_THRESHOLD", c.Pipeline.StrongThreshold)
	c.Pipeline.TotalThreshold = getEnvAsInt("CLASSIFIER_TOTAL_THRESHOLD", c.Pipeline.TotalThreshold)

	c.Storage.Backend = strings.ToLower(getEnv("STORAGE_BACKEND", c.Storage.Backend))
	c.Storage.UploadDir = getEnv("UPLOAD_DIR", c.Storage.UploadDir)
	c.Storage.Endpoint = getEnv("S3_ENDPOINT", c.Storage.Endpoint)
	c.Storage.Bucket = getEnv("S3_BUCKET", c.Storage.Bucket)
	c.Storage.AccessKey = getEnv("S3_ACCESS_KEY", c.Storage.AccessKey)
	c.Storage.SecretKey = getEnv("S3_SECRET_KEY", c.Storage.SecretKey)
	c.Storage.Region = getEnv("S3_REGION", c.Storage.Region)
	c.Storage.UseSSL = getEnvAsBool("S3_USE_SSL", c.Storage.UseSSL)

	c.Database.Driver = strings.ToLower(getEnv("DB_DRIVER", c.Database.Driver))
	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.LLM.Mode {
	case "stub":
	case "live":
		switch c.LLM.Provider {
		case "azure":
			if c.LLM.AzureEndpoint == "" || c.LLM.AzureDeployment == "" {
				return NewAppError(CodeConfig, "AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_DEPLOYMENT are required", ErrInvalidInput)
			}
			if c.LLM.APIKey == "" {
				return NewAppError(CodeConfig, "AZURE_OPENAI_API_KEY is required", ErrInvalidInput)
			}
		case "openai", "gemini":
			if c.LLM.APIKey == "" {
				return NewAppError(CodeConfig, fmt.Sprintf("an API key is required for provider %q", c.LLM.Provider), ErrInvalidInput)
			}
		default:
			return NewAppError(CodeConfig, fmt.Sprintf("unknown LLM_PROVIDER %q", c.LLM.Provider), ErrInvalidInput)
		}
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("LLM_MODE must be live or stub, got %q", c.LLM.Mode), ErrInvalidInput)
	}

	if c.OCR.MaxPages <= 0 {
		return NewAppError(CodeConfig, "MAX_PAGES must be positive", ErrInvalidInput)
	}
	if c.Pipeline.StrongThreshold < 0 || c.Pipeline.TotalThreshold < 0 {
		return NewAppError(CodeConfig, "classifier thresholds must be non-negative", ErrInvalidInput)
	}

	switch c.Storage.Backend {
	case "local":
		if c.Storage.UploadDir == "" {
			return NewAppError(CodeConfig, "UPLOAD_DIR is required for local storage", ErrInvalidInput)
		}
	case "s3":
		if c.Storage.Endpoint == "" || c.Storage.Bucket == "" {
			return NewAppError(CodeConfig, "S3_ENDPOINT and S3_BUCKET are required for s3 storage", ErrInvalidInput)
		}
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unknown STORAGE_BACKEND %q", c.Storage.Backend), ErrInvalidInput)
	}

	switch c.Database.Driver {
	case "", "sqlite", "postgres":
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unknown DB_DRIVER %q", c.Database.Driver), ErrInvalidInput)
	}
	if c.Database.Driver != "" && c.Database.DSN == "" {
		return NewAppError(CodeConfig, "DB_URL is required when DB_DRIVER is set", ErrInvalidInput)
	}
	return nil
}
