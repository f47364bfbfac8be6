package openai

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// Provider flavours served by this client.
const (
	FlavorOpenAI = "openai"
	FlavorAzure  = "azure"
)

// Config for the chat-completions client. Azure deployments are addressed by
// endpoint + deployment + api version; plain OpenAI by base URL + model.
type Config struct {
	Flavor     string
	APIKey     string        // if empty, falls back to OPENAI_API_KEY / AZURE_OPENAI_API_KEY
	BaseURL    string        // default https://api.openai.com/v1
	Model      string        // e.g. "gpt-4o-mini"; ignored by Azure
	Endpoint   string        // Azure resource endpoint
	Deployment string        // Azure deployment name
	APIVersion string        // Azure api-version, default 2024-02-15-preview
	Timeout    time.Duration // http client timeout
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Flavor == "" {
		cfg.Flavor = FlavorOpenAI
	}
	if cfg.APIKey == "" {
		if cfg.Flavor == FlavorAzure {
			cfg.APIKey = os.Getenv("AZURE_OPENAI_API_KEY")
		} else {
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-02-15-preview"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}
