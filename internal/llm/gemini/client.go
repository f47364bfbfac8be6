// Package gemini adapts the Google Gen AI SDK to llm.Completer.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	genai "google.golang.org/genai"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/llm"
)

// ErrEmptyResponse is returned when the model answers without any text part.
var ErrEmptyResponse = errors.New("gemini: empty response")

type Config struct {
	APIKey string // if empty the SDK reads GEMINI_API_KEY / GOOGLE_API_KEY
	Model  string // default gemini-2.0-flash
}

type Client struct {
	cli    *genai.Client
	model  string
	logger *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if logger == nil {
		logger = slog.Default()
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{cli: cli, model: cfg.Model, logger: logger}, nil
}

func (c *Client) Name() string { return "gemini:" + c.model }

// Complete sends the system prompt as a system instruction and asks for JSON output.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	temp := req.Temperature
	conf := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: req.System}}},
		Temperature:       &temp,
		MaxOutputTokens:   int32(req.MaxTokens),
		ResponseMIMEType:  "application/json",
	}

	start := time.Now()
	resp, err := c.cli.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.User}}}},
		conf,
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := candidateText(resp)
	c.logger.Info("llm.gemini.response", "model", c.model, "bytes", len(text), "elapsed_ms", time.Since(start).Milliseconds())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && !p.Thought {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
