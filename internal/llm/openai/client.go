package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/llm"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model,omitempty"`
	Messages       []chatMessage  `json:"messages"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	Temperature    float32        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) Name() string { return c.cfg.Flavor }

// Complete implements llm.Completer over the chat/completions endpoint.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	endpoint, headers, err := c.target()
	if err != nil {
		return "", err
	}

	body := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		MaxTokens:      req.MaxTokens,
		Temperature:    req.Temperature,
		ResponseFormat: responseFormat{Type: "json_object"},
	}
	if c.cfg.Flavor != FlavorAzure {
		body.Model = c.cfg.Model
	}

	raw, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", c.cfg.Flavor, err)
	}

	var cc chatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode %s response: %w", c.cfg.Flavor, err)
	}
	if len(cc.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return cc.Choices[0].Message.Content, nil
}

func (c *Client) target() (string, map[string]string, error) {
	if c.cfg.APIKey == "" {
		return "", nil, fmt.Errorf("%s: api key not configured", c.cfg.Flavor)
	}
	if c.cfg.Flavor != FlavorAzure {
		return c.cfg.BaseURL + "/chat/completions", map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}, nil
	}

	if c.cfg.Endpoint == "" || c.cfg.Deployment == "" {
		return "", nil, errors.New("azure: endpoint and deployment are required")
	}
	u := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.cfg.Endpoint, url.PathEscape(c.cfg.Deployment), url.QueryEscape(c.cfg.APIVersion))
	return u, map[string]string{"api-key": c.cfg.APIKey}, nil
}
