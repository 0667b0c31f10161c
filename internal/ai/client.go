// Package ai is a small client for the Gemini generateContent API. It backs
// both sentiment classification and the feedback chat assistant.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/labstack/echo/v4"
	"github.com/tidwall/gjson"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// Turn is a single message in a conversation
type Turn struct {
	Role string `json:"role"` // "user" or "model"
	Text string `json:"text"`
}

// Options tune a single generation call
type Options struct {
	Temperature     float64
	MaxOutputTokens int
	// ThinkingBudget caps reasoning tokens on models that think before
	// answering. nil leaves the model default, 0 turns thinking off.
	ThinkingBudget *int
}

// Generator produces text from a system instruction and conversation turns
type Generator interface {
	Generate(ctx context.Context, system string, turns []Turn, opts Options) (string, error)
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client calls the upstream model. It never retries.
type Client struct {
	http   *resty.Client
	apiKey string
	model  string
	logger echo.Logger
}

func NewClient(cfg Config, logger echo.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:   client,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		logger: logger,
	}
}

// Configured reports whether an API key is present
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type generationConfig struct {
	Temperature     float64         `json:"temperature"`
	MaxOutputTokens int             `json:"maxOutputTokens,omitempty"`
	ThinkingConfig  *thinkingConfig `json:"thinkingConfig,omitempty"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

func (c *Client) Generate(ctx context.Context, system string, turns []Turn, opts Options) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	if len(turns) == 0 {
		return "", errors.New("at least one turn is required")
	}

	req := generateRequest{
		GenerationConfig: generationConfig{
			Temperature:     opts.Temperature,
			MaxOutputTokens: opts.MaxOutputTokens,
		},
	}
	if opts.ThinkingBudget != nil {
		req.GenerationConfig.ThinkingConfig = &thinkingConfig{ThinkingBudget: *opts.ThinkingBudget}
	}
	if system != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}
	for _, t := range turns {
		role := t.Role
		if role != "model" {
			role = "user"
		}
		req.Contents = append(req.Contents, content{Role: role, Parts: []part{{Text: t.Text}}})
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetPathParam("model", c.model).
		SetBody(req).
		Post("/v1beta/models/{model}:generateContent")
	if err != nil {
		return "", fmt.Errorf("calling model %s: %w", c.model, err)
	}

	body := resp.Body()
	if resp.IsError() {
		return "", &UpstreamError{StatusCode: resp.StatusCode(), Body: string(body)}
	}

	if reason := gjson.GetBytes(body, "promptFeedback.blockReason"); reason.Exists() {
		return "", fmt.Errorf("%w: %s", ErrBlocked, reason.String())
	}
	if gjson.GetBytes(body, "candidates.0.finishReason").String() == "SAFETY" {
		return "", fmt.Errorf("%w: SAFETY", ErrBlocked)
	}

	var sb strings.Builder
	gjson.GetBytes(body, "candidates.0.content.parts.#.text").ForEach(func(_, value gjson.Result) bool {
		sb.WriteString(value.String())
		return true
	})

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
