// Package imagegen forwards prompts to the external image-generation
// provider.
package imagegen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"magicwords/core/apperr"
	"magicwords/logger"

	openai "github.com/sashabaranov/go-openai"
)

// Generator turns a prompt into the URL of one generated image.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config configures the OpenAI-compatible client.
type Config struct {
	APIKey  string
	BaseURL string // empty uses the provider default
	Model   string
	Timeout time.Duration
}

// Client requests a single 1024x1024 standard-quality image per call.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

func NewClient(cfg Config) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = &http.Client{}
	model := cfg.Model
	if model == "" {
		model = openai.CreateImageModelDallE2
	}
	return &Client{api: openai.NewClientWithConfig(oc), model: model, timeout: cfg.Timeout}
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", apperr.FieldError("prompt", "This field is required.")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.api.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          c.model,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		Quality:        openai.CreateImageQualityStandard,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		logger.Warn("[ImageGen] provider call failed",
			logger.ErrorField(err),
			logger.Duration("elapsed", time.Since(start)))
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: provider returned %d: %s", apperr.ErrUpstream, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("%w: provider returned no image", apperr.ErrUpstream)
	}

	logger.Info("[ImageGen] image generated", logger.Duration("elapsed", time.Since(start)))
	return resp.Data[0].URL, nil
}
