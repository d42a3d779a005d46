package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"aiornot-quiz-service/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Generator produces one image per prompt with the OpenAI images endpoint.
type Generator struct {
	client *openai.Client
	model  string
}

func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.CreateImageModelDallE3
	}
	return &Generator{client: openai.NewClientWithConfig(config), model: model}, nil
}

func (g *Generator) Generate(ctx context.Context, prompt string) ([]domain.Image, error) {
	response, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Model:          g.model,
		Prompt:         prompt,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		N:              1,
	})
	if err != nil {
		return nil, mapError(err)
	}
	images := make([]domain.Image, 0, len(response.Data))
	for _, item := range response.Data {
		if item.B64JSON == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return nil, &domain.UpstreamError{Service: "openai", Err: fmt.Errorf("decode image: %w", err)}
		}
		images = append(images, domain.Image{Data: data, MimeType: "image/png"})
	}
	return images, nil
}

func mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &domain.UpstreamError{Service: "openai", Status: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &domain.UpstreamError{Service: "openai", Status: reqErr.HTTPStatusCode, Err: err}
	}
	return &domain.UpstreamError{Service: "openai", Err: err}
}
