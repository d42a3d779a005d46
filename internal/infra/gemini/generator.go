package gemini

import (
	"context"
	"errors"
	"fmt"

	"aiornot-quiz-service/internal/domain"
	"google.golang.org/genai"
)

// DefaultModel is the image-capable Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash-image-preview"

type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint; empty uses the public Gemini API.
	BaseURL string
}

// Generator produces images with the Gemini API. One prompt may yield zero or more images.
type Generator struct {
	client *genai.Client
	model  string
}

func NewGenerator(ctx context.Context, cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Generator{client: client, model: model}, nil
}

// Generate returns every inline image part of the first candidate. Text parts are ignored.
func (g *Generator) Generate(ctx context.Context, prompt string) ([]domain.Image, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return nil, mapError(err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, nil
	}
	var images []domain.Image
	for _, part := range result.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		images = append(images, domain.Image{Data: part.InlineData.Data, MimeType: part.InlineData.MIMEType})
	}
	return images, nil
}

func (g *Generator) Model() string {
	return g.model
}

func mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &domain.UpstreamError{Service: "gemini", Status: apiErr.Code, Err: err}
	}
	return &domain.UpstreamError{Service: "gemini", Err: err}
}
