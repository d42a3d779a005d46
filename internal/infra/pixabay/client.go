package pixabay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"aiornot-quiz-service/internal/domain"
)

const (
	DefaultBaseURL = "https://pixabay.com"
	minPerPage     = 3
	maxPerPage     = 200
)

// Client searches Pixabay for real photos to use as decoys.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type searchResponse struct {
	Total int `json:"total"`
	Hits  []struct {
		ID           int    `json:"id"`
		WebformatURL string `json:"webformatURL"`
	} `json:"hits"`
}

// Search returns up to perPage photo URLs for query. The API clamps perPage to [3, 200].
func (c *Client) Search(ctx context.Context, query string, perPage int) ([]string, error) {
	if perPage < minPerPage {
		perPage = minPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("q", query)
	q.Set("image_type", "photo")
	q.Set("safesearch", "true")
	q.Set("per_page", strconv.Itoa(perPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build pixabay request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.UpstreamError{Service: "pixabay", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &domain.UpstreamError{Service: "pixabay", Status: resp.StatusCode, Err: fmt.Errorf("%s", strings.TrimSpace(string(body)))}
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &domain.UpstreamError{Service: "pixabay", Err: fmt.Errorf("decode response: %w", err)}
	}
	urls := make([]string, 0, len(parsed.Hits))
	for _, hit := range parsed.Hits {
		if hit.WebformatURL != "" {
			urls = append(urls, hit.WebformatURL)
		}
	}
	return urls, nil
}
