package pixabay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aiornot-quiz-service/internal/domain"
)

func TestSearchReturnsPhotoURLs(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/" {
			http.NotFound(w, r)
			return
		}
		got = map[string]string{}
		for k := range r.URL.Query() {
			got[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"total": 3,
			"hits": []map[string]any{
				{"id": 1, "webformatURL": "https://cdn.pixabay.test/1.jpg"},
				{"id": 2, "webformatURL": ""},
				{"id": 3, "webformatURL": "https://cdn.pixabay.test/3.jpg"},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret", time.Second)
	urls, err := client.Search(context.Background(), "ice cream", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(urls) != 2 || urls[1] != "https://cdn.pixabay.test/3.jpg" {
		t.Fatalf("unexpected urls %v", urls)
	}
	if got["q"] != "ice cream" || got["per_page"] != "3" || got["image_type"] != "photo" || got["key"] != "secret" {
		t.Fatalf("unexpected query %v", got)
	}
}

func TestSearchClampsPerPage(t *testing.T) {
	var perPage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		perPage = r.URL.Query().Get("per_page")
		_, _ = w.Write([]byte(`{"total":0,"hits":[]}`))
	}))
	defer srv.Close()

	_, _ = NewClient(srv.URL, "k", time.Second).Search(context.Background(), "cat", 500)
	if perPage != "200" {
		t.Fatalf("expected per_page clamped to 200, got %s", perPage)
	}
}

func TestSearchMapsStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "[ERROR 400] Invalid or missing API key", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", time.Second).Search(context.Background(), "cat", 10)
	var up *domain.UpstreamError
	if !errors.As(err, &up) || up.Status != http.StatusBadRequest || up.Temporary() {
		t.Fatalf("expected permanent upstream error, got %v", err)
	}
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream")
	}
}
