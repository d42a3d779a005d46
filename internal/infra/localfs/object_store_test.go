package localfs

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPutAndList(t *testing.T) {
	store, err := NewObjectStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	keys, err := store.List(ctx, "generated/cat/")
	if err != nil || len(keys) != 0 {
		t.Fatalf("empty namespace: keys=%v err=%v", keys, err)
	}

	for _, k := range []string{"generated/cat/b.png", "generated/cat/a.png", "generated/catnip/c.png", "generated/rose/d.png"} {
		if err := store.Put(ctx, k, []byte(k), "image/png"); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	keys, err = store.List(ctx, "generated/cat/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 || keys[0] != "generated/cat/a.png" || keys[1] != "generated/cat/b.png" {
		t.Fatalf("unexpected keys %v", keys)
	}
	if got := store.PublicURL("generated/cat/a.png"); got != "http://localhost:8080/static/generated/cat/a.png" {
		t.Fatalf("unexpected url %s", got)
	}
}

func TestPutRejectsTraversal(t *testing.T) {
	store, _ := NewObjectStore(t.TempDir(), "")
	if err := store.Put(context.Background(), "../escape.png", []byte("x"), "image/png"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
}

func TestHandlerServesObjects(t *testing.T) {
	store, _ := NewObjectStore(t.TempDir(), "")
	_ = store.Put(context.Background(), "generated/cat/a.png", []byte("png-bytes"), "image/png")

	srv := httptest.NewServer(http.StripPrefix("/static/", store.Handler()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/static/generated/cat/a.png")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "png-bytes" {
		t.Fatalf("unexpected response %d %q", resp.StatusCode, body)
	}
}
