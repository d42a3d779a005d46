package memory

import (
	"context"
	"testing"
)

func TestObjectStoreListsByPrefix(t *testing.T) {
	ctx := context.Background()
	store := NewObjectStore("http://cdn.test/")

	_ = store.Put(ctx, "generated/cat/a.png", []byte{1}, "image/png")
	_ = store.Put(ctx, "generated/cat/b.png", []byte{2}, "image/png")
	_ = store.Put(ctx, "generated/catfish/c.png", []byte{3}, "image/png")

	keys, err := store.List(ctx, "generated/cat/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 || keys[0] != "generated/cat/a.png" || keys[1] != "generated/cat/b.png" {
		t.Fatalf("unexpected keys %v", keys)
	}
	if got := store.PublicURL("generated/cat/a.png"); got != "http://cdn.test/generated/cat/a.png" {
		t.Fatalf("unexpected url %s", got)
	}
}
