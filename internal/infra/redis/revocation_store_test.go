package redis

import (
	"context"
	"testing"
	"time"
)

func TestRevocationStoreExpires(t *testing.T) {
	mr, client := newClient(t)
	store := NewRevocationStore(client)
	ctx := context.Background()

	if err := store.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked, err := store.IsRevoked(ctx, "jti-1"); err != nil || !revoked {
		t.Fatalf("expected revoked, err=%v", err)
	}
	if revoked, _ := store.IsRevoked(ctx, "jti-2"); revoked {
		t.Fatalf("unknown token must not be revoked")
	}

	mr.FastForward(2 * time.Minute)
	if revoked, _ := store.IsRevoked(ctx, "jti-1"); revoked {
		t.Fatalf("revocation should lapse with the token")
	}

	if err := store.Revoke(ctx, "jti-3", time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("expired token revoke: %v", err)
	}
	if mr.Exists("auth:revoked:jti-3") {
		t.Fatalf("already expired token needs no entry")
	}
}
