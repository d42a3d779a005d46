package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSecretsAreRedacted(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core))

	log.With("component", "auth").Info("token revoked", "token", "abc.def.ghi", "user", "u1")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["token"] != "[REDACTED]" {
		t.Fatalf("expected token redacted, got %v", fields["token"])
	}
	if fields["user"] != "u1" || fields["component"] != "auth" {
		t.Fatalf("unexpected fields %v", fields)
	}
}
