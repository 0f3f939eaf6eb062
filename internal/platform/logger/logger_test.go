package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"authorization", "Bearer abc",
		"jwt_secret", "hunter2",
		"resource_id", int64(42),
	})
	if len(out) != 6 {
		t.Fatalf("unexpected length: %d", len(out))
	}
	if out[1] != "[REDACTED]" || out[3] != "[REDACTED]" {
		t.Fatalf("expected redaction, got %v", out)
	}
	if out[5] != int64(42) {
		t.Fatalf("expected passthrough for resource_id, got %v", out[5])
	}
}

func TestSanitizeKVsHashesUserIDs(t *testing.T) {
	out := sanitizeKVs([]interface{}{"owner_id", "5b0c2a5e-0000-4000-8000-000000000001"})
	got, _ := out[1].(string)
	if !strings.HasPrefix(got, "hash:") {
		t.Fatalf("expected hashed owner_id, got %q", got)
	}
	again := sanitizeKVs([]interface{}{"owner_id", "5b0c2a5e-0000-4000-8000-000000000001"})
	if again[1] != got {
		t.Fatalf("hash not stable: %v vs %v", again[1], got)
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	out := sanitizeKVs([]interface{}{"a", 1, "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output: %v", out)
	}
}

func TestSanitizeValueNestedMap(t *testing.T) {
	v := sanitizeValue("payload", map[string]interface{}{"api_key": "x", "name": "ok"})
	m, ok := v.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map, got %T", v)
	}
	if m["api_key"] != "[REDACTED]" || m["name"] != "ok" {
		t.Fatalf("unexpected nested sanitize: %v", m)
	}
}
