package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVs(t *testing.T) {
	l := &Logger{redact: &redaction{enabled: true, salt: "pepper"}}
	got := l.sanitizeKVs([]interface{}{
		"password", "hunter2",
		"Email", "a@example.com",
		"owner_id", "1f0c",
		"token_hint", "abc",
		"project", "launch",
		"dangling",
	})
	want := map[string]func(interface{}) bool{
		"password":   func(v interface{}) bool { return v == "[REDACTED]" },
		"Email":      func(v interface{}) bool { return v == "[REDACTED]" },
		"owner_id":   func(v interface{}) bool { s, _ := v.(string); return strings.HasPrefix(s, "hash:") && len(s) == 17 },
		"token_hint": func(v interface{}) bool { return v == "[REDACTED]" },
		"project":    func(v interface{}) bool { return v == "launch" },
	}
	if len(got) != 11 {
		t.Fatalf("expected 11 entries (dangling key kept), got %d: %v", len(got), got)
	}
	for i := 0; i+1 < len(got); i += 2 {
		key := got[i].(string)
		check, ok := want[key]
		if !ok {
			t.Fatalf("unexpected key %q", key)
		}
		if !check(got[i+1]) {
			t.Fatalf("key %q sanitized to %v", key, got[i+1])
		}
	}
}

func TestSanitizeDisabled(t *testing.T) {
	l := &Logger{redact: &redaction{enabled: false}}
	got := l.sanitizeKVs([]interface{}{"password", "hunter2"})
	if got[1] != "hunter2" {
		t.Fatalf("redaction disabled should pass through, got %v", got[1])
	}
}

func TestHashIsSalted(t *testing.T) {
	a := (&redaction{salt: "a"}).hash("same")
	b := (&redaction{salt: "b"}).hash("same")
	if a == b {
		t.Fatalf("different salts should give different hashes")
	}
}

func TestJWTValuesRedacted(t *testing.T) {
	l := &Logger{redact: &redaction{enabled: true}}
	jwtLike := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig"
	got := l.sanitizeKVs([]interface{}{"header", jwtLike})
	if got[1] != "[REDACTED]" {
		t.Fatalf("jwt-looking value should be redacted, got %v", got[1])
	}
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"test", "development", "production"} {
		l, err := New(mode, WithLevel("info"), WithOutputPaths("stderr"))
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		l.With("component", "test").Info("hello", "k", "v")
	}
	if _, err := New("development", WithLevel("loud")); err == nil {
		t.Fatalf("expected error for bad level")
	}
}
