package announcer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "announcers.yaml")
	raw := `
announcers:
  - id: hook1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: hook2
    type: http
    enabled: true
    http:
      url: https://example.com/2
  - id: queue1
    type: sqs
    sqs:
      uri: https://sqs.example.com/q
      region: us-east-1
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 2 || enabled[0].ID != "hook2" || enabled[1].ID != "queue1" {
		t.Fatalf("unexpected enabled set %#v", enabled)
	}

	cfg, ok := reg.ByID("queue1")
	if !ok || cfg.SQS == nil || cfg.SQS.Region != "us-east-1" {
		t.Fatalf("ByID(queue1) = %#v ok=%v", cfg, ok)
	}
}

func TestValidateSinkConfigRejectsIncomplete(t *testing.T) {
	cases := []SinkConfig{
		{ID: "h1", Type: TypeHTTP},
		{ID: "q1", Type: TypeSQS, SQS: &SQSSinkConfig{QueueURL: "u"}},
		{ID: "t1", Type: TypeSNS, SNS: &SNSSinkConfig{Region: "r"}},
		{ID: "p1", Type: TypePubSub, PubSub: &PubSubSinkConfig{ProjectID: "p"}},
		{Type: TypeHTTP},
	}
	for _, cfg := range cases {
		if err := validateSinkConfig(cfg); err == nil {
			t.Errorf("expected validation error for %#v", cfg)
		}
	}
}

func TestSanitizeSinkConfigDefaults(t *testing.T) {
	cfg := sanitizeSinkConfig(SinkConfig{
		ID:   " hook ",
		Type: " HTTP ",
		HTTP: &HTTPSinkConfig{URL: " https://example.com ", Headers: map[string]string{" ": ""}},
	})
	if cfg.ID != "hook" || cfg.Type != TypeHTTP {
		t.Fatalf("sanitize id/type: %#v", cfg)
	}
	if cfg.HTTP.Method != "POST" || cfg.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("http defaults not applied: %#v", cfg.HTTP)
	}
	if cfg.HTTP.Headers != nil {
		t.Fatalf("empty headers should collapse to nil")
	}
	if !cfg.EnabledValue() {
		t.Fatalf("enabled should default to true")
	}
}
