package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	cls := cfg.GetClassifier()
	if cls.Backend != "tflite" {
		t.Errorf("backend = %q, want tflite", cls.Backend)
	}
	if cls.TopK != 3 {
		t.Errorf("top_k = %d, want 3", cls.TopK)
	}
	if cls.Threshold != 0.4 {
		t.Errorf("threshold = %v, want 0.4", cls.Threshold)
	}

	rep, err := cfg.GetReporter()
	if err != nil {
		t.Fatalf("GetReporter: %v", err)
	}
	if rep.Type != "http" {
		t.Errorf("reporter type = %q, want http", rep.Type)
	}
	if rep.Timeout != 10*time.Second {
		t.Errorf("reporter timeout = %v, want 10s", rep.Timeout)
	}
	if rep.Workers <= 0 || rep.QueueSize <= 0 {
		t.Errorf("reporter pool = %d workers / %d queue, want positive", rep.Workers, rep.QueueSize)
	}

	cache, err := cfg.GetCache()
	if err != nil {
		t.Fatalf("GetCache: %v", err)
	}
	if !cache.Enabled || cache.Type != "memory" || cache.TTL != 24*time.Hour {
		t.Errorf("cache = %+v, want enabled memory cache with 24h ttl", cache)
	}

	capture, err := cfg.GetCapture()
	if err != nil {
		t.Fatalf("GetCapture: %v", err)
	}
	if capture.SettleDelay != 500*time.Millisecond {
		t.Errorf("settle delay = %v, want 500ms", capture.SettleDelay)
	}
	if len(capture.Extensions) != 3 {
		t.Errorf("extensions = %v, want 3 entries", capture.Extensions)
	}
	if capture.SMTP.MaxMessageBytes != 30*1024*1024 || capture.SMTP.Timeout != 30*time.Second {
		t.Errorf("smtp capture = %+v", capture.SMTP)
	}
}

func TestInvalidDuration(t *testing.T) {
	v := NewEmptyViper()
	v.Set("reporter.timeout", "soon")

	if _, err := NewFromViper(v).GetReporter(); err == nil {
		t.Fatal("expected error for invalid reporter timeout")
	}
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
classifier:
  backend: onnx
  threshold: 0.55
reporter:
  type: none
  workers: 2
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile: %v", err)
	}

	cls := cfg.GetClassifier()
	if cls.Backend != "onnx" || cls.Threshold != 0.55 {
		t.Errorf("classifier = %+v, want onnx with threshold 0.55", cls)
	}
	if cls.TopK != 3 {
		t.Errorf("top_k = %d, default should survive", cls.TopK)
	}

	rep, err := cfg.GetReporter()
	if err != nil {
		t.Fatalf("GetReporter: %v", err)
	}
	if rep.Type != "none" || rep.Workers != 2 {
		t.Errorf("reporter = %+v, want none with 2 workers", rep)
	}
}

func TestNewFromFileMissing(t *testing.T) {
	if _, err := NewFromFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
