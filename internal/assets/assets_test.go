package assets

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestReadLabels(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"plain", "cat\ndog\nfish\n", []string{"cat", "dog", "fish"}},
		{"no trailing newline", "cat\ndog", []string{"cat", "dog"}},
		{"crlf", "cat\r\ndog\r\n", []string{"cat", "dog"}},
		{"bom", "\xef\xbb\xbfcat\ndog\n", []string{"cat", "dog"}},
		{"trailing blanks", "cat\ndog\n\n\n", []string{"cat", "dog"}},
		{"interior blank kept", "background\n\ncat\n", []string{"background", "", "cat"}},
		{"nfc", "cafe\u0301\n", []string{"caf\u00e9"}},
	}

	for _, tt := range tests {
		path := writeFile(t, "labels.txt", []byte(tt.content))
		got, err := ReadLabels(path)
		if err != nil {
			t.Errorf("%s: ReadLabels: %v", tt.name, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestReadLabelsErrors(t *testing.T) {
	if _, err := ReadLabels(filepath.Join(t.TempDir(), "missing.txt")); !errors.Is(err, ErrLabels) {
		t.Errorf("missing file: err = %v, want ErrLabels", err)
	}

	empty := writeFile(t, "empty.txt", []byte("\n\n"))
	if _, err := ReadLabels(empty); !errors.Is(err, ErrLabels) {
		t.Errorf("empty file: err = %v, want ErrLabels", err)
	}
}

func TestMapModel(t *testing.T) {
	content := bytes.Repeat([]byte{0x54, 0x46, 0x4c, 0x33}, 1024)
	path := writeFile(t, "model.tflite", content)

	model, err := MapModel(path)
	if err != nil {
		t.Fatalf("MapModel: %v", err)
	}
	if !bytes.Equal(model.Bytes(), content) {
		t.Error("mapped bytes differ from file contents")
	}
	if model.Path() != path {
		t.Errorf("Path() = %q, want %q", model.Path(), path)
	}

	if err := model.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if model.Bytes() != nil {
		t.Error("Bytes() should be nil after Close")
	}
	if err := model.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestMapModelErrors(t *testing.T) {
	if _, err := MapModel(filepath.Join(t.TempDir(), "missing.tflite")); err == nil {
		t.Error("expected error for missing model")
	}

	empty := writeFile(t, "empty.tflite", nil)
	if _, err := MapModel(empty); err == nil {
		t.Error("expected error for empty model")
	}
}
