package onnx

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mikey/image-classifier/internal/ports"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap/zaptest"
)

func TestImageShape(t *testing.T) {
	tests := []struct {
		name    string
		dims    ort.Shape
		want    ort.Shape
		wantErr bool
	}{
		{"fixed", ort.NewShape(1, 3, 48, 64), ort.NewShape(1, 3, 48, 64), false},
		{"dynamic batch", ort.NewShape(-1, 3, 112, 112), ort.NewShape(1, 3, 112, 112), false},
		{"dynamic spatial", ort.NewShape(-1, 3, -1, -1), ort.NewShape(1, 3, defaultSide, defaultSide), false},
		{"not 4d", ort.NewShape(1, 150528), nil, true},
		{"grayscale", ort.NewShape(1, 1, 48, 48), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := imageShape(tt.dims)
			if (err != nil) != tt.wantErr {
				t.Fatalf("imageShape(%v) error = %v, wantErr %v", tt.dims, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("imageShape(%v) = %v, want %v", tt.dims, got, tt.want)
			}
		})
	}
}

func TestScoreShape(t *testing.T) {
	tests := []struct {
		name    string
		dims    ort.Shape
		want    ort.Shape
		wantErr bool
	}{
		{"fixed", ort.NewShape(1, 1001), ort.NewShape(1, 1001), false},
		{"dynamic batch", ort.NewShape(-1, 7), ort.NewShape(1, 7), false},
		{"flat", ort.NewShape(10), ort.NewShape(10), false},
		{"dynamic labels", ort.NewShape(1, -1), nil, true},
		{"several rows", ort.NewShape(2, 10), nil, true},
		{"scalar", ort.Shape{}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scoreShape(tt.dims)
			if (err != nil) != tt.wantErr {
				t.Fatalf("scoreShape(%v) error = %v, wantErr %v", tt.dims, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("scoreShape(%v) = %v, want %v", tt.dims, got, tt.want)
			}
		})
	}
}

func TestLoadIsRegistered(t *testing.T) {
	loader, ok := ports.LookupBackend(ports.BackendONNX)
	if !ok {
		t.Fatal("onnx backend not registered")
	}

	// The model is checked before the runtime library is touched
	inf, err := loader(ports.BackendSettings{
		ModelPath: filepath.Join(t.TempDir(), "missing.onnx"),
	}, zaptest.NewLogger(t))
	if err == nil {
		t.Fatal("expected error for missing model")
	}
	if inf != nil {
		t.Errorf("inferencer = %v, want nil on error", inf)
	}
}
