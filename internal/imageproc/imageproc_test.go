package imageproc

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"reflect"
	"testing"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
)

// stripes builds a w x h image whose columns are colored by cols(x)
func stripes(w, h int, cols func(x int) color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, cols(x))
		}
	}
	return img
}

func TestDecode(t *testing.T) {
	src := stripes(3, 2, func(int) color.NRGBA { return green })

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode: %v", err)
	}

	img, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Errorf("bounds = %v, want 3x2", img.Bounds())
	}

	if _, err := Decode([]byte("not an image")); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestFitCropsCenter(t *testing.T) {
	src := stripes(4, 2, func(x int) color.NRGBA {
		switch x {
		case 0:
			return red
		case 3:
			return blue
		default:
			return green
		}
	})

	got := Fit(src, 2, 2)
	if got.Bounds().Dx() != 2 || got.Bounds().Dy() != 2 {
		t.Fatalf("bounds = %v, want 2x2", got.Bounds())
	}

	want := bytes.Repeat([]byte{0, 255, 0}, 4)
	if packed := PackRGB8(got); !bytes.Equal(packed, want) {
		t.Errorf("center crop = %v, want only green pixels", packed)
	}
}

func TestFitScales(t *testing.T) {
	src := stripes(64, 48, func(int) color.NRGBA { return red })

	got := Fit(src, 16, 16)
	if got.Bounds().Dx() != 16 || got.Bounds().Dy() != 16 {
		t.Errorf("bounds = %v, want 16x16", got.Bounds())
	}
}

func TestPackRGB8(t *testing.T) {
	src := stripes(2, 1, func(x int) color.NRGBA {
		if x == 0 {
			return red
		}
		return blue
	})

	if got, want := PackRGB8(src), []byte{255, 0, 0, 0, 0, 255}; !bytes.Equal(got, want) {
		t.Errorf("PackRGB8 = %v, want %v", got, want)
	}
}

func TestPackRGBFloat(t *testing.T) {
	src := stripes(1, 1, func(int) color.NRGBA { return red })

	got := PackRGBFloat(src, 127.5, 127.5)
	want := []float32{1, -1, -1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PackRGBFloat = %v, want %v", got, want)
	}
}

func TestPackCHW(t *testing.T) {
	src := stripes(2, 1, func(x int) color.NRGBA {
		if x == 0 {
			return red
		}
		return blue
	})

	got := PackCHW(src)
	want := []float32{1, 0, 0, 0, 0, 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PackCHW = %v, want %v", got, want)
	}
}

func TestQuantize(t *testing.T) {
	got := Quantize([]float32{-0.5, 0, 0.5, 1, 2, float32(math.NaN()), 0.2})
	want := []byte{0, 0, 128, 255, 255, 0, 51}
	if !bytes.Equal(got, want) {
		t.Errorf("Quantize = %v, want %v", got, want)
	}
}

func TestIsDistribution(t *testing.T) {
	tests := []struct {
		name   string
		scores []float32
		want   bool
	}{
		{"probabilities", []float32{0.7, 0.2, 0.1}, true},
		{"logits", []float32{2.5, -1, 0.3}, false},
		{"does not sum to one", []float32{0.2, 0.2}, false},
		{"nan", []float32{float32(math.NaN()), 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDistribution(tt.scores); got != tt.want {
				t.Errorf("IsDistribution(%v) = %v, want %v", tt.scores, got, tt.want)
			}
		})
	}
}

func TestSoftmax(t *testing.T) {
	got := Softmax([]float32{1, 1, 1, 1})
	for i, p := range got {
		if math.Abs(float64(p)-0.25) > 1e-6 {
			t.Errorf("Softmax[%d] = %v, want 0.25", i, p)
		}
	}

	got = Softmax([]float32{10, 0})
	if got[0] <= got[1] || !IsDistribution(got) {
		t.Errorf("Softmax(10, 0) = %v", got)
	}

	if Softmax(nil) != nil {
		t.Error("Softmax(nil) should be nil")
	}
}
