// Package imageproc turns encoded images into model input tensors.
package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// Decode decodes a JPEG/PNG/GIF/BMP/TIFF image and applies its EXIF orientation
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Fit center-crops img to the target aspect ratio and scales it to width x height
func Fit(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	cropW, cropH := b.Dx(), b.Dy()
	if cropW*height > cropH*width {
		cropW = cropH * width / height
	} else {
		cropH = cropW * height / width
	}

	cropped := imaging.CropCenter(img, cropW, cropH)
	return resize.Resize(uint(width), uint(height), cropped, resize.Bilinear)
}

// PackRGB8 writes pixels row by row as interleaved R, G, B bytes
func PackRGB8(img image.Image) []byte {
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			out = append(out, byte(r>>8), byte(g>>8), byte(bl>>8))
		}
	}
	return out
}

// PackRGBFloat writes interleaved R, G, B values normalized as (v-mean)/std
func PackRGBFloat(img image.Image, mean, std float32) []float32 {
	raw := PackRGB8(img)
	out := make([]float32, len(raw))
	for i, v := range raw {
		out[i] = (float32(v) - mean) / std
	}
	return out
}

// PackCHW writes planar R, G and B channels scaled to [0,1]
func PackCHW(img image.Image) []float32 {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	plane := width * height
	out := make([]float32, 3*plane)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			i := y*width + x
			out[i] = float32(r) / 65535.0
			out[plane+i] = float32(g) / 65535.0
			out[2*plane+i] = float32(bl) / 65535.0
		}
	}
	return out
}

// Quantize maps probabilities to confidence bytes, clamping to [0,1] first
func Quantize(probs []float32) []byte {
	out := make([]byte, len(probs))
	for i, p := range probs {
		switch {
		case math.IsNaN(float64(p)) || p <= 0:
			out[i] = 0
		case p >= 1:
			out[i] = 255
		default:
			out[i] = byte(math.Round(float64(p) * 255))
		}
	}
	return out
}

// IsDistribution reports whether scores already look like probabilities
func IsDistribution(scores []float32) bool {
	var sum float64
	for _, s := range scores {
		if math.IsNaN(float64(s)) || s < 0 || s > 1 {
			return false
		}
		sum += float64(s)
	}
	return math.Abs(sum-1) < 1e-2
}

// Softmax converts logits to probabilities
func Softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return nil
	}

	maxLogit := logits[0]
	for _, l := range logits[1:] {
		if l > maxLogit {
			maxLogit = l
		}
	}

	out := make([]float32, len(logits))
	var sum float64
	for i, l := range logits {
		e := math.Exp(float64(l - maxLogit))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}
