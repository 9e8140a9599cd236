// Package vision turns photos into classifier input and classifier output into labels.
package vision

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	InputSize = 224
	Channels  = 3
)

// TensorLen is the flat length of one [1,3,224,224] input tensor.
const TensorLen = Channels * InputSize * InputSize

// TensorShape is the NCHW shape the backbone expects.
var TensorShape = []int64{1, Channels, InputSize, InputSize}

// ImageNet statistics the backbone was pretrained with.
var (
	Mean = [Channels]float32{0.485, 0.456, 0.406}
	Std  = [Channels]float32{0.229, 0.224, 0.225}
)

var ErrInvalidImage = errors.New("invalid image")

// Decode reads JPEG, PNG, GIF or WebP bytes.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, format, nil
}

// DecodeAndPreprocess is Decode followed by Preprocess.
func DecodeAndPreprocess(r io.Reader) ([]float32, error) {
	img, _, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return Preprocess(img)
}

// Preprocess resizes img to 224x224 (Lanczos), drops any alpha or palette,
// scales to [0,1] and applies per-channel mean/std normalization.
// The result is planar CHW with a leading batch dimension of 1.
func Preprocess(img image.Image) ([]float32, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty bounds %v", ErrInvalidImage, b)
	}

	// imaging always hands back a non-premultiplied NRGBA anchored at (0,0).
	resized := imaging.Resize(img, InputSize, InputSize, imaging.Lanczos)

	const plane = InputSize * InputSize
	out := make([]float32, TensorLen)
	for y := 0; y < InputSize; y++ {
		row := resized.Pix[y*resized.Stride : y*resized.Stride+InputSize*4]
		for x := 0; x < InputSize; x++ {
			px := row[x*4 : x*4+3]
			i := y*InputSize + x
			for c := 0; c < Channels; c++ {
				v := float32(px[c]) / 255.0
				out[c*plane+i] = (v - Mean[c]) / Std[c]
			}
		}
	}
	return out, nil
}

// ValueRange returns the smallest and largest value Preprocess can emit for channel c.
func ValueRange(c int) (lo, hi float32) {
	return (0 - Mean[c]) / Std[c], (1 - Mean[c]) / Std[c]
}
