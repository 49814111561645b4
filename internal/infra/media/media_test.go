package media

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	domainerrors "globalchek/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func blankCanvas(w, h int) *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, w, h))
}

func TestHasInk(t *testing.T) {
	t.Run("transparent canvas has no ink", func(t *testing.T) {
		assert.False(t, HasInk(blankCanvas(20, 10)))
	})

	t.Run("white canvas has no ink", func(t *testing.T) {
		img := blankCanvas(20, 10)
		for x := 0; x < 20; x++ {
			for y := 0; y < 10; y++ {
				img.Set(x, y, color.White)
			}
		}
		assert.False(t, HasInk(img))
	})

	t.Run("one dark stroke pixel is ink", func(t *testing.T) {
		img := blankCanvas(20, 10)
		img.Set(4, 5, color.NRGBA{R: 10, G: 10, B: 40, A: 255})
		assert.True(t, HasInk(img))
	})
}

func TestHasInk_DecodedTypes(t *testing.T) {
	rect := image.Rect(0, 0, 16, 8)

	tests := []struct {
		name string
		img  func(inked bool) image.Image
	}{
		{
			name: "opaque rgba",
			img: func(inked bool) image.Image {
				img := image.NewRGBA(rect)
				for i := range img.Pix {
					img.Pix[i] = 0xff
				}
				if inked {
					img.SetRGBA(7, 2, color.RGBA{R: 20, G: 20, B: 20, A: 255})
				}

				return img
			},
		},
		{
			name: "premultiplied faint stroke on transparent rgba",
			img: func(inked bool) image.Image {
				img := image.NewRGBA(rect)
				if inked {
					// A half transparent black pixel is still ink.
					img.SetRGBA(1, 1, color.RGBA{A: 0x80})
				}

				return img
			},
		},
		{
			name: "gray",
			img: func(inked bool) image.Image {
				img := image.NewGray(rect)
				for i := range img.Pix {
					img.Pix[i] = 0xff
				}
				if inked {
					img.SetGray(15, 7, color.Gray{Y: 0x30})
				}

				return img
			},
		},
		{
			name: "jpeg ycbcr",
			img: func(inked bool) image.Image {
				img := image.NewYCbCr(rect, image.YCbCrSubsampleRatio420)
				for i := range img.Y {
					img.Y[i] = 0xff
				}
				if inked {
					img.Y[img.YOffset(3, 4)] = 0x10
				}

				return img
			},
		},
		{
			name: "paletted falls back to At",
			img: func(inked bool) image.Image {
				img := image.NewPaletted(rect, color.Palette{color.White, color.Black})
				if inked {
					img.SetColorIndex(2, 2, 1)
				}

				return img
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, HasInk(tt.img(false)))
			assert.True(t, HasInk(tt.img(true)))
		})
	}
}

func TestHasInk_SubImage(t *testing.T) {
	img := blankCanvas(20, 20)
	img.Set(2, 2, color.Black)

	assert.True(t, HasInk(img.SubImage(image.Rect(0, 0, 10, 10))))
	assert.False(t, HasInk(img.SubImage(image.Rect(10, 10, 20, 20))))
}

func TestSignature(t *testing.T) {
	t.Run("empty canvas is rejected", func(t *testing.T) {
		_, err := Signature("signature", encodePNG(t, blankCanvas(30, 30)), 0)
		require.Error(t, err)
		assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
	})

	t.Run("drawn canvas round trips through a data URL", func(t *testing.T) {
		img := blankCanvas(30, 30)
		for x := 5; x < 25; x++ {
			img.Set(x, 15, color.Black)
		}
		dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(encodePNG(t, img))

		raw, err := DecodeBase64("signature", dataURL)
		require.NoError(t, err)
		artifact, err := Signature("signature", raw, 30*30)
		require.NoError(t, err)
		assert.Equal(t, "image/png", artifact.ContentType)
		assert.Equal(t, ".png", artifact.Extension)
	})

	t.Run("dimensions over the cap are rejected before decoding", func(t *testing.T) {
		// A white 4000x4000 PNG compresses to a few kilobytes.
		img := image.NewGray(image.Rect(0, 0, 4000, 4000))
		for i := range img.Pix {
			img.Pix[i] = 0xff
		}
		data := encodePNG(t, img)
		require.Less(t, len(data), 1<<20)

		_, err := Signature("signature", data, 1024*1024)
		var validationErr *domainerrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "signature image dimensions are too large", validationErr.Fields()[0].Message)
	})

	t.Run("non image is rejected", func(t *testing.T) {
		_, err := Signature("signature", []byte("hello world, not an image"), 0)
		assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
	})
}

func TestSniff(t *testing.T) {
	pngData := encodePNG(t, blankCanvas(2, 2))

	artifact, err := Sniff("documentFront", pngData, ImageTypes...)
	require.NoError(t, err)
	assert.Equal(t, "image/png", artifact.ContentType)

	_, err = Sniff("videoSelfie", pngData, VideoTypes...)
	var validationErr *domainerrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "videoSelfie", validationErr.Fields()[0].Path)

	_, err = Sniff("documentFront", nil, ImageTypes...)
	assert.Error(t, err)
}

func TestDecodeBase64(t *testing.T) {
	want := []byte("payload")

	got, err := DecodeBase64("f", base64.StdEncoding.EncodeToString(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = DecodeBase64("f", base64.RawStdEncoding.EncodeToString(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = DecodeBase64("f", "data:image/png,notbase64")
	assert.Error(t, err)

	_, err = DecodeBase64("f", "%%%")
	assert.Error(t, err)
}

func TestCheckSize(t *testing.T) {
	assert.NoError(t, CheckSize("f", 10, 0))
	assert.NoError(t, CheckSize("f", 10, 10))

	err := CheckSize("f", 11<<20, 10<<20)
	var validationErr *domainerrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "file is too large, the limit is 10.0 MB", validationErr.Fields()[0].Message)
}
