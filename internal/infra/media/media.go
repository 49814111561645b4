// Package media inspects uploaded guest artifacts: content sniffing, base64 payloads
// and signature images.
package media

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/jpeg" // register decoders for signature checks
	_ "image/png"
	"strings"

	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/util"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

// Accepted content types per artifact kind.
var (
	ImageTypes     = []string{"image/jpeg", "image/png", "image/webp"}
	VideoTypes     = []string{"video/webm", "video/mp4", "video/quicktime"}
	SignatureTypes = []string{"image/png", "image/jpeg", "image/webp"}
)

// inkAlphaThreshold and inkLumaThreshold decide whether a pixel was drawn on.
// Canvas exports are either transparent or white where nothing was drawn.
const (
	inkAlphaThreshold = 0x4000
	inkLumaThreshold  = 0xE000

	inkAlpha8 = inkAlphaThreshold >> 8
	inkLuma8  = inkLumaThreshold >> 8
)

// Artifact is an uploaded payload whose type was sniffed from its bytes.
type Artifact struct {
	Data        []byte
	ContentType string
	Extension   string
}

// Sniff detects the content type from the payload and checks it against allowed.
// Client supplied content types are never trusted.
func Sniff(field string, data []byte, allowed ...string) (*Artifact, error) {
	if len(data) == 0 {
		return nil, domainerrors.NewValidationError(domainerrors.FieldError{Path: field, Message: "file is empty"})
	}

	mtype := mimetype.Detect(data)
	if len(allowed) > 0 && !mimetype.EqualsAny(mtype.String(), allowed...) {
		return nil, domainerrors.NewValidationError(domainerrors.FieldError{
			Path:    field,
			Message: "unsupported file type " + mtype.String(),
		})
	}

	return &Artifact{
		Data:        data,
		ContentType: baseType(mtype.String()),
		Extension:   mtype.Extension(),
	}, nil
}

// DecodeBase64 accepts either a data URL or a bare base64 string.
func DecodeBase64(field, raw string) ([]byte, error) {
	payload := strings.TrimSpace(raw)
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 || !strings.Contains(payload[:idx], ";base64") {
			return nil, domainerrors.NewValidationError(domainerrors.FieldError{Path: field, Message: "malformed data URL"})
		}
		payload = payload[idx+1:]
	}
	if payload == "" {
		return nil, domainerrors.NewValidationError(domainerrors.FieldError{Path: field, Message: "image is required"})
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some canvas libraries drop the padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, domainerrors.NewValidationError(domainerrors.FieldError{Path: field, Message: "invalid base64 payload"})
		}
	}

	return data, nil
}

// DecodeImage sniffs and decodes a base64 image.
func DecodeImage(field, raw string) (*Artifact, error) {
	data, err := DecodeBase64(field, raw)
	if err != nil {
		return nil, err
	}

	return Sniff(field, data, ImageTypes...)
}

// Signature validates a signature export: it must decode as an image of at most
// maxPixels pixels and carry at least one inked pixel. A zero maxPixels disables the cap.
func Signature(field string, data []byte, maxPixels int64) (*Artifact, error) {
	artifact, err := Sniff(field, data, SignatureTypes...)
	if err != nil {
		return nil, err
	}

	// The header is read first so a small, highly compressed file cannot
	// expand into a huge bitmap.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, domainerrors.NewValidationError(domainerrors.FieldError{Path: field, Message: "signature image cannot be decoded"})
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, domainerrors.NewValidationError(domainerrors.FieldError{Path: field, Message: "signature image dimensions are too large"})
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domainerrors.NewValidationError(domainerrors.FieldError{Path: field, Message: "signature image cannot be decoded"})
	}
	if !HasInk(img) {
		return nil, domainerrors.NewValidationError(domainerrors.FieldError{Path: field, Message: "signature is empty"})
	}

	return artifact, nil
}

// HasInk reports whether at least one pixel is both visible and darker than paper.
// The decoders' concrete types are scanned on their pixel buffers.
func HasInk(img image.Image) bool {
	switch m := img.(type) {
	case nil:
		return false
	case *image.NRGBA:
		return scanRGBA(m.Pix, m.Stride, m.Rect, false)
	case *image.RGBA:
		return scanRGBA(m.Pix, m.Stride, m.Rect, true)
	case *image.Gray:
		return scanLuma(m.Pix, m.Stride, m.Rect)
	case *image.YCbCr:
		return scanLuma(m.Y, m.YStride, m.Rect)
	}

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			if a < inkAlphaThreshold {
				continue
			}
			// Colors are alpha premultiplied; un-premultiply before judging brightness.
			luma := uint64(299*r+587*g+114*b) / 1000 * 0xffff / uint64(a)
			if luma < inkLumaThreshold {
				return true
			}
		}
	}

	return false
}

// scanRGBA walks 8-bit RGBA rows. premultiplied is true for image.RGBA.
func scanRGBA(pix []byte, stride int, rect image.Rectangle, premultiplied bool) bool {
	width := rect.Dx() * 4
	for y := 0; y < rect.Dy(); y++ {
		row := pix[y*stride : y*stride+width]
		for i := 0; i < len(row); i += 4 {
			a := uint32(row[i+3])
			if a < inkAlpha8 {
				continue
			}
			luma := (299*uint32(row[i]) + 587*uint32(row[i+1]) + 114*uint32(row[i+2])) / 1000
			if premultiplied {
				luma = luma * 0xff / a
			}
			if luma < inkLuma8 {
				return true
			}
		}
	}

	return false
}

// scanLuma walks an opaque 8-bit luma plane.
func scanLuma(pix []byte, stride int, rect image.Rectangle) bool {
	width := rect.Dx()
	for y := 0; y < rect.Dy(); y++ {
		for _, v := range pix[y*stride : y*stride+width] {
			if v < inkLuma8 {
				return true
			}
		}
	}

	return false
}

// CheckSize rejects payloads above limit. A zero limit disables the check.
func CheckSize(field string, size, limit int64) error {
	if limit > 0 && size > limit {
		return domainerrors.NewValidationError(domainerrors.FieldError{
			Path:    field,
			Message: "file is too large, the limit is " + util.FormatBytes(limit),
		})
	}

	return nil
}

func baseType(contentType string) string {
	if idx := strings.IndexByte(contentType, ';'); idx >= 0 {
		return strings.TrimSpace(contentType[:idx])
	}

	return contentType
}
