package service

// QRCodeService defines the interface for QR code generation
type QRCodeService interface {
	// GeneratePNG renders content as a PNG QR code.
	GeneratePNG(content string) ([]byte, error)

	// GenerateDataURL renders content as a data:image/png;base64 URL.
	GenerateDataURL(content string) (string, error)
}
