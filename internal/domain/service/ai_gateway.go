package service

import (
	"context"

	"globalchek/internal/domain/entity"
)

// Image is an image payload sent to the AI provider.
type Image struct {
	Data     []byte
	MIMEType string
}

// AIGateway wraps the vision model calls. Every result has been schema checked
// and clamped before it is returned; callers may persist it as is.
type AIGateway interface {
	// ExtractDocumentData reads the identity fields of a document image.
	ExtractDocumentData(ctx context.Context, document Image, documentType entity.DocumentType) (*entity.OCRResult, error)

	// DetectFraud scores the document for tampering, using the OCR output as context.
	DetectFraud(ctx context.Context, document Image, ocr *entity.OCRResult) (*entity.FraudAnalysis, error)

	// CompareFaces compares the portrait on the document with a selfie.
	CompareFaces(ctx context.Context, document, selfie Image) (*entity.FaceComparison, error)
}
