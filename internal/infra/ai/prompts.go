package ai

import (
	"encoding/json"
	"fmt"

	"globalchek/internal/domain/entity"
)

// Token limits and temperatures per operation.
const (
	ocrMaxTokens   = 1000
	ocrTemperature = 0.1

	fraudMaxTokens   = 800
	fraudTemperature = 0.2

	faceMaxTokens   = 600
	faceTemperature = 0.1
)

func ocrPrompt(documentType entity.DocumentType) string {
	return fmt.Sprintf(`You are an expert OCR system for identity documents. Analyze this %s image and extract ALL relevant information in a structured JSON format.

Extract the following information:
- firstName: First name
- lastName: Last name
- dateOfBirth: Date of birth (ISO format)
- nationality: Nationality/Country
- documentNumber: Document/Passport number
- issuedDate: Issue date (ISO format)
- expiryDate: Expiry date (ISO format)
- gender: Gender (M/F/Other)
- placeOfBirth: Place of birth (if available)
- issuingCountry: Country that issued the document
- mrz: Machine Readable Zone text (if visible)

IMPORTANT:
- Return ONLY valid JSON, no markdown formatting
- Use null for missing fields
- Be extremely accurate with dates and numbers
- Double-check all extracted data

Return the data in this exact JSON structure:
{
  "firstName": "string or null",
  "lastName": "string or null",
  "dateOfBirth": "YYYY-MM-DD or null",
  "nationality": "string or null",
  "documentNumber": "string or null",
  "issuedDate": "YYYY-MM-DD or null",
  "expiryDate": "YYYY-MM-DD or null",
  "gender": "M/F/Other or null",
  "placeOfBirth": "string or null",
  "issuingCountry": "string or null",
  "mrz": "string or null",
  "confidence": 0-100
}`, documentType)
}

func fraudPrompt(ocr *entity.OCRResult) (string, error) {
	ocrJSON, err := json.MarshalIndent(ocr, "", "  ")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`You are a fraud detection expert analyzing identity documents.

Examine this document image and the extracted OCR data, then assess the fraud risk.

OCR Data:
%s

Analyze for:
1. Image tampering or digital manipulation
2. Inconsistencies between visual and OCR data
3. Document quality and authenticity markers
4. Suspicious patterns or anomalies
5. Expiry date validity
6. Font and layout consistency

Return a JSON response with:
{
  "fraudScore": 0-100 (0=legitimate, 100=definitely fraud),
  "riskLevel": "LOW/MEDIUM/HIGH/CRITICAL",
  "flags": ["array of specific concerns found"],
  "recommendation": "APPROVE/REVIEW/REJECT",
  "explanation": "brief explanation of the assessment",
  "confidence": 0-100
}`, ocrJSON), nil
}

func facePrompt(threshold int) string {
	return fmt.Sprintf(`You are a biometric verification expert. Compare the face in the ID document photo with the selfie photo.

Analyze:
1. Facial feature matching (eyes, nose, mouth, ears)
2. Age consistency
3. Gender consistency
4. Any signs of photo substitution or deepfakes
5. Lighting and angle differences

Return a JSON response:
{
  "matchScore": 0-100 (0=different person, 100=same person),
  "isMatch": true/false,
  "confidence": 0-100,
  "differences": ["array of noted differences"],
  "recommendation": "APPROVE/REVIEW/REJECT",
  "explanation": "brief explanation"
}

Set isMatch to true only if matchScore >= %d.`, threshold)
}
