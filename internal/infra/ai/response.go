package ai

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"globalchek/internal/domain/entity"
	domainerrors "globalchek/internal/domain/errors"

	"github.com/pkg/errors"
)

// Model output is untrusted. Everything below turns the raw completion text into
// a typed result or fails with ErrAIResponseInvalid.

type rawOCR struct {
	FirstName      *string  `json:"firstName"`
	LastName       *string  `json:"lastName"`
	DateOfBirth    *string  `json:"dateOfBirth"`
	Nationality    *string  `json:"nationality"`
	DocumentNumber *string  `json:"documentNumber"`
	IssuedDate     *string  `json:"issuedDate"`
	ExpiryDate     *string  `json:"expiryDate"`
	Gender         *string  `json:"gender"`
	PlaceOfBirth   *string  `json:"placeOfBirth"`
	IssuingCountry *string  `json:"issuingCountry"`
	MRZ            *string  `json:"mrz"`
	Confidence     *float64 `json:"confidence"`
}

type rawFraud struct {
	FraudScore     *float64 `json:"fraudScore"`
	RiskLevel      *string  `json:"riskLevel"`
	Flags          []string `json:"flags"`
	Recommendation *string  `json:"recommendation"`
	Explanation    string   `json:"explanation"`
	Confidence     *float64 `json:"confidence"`
}

type rawFace struct {
	MatchScore     *float64 `json:"matchScore"`
	IsMatch        *bool    `json:"isMatch"`
	Confidence     *float64 `json:"confidence"`
	Differences    []string `json:"differences"`
	Recommendation *string  `json:"recommendation"`
	Explanation    string   `json:"explanation"`
}

func invalidResponse(reason string) error {
	return errors.Wrap(domainerrors.ErrAIResponseInvalid, reason)
}

// stripFences removes a surrounding markdown code fence, with or without a language tag.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		content = content[idx+1:]
	} else {
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSpace(content)

	return strings.TrimSpace(strings.TrimSuffix(content, "```"))
}

// decodeObject decodes exactly one JSON object.
func decodeObject(content string, out any) error {
	body := stripFences(content)
	if body == "" {
		return invalidResponse("empty completion")
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	if err := dec.Decode(out); err != nil {
		return invalidResponse("completion is not a JSON object: " + err.Error())
	}
	if dec.More() {
		return invalidResponse("completion carries trailing data")
	}

	return nil
}

// clampScore rounds and clamps a score to 0..100.
func clampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}

	return int(math.Round(math.Max(0, math.Min(100, v))))
}

// cleanString trims a value and turns empty strings and the literal "null" into nil.
func cleanString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || strings.EqualFold(v, "null") {
		return nil
	}

	return &v
}

func parseRiskLevel(raw *string) (entity.RiskLevel, bool) {
	if raw == nil {
		return "", false
	}
	switch level := entity.RiskLevel(strings.ToUpper(strings.TrimSpace(*raw))); level {
	case entity.RiskLow, entity.RiskMedium, entity.RiskHigh, entity.RiskCritical:
		return level, true
	default:
		return "", false
	}
}

func parseRecommendation(raw *string) (entity.Recommendation, bool) {
	if raw == nil {
		return "", false
	}
	switch rec := entity.Recommendation(strings.ToUpper(strings.TrimSpace(*raw))); rec {
	case entity.RecommendApprove, entity.RecommendReview, entity.RecommendReject:
		return rec, true
	default:
		return "", false
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}

	return items
}

func parseOCR(content string) (*entity.OCRResult, error) {
	var raw rawOCR
	if err := decodeObject(content, &raw); err != nil {
		return nil, err
	}
	if raw.Confidence == nil {
		return nil, invalidResponse("ocr result misses confidence")
	}

	return &entity.OCRResult{
		FirstName:      cleanString(raw.FirstName),
		LastName:       cleanString(raw.LastName),
		DateOfBirth:    cleanString(raw.DateOfBirth),
		Nationality:    cleanString(raw.Nationality),
		DocumentNumber: cleanString(raw.DocumentNumber),
		IssuedDate:     cleanString(raw.IssuedDate),
		ExpiryDate:     cleanString(raw.ExpiryDate),
		Gender:         cleanString(raw.Gender),
		PlaceOfBirth:   cleanString(raw.PlaceOfBirth),
		IssuingCountry: cleanString(raw.IssuingCountry),
		MRZ:            cleanString(raw.MRZ),
		Confidence:     clampScore(*raw.Confidence),
	}, nil
}

func parseFraud(content string) (*entity.FraudAnalysis, error) {
	var raw rawFraud
	if err := decodeObject(content, &raw); err != nil {
		return nil, err
	}
	if raw.FraudScore == nil {
		return nil, invalidResponse("fraud result misses fraudScore")
	}
	risk, ok := parseRiskLevel(raw.RiskLevel)
	if !ok {
		return nil, invalidResponse("fraud result has an unknown riskLevel")
	}
	rec, ok := parseRecommendation(raw.Recommendation)
	if !ok {
		return nil, invalidResponse("fraud result has an unknown recommendation")
	}

	result := &entity.FraudAnalysis{
		FraudScore:     clampScore(*raw.FraudScore),
		RiskLevel:      risk,
		Flags:          nonNil(raw.Flags),
		Recommendation: rec,
		Explanation:    strings.TrimSpace(raw.Explanation),
	}
	if raw.Confidence != nil {
		result.Confidence = clampScore(*raw.Confidence)
	}

	return result, nil
}

// parseFace decodes a face comparison. The model's own isMatch is ignored and
// recomputed from the clamped score.
func parseFace(content string, threshold int) (*entity.FaceComparison, error) {
	var raw rawFace
	if err := decodeObject(content, &raw); err != nil {
		return nil, err
	}
	if raw.MatchScore == nil {
		return nil, invalidResponse("face result misses matchScore")
	}
	rec, ok := parseRecommendation(raw.Recommendation)
	if !ok {
		return nil, invalidResponse("face result has an unknown recommendation")
	}

	score := clampScore(*raw.MatchScore)
	result := &entity.FaceComparison{
		MatchScore:     score,
		IsMatch:        score >= threshold,
		Differences:    nonNil(raw.Differences),
		Recommendation: rec,
		Explanation:    strings.TrimSpace(raw.Explanation),
	}
	if raw.Confidence != nil {
		result.Confidence = clampScore(*raw.Confidence)
	}

	return result, nil
}
