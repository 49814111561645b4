package ai

import (
	"testing"

	"globalchek/internal/domain/entity"
	domainerrors "globalchek/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n{\"a\":1}\n```  ", want: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.in))
		})
	}
}

func TestParseOCR(t *testing.T) {
	t.Run("normalises values", func(t *testing.T) {
		result, err := parseOCR("```json\n" + `{"firstName":" Ana ","lastName":"null","documentNumber":"","issuedDate":"2020-01-02","confidence":104.6}` + "\n```")
		require.NoError(t, err)
		require.NotNil(t, result.FirstName)
		assert.Equal(t, "Ana", *result.FirstName)
		assert.Nil(t, result.LastName)
		assert.Nil(t, result.DocumentNumber)
		assert.Equal(t, 100, result.Confidence)
		require.NotNil(t, result.IssuedDateTime())
	})

	t.Run("missing confidence is invalid", func(t *testing.T) {
		_, err := parseOCR(`{"firstName":"Ana"}`)
		assert.ErrorIs(t, err, domainerrors.ErrAIResponseInvalid)
	})

	t.Run("prose is invalid", func(t *testing.T) {
		_, err := parseOCR("I could not read the document.")
		assert.ErrorIs(t, err, domainerrors.ErrAIResponseInvalid)
	})

	t.Run("trailing data is invalid", func(t *testing.T) {
		_, err := parseOCR(`{"confidence":50} {"confidence":60}`)
		assert.ErrorIs(t, err, domainerrors.ErrAIResponseInvalid)
	})
}

func TestParseFraud(t *testing.T) {
	t.Run("clamps and normalises enums", func(t *testing.T) {
		result, err := parseFraud(`{"fraudScore":-12,"riskLevel":"low","recommendation":" approve ","explanation":"ok"}`)
		require.NoError(t, err)
		assert.Equal(t, 0, result.FraudScore)
		assert.Equal(t, entity.RiskLow, result.RiskLevel)
		assert.Equal(t, entity.RecommendApprove, result.Recommendation)
		assert.NotNil(t, result.Flags)
	})

	t.Run("unknown risk level is invalid", func(t *testing.T) {
		_, err := parseFraud(`{"fraudScore":20,"riskLevel":"SEVERE","recommendation":"REVIEW"}`)
		assert.ErrorIs(t, err, domainerrors.ErrAIResponseInvalid)
	})

	t.Run("missing score is invalid", func(t *testing.T) {
		_, err := parseFraud(`{"riskLevel":"LOW","recommendation":"APPROVE"}`)
		assert.ErrorIs(t, err, domainerrors.ErrAIResponseInvalid)
	})
}

func TestParseFace(t *testing.T) {
	t.Run("isMatch follows the threshold, not the model", func(t *testing.T) {
		result, err := parseFace(`{"matchScore":84.4,"isMatch":true,"recommendation":"APPROVE"}`, 85)
		require.NoError(t, err)
		assert.Equal(t, 84, result.MatchScore)
		assert.False(t, result.IsMatch)
	})

	t.Run("score at threshold matches", func(t *testing.T) {
		result, err := parseFace(`{"matchScore":85,"isMatch":false,"recommendation":"REVIEW"}`, 85)
		require.NoError(t, err)
		assert.True(t, result.IsMatch)
	})

	t.Run("unknown recommendation is invalid", func(t *testing.T) {
		_, err := parseFace(`{"matchScore":90,"recommendation":"MAYBE"}`, 85)
		assert.ErrorIs(t, err, domainerrors.ErrAIResponseInvalid)
	})
}
