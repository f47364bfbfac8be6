package llm

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
)

func TestRecoverJSONRoundTripsValidDocuments(t *testing.T) {
	values := []any{
		map[string]any{"patient": map[string]any{"full_name": "Jane {Doe}"}, "treatments": []any{"a", "b"}},
		[]any{json.Number("1"), "two", nil, true},
		"plain string",
		json.Number("42"),
		json.Number("-0.25"),
		map[string]any{"file_number": json.Number("9007199254740993")},
		false,
		nil,
		map[string]any{},
	}
	for _, v := range values {
		b, err := json.Marshal(v)
		require.NoError(t, err)

		got, err := RecoverJSON(string(b))
		require.NoError(t, err, string(b))
		assert.Equal(t, v, got)

		got, err = RecoverJSON("\n\t " + string(b) + "  \n")
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestRecoverJSONFromProse(t *testing.T) {
	raw := "Sure! Here is the extraction:\n```json\n{\"document_meta\": {\"title\": \"Referral\"},\n \"treatments\": []}\n```\nLet me know if you need more."
	got, err := RecoverJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"document_meta": map[string]any{"title": "Referral"},
		"treatments":    []any{},
	}, got)
}

func TestRecoverJSONArraySpan(t *testing.T) {
	got, err := RecoverJSON("The diagnoses are [\"asthma\", \"copd\"] as listed.")
	require.NoError(t, err)
	assert.Equal(t, []any{"asthma", "copd"}, got)
}

func TestRecoverJSONGreedySpanIsOnlyCandidate(t *testing.T) {
	// first { to last } spans both objects and is not valid JSON; no other
	// object candidate is tried, and the text has no array span.
	_, err := RecoverJSON(`first {"a": 1} then {"b": 2}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMalformedModelOutput))
}

func TestRecoverJSONFallsBackToArrayWhenObjectSpanFails(t *testing.T) {
	got, err := RecoverJSON(`{broken [1, 2] end}`)
	require.NoError(t, err)
	assert.Equal(t, []any{json.Number("1"), json.Number("2")}, got)
}

func TestRecoverJSONKeepsLargeIntegersExact(t *testing.T) {
	got, err := RecoverJSON(`Result: {"file_number": 9007199254740993, "pages": 2}`)
	require.NoError(t, err)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"file_number": 9007199254740993, "pages": 2}`, string(b))
	assert.Contains(t, string(b), "9007199254740993")
}

func TestRecoverJSONRejectsTrailingData(t *testing.T) {
	_, ok := decodeJSON(`{"a": 1} {"b": 2}`)
	assert.False(t, ok)
	_, ok = decodeJSON(`[1] trailing`)
	assert.False(t, ok)
	_, ok = decodeJSON(`{"a": 1}   `)
	assert.True(t, ok)
}

func TestRecoverJSONMalformedCarriesSample(t *testing.T) {
	raw := "   I could not find any referral information. " + strings.Repeat("x", 1000)
	_, err := RecoverJSON(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMalformedModelOutput))
	assert.Equal(t, common.CodeMalformedModelOutput, common.CodeOf(err))

	msg := err.Error()
	assert.Contains(t, msg, "Raw: I could not find")
	assert.NotContains(t, msg, strings.Repeat("x", 500), "sample is bounded")
}

func TestRecoverJSONEmpty(t *testing.T) {
	_, err := RecoverJSON("   ")
	assert.True(t, errors.Is(err, common.ErrMalformedModelOutput))
}

func TestTruncateCountsRunes(t *testing.T) {
	s, cut := Truncate("héllo wörld", 5)
	assert.True(t, cut)
	assert.Equal(t, "héllo", s)

	s, cut = Truncate("abc", 3)
	assert.False(t, cut)
	assert.Equal(t, "abc", s)

	s, cut = Truncate("abc", 0)
	assert.False(t, cut)
	assert.Equal(t, "abc", s)
}
