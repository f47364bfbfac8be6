package llm

import (
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
)

// maxRawSample is how much of an unparseable response is kept in the error.
const maxRawSample = 500

// Greedy: the first opening bracket through the last closing one.
var (
	objectSpan = regexp.MustCompile(`(?s)\{.*\}`)
	arraySpan  = regexp.MustCompile(`(?s)\[.*\]`)
)

// RecoverJSON parses a model response that should be JSON but may be wrapped
// in prose or code fences. It tries the whole trimmed response, then the first
// {...} span, then the first [...] span. Only the first match of each is tried.
func RecoverJSON(raw string) (any, error) {
	s := strings.TrimSpace(raw)

	if v, ok := decodeJSON(s); ok {
		return v, nil
	}
	if m := objectSpan.FindString(s); m != "" {
		if v, ok := decodeJSON(m); ok {
			return v, nil
		}
	}
	if m := arraySpan.FindString(s); m != "" {
		if v, ok := decodeJSON(m); ok {
			return v, nil
		}
	}
	return nil, common.MalformedModelOutputError(sample(s, maxRawSample))
}

// decodeJSON parses exactly one JSON value. Numbers stay json.Number so large
// integers survive unchanged.
func decodeJSON(s string) (any, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}
	return v, true
}

func sample(s string, n int) string {
	out, _ := Truncate(s, n)
	return out
}
