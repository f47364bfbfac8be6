package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/common"
)

type fakeCompleter struct {
	mu    sync.Mutex
	out   string
	err   error
	calls []CompletionRequest
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(_ context.Context, req CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.out, f.err
}

var testSchema = map[string]any{"type": "object", "properties": map[string]any{"title": map[string]any{"type": "string"}}}

func TestExtractBuildsPromptAndParses(t *testing.T) {
	fc := &fakeCompleter{out: "```json\n{\"title\": \"Referral\"}\n```"}
	e := NewExtractor(Config{}, fc, nil)

	v, err := e.Extract(context.Background(), "Referral to Dr. Smith", testSchema)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Referral"}, v)

	require.Len(t, fc.calls, 1)
	req := fc.calls[0]
	assert.Equal(t, SystemPrompt, req.System)
	assert.Equal(t, 2000, req.MaxTokens)
	assert.Equal(t, float32(0), req.Temperature)
	assert.True(t, strings.HasPrefix(req.User, "Analyze this document and extract medical referral information according to the schema below.\n\nSCHEMA:\n{\n  \"properties\": {"))
	assert.Contains(t, req.User, "\n\nDOCUMENT TEXT:\nReferral to Dr. Smith\n\n")
	assert.True(t, strings.HasSuffix(req.User, "Return ONLY the JSON output, no explanations."))
}

func TestExtractTruncatesInput(t *testing.T) {
	fc := &fakeCompleter{out: "{}"}
	e := NewExtractor(Config{MaxInputChars: 10}, fc, nil)

	_, err := e.Extract(context.Background(), "0123456789ABCDEF", testSchema)
	require.NoError(t, err)
	assert.Contains(t, fc.calls[0].User, "DOCUMENT TEXT:\n0123456789\n\n")
	assert.NotContains(t, fc.calls[0].User, "ABCDEF")
}

func TestExtractDefaultLimitIs8000Runes(t *testing.T) {
	fc := &fakeCompleter{out: "{}"}
	e := NewExtractor(Config{}, fc, nil)

	text := strings.Repeat("é", 8000) + "TAIL"
	_, err := e.Extract(context.Background(), text, testSchema)
	require.NoError(t, err)
	assert.NotContains(t, fc.calls[0].User, "TAIL")
	assert.Contains(t, fc.calls[0].User, strings.Repeat("é", 8000))
}

func TestExtractProviderErrorIsExtractionFailed(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("429 too many requests")}
	e := NewExtractor(Config{}, fc, nil)

	_, err := e.Extract(context.Background(), "text", testSchema)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrExtractionFailed))
	assert.Contains(t, err.Error(), "429")
}

func TestExtractMalformedOutput(t *testing.T) {
	fc := &fakeCompleter{out: "I'm sorry, I can't help with that."}
	e := NewExtractor(Config{}, fc, nil)

	_, err := e.Extract(context.Background(), "text", testSchema)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMalformedModelOutput))
	assert.False(t, errors.Is(err, common.ErrExtractionFailed))
}

func TestExtractStubModeSkipsModel(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("must not be called")}
	e := NewExtractor(Config{Mode: ModeStub}, fc, nil)

	v, err := e.Extract(context.Background(), "anything", testSchema)
	require.NoError(t, err)
	assert.Empty(t, fc.calls)

	m := v.(map[string]any)
	assert.Equal(t, "Unknown (stub)", m["document_meta"].(map[string]any)["title"])
	assert.Equal(t, map[string]any{}, m["functional_status"])
	assert.Nil(t, m["file_number"])
}

func TestExtractLiveWithoutCompleter(t *testing.T) {
	e := NewExtractor(Config{Mode: ModeLive}, nil, nil)
	_, err := e.Extract(context.Background(), "text", testSchema)
	assert.True(t, errors.Is(err, common.ErrExtractionFailed))
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode("")
	assert.True(t, ok)
	assert.Equal(t, ModeLive, m)

	m, ok = ParseMode("stub")
	assert.True(t, ok)
	assert.Equal(t, ModeStub, m)

	_, ok = ParseMode("skip")
	assert.False(t, ok)
}

func TestCachingCompleter(t *testing.T) {
	fc := &fakeCompleter{out: `{"a": 1}`}
	cc, err := NewCachingCompleter(fc, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, "fake", cc.Name())

	req := CompletionRequest{System: "s", User: "u", MaxTokens: 10}
	for i := 0; i < 3; i++ {
		out, err := cc.Complete(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, `{"a": 1}`, out)
	}
	assert.Len(t, fc.calls, 1)

	// field boundaries are part of the key
	_, err = cc.Complete(context.Background(), CompletionRequest{System: "su", User: "", MaxTokens: 10})
	require.NoError(t, err)
	assert.Len(t, fc.calls, 2)
	assert.Equal(t, 2, cc.Len())
}

func TestCachingCompleterDoesNotCacheErrors(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("boom")}
	cc, err := NewCachingCompleter(fc, 4, nil)
	require.NoError(t, err)

	_, err = cc.Complete(context.Background(), CompletionRequest{User: "u"})
	require.Error(t, err)
	_, err = cc.Complete(context.Background(), CompletionRequest{User: "u"})
	require.Error(t, err)
	assert.Len(t, fc.calls, 2)
	assert.Zero(t, cc.Len())
}

func TestNewCachingCompleterRejectsZeroSize(t *testing.T) {
	_, err := NewCachingCompleter(&fakeCompleter{}, 0, nil)
	assert.Error(t, err)
}
