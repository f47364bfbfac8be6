package llm

import "context"

// CompletionRequest is a single system+user chat turn.
type CompletionRequest struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
}

// Completer is the generative model collaborator. Implementations return the
// model's raw text; parsing is the Extractor's job.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Name() string
}

// Mode selects between calling a model and returning the fixed stub.
type Mode string

const (
	ModeLive Mode = "live"
	ModeStub Mode = "stub"
)

// ParseMode maps a config value to a Mode. Empty means live.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "", ModeLive:
		return ModeLive, true
	case ModeStub:
		return ModeStub, true
	}
	return "", false
}
