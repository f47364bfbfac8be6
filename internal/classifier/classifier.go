// Package classifier scores normalized text for referral language.
//
// Four signal families are counted with word-bounded matching: strong
// referral phrases, structural patterns, medical vocabulary and administrative
// vocabulary. A document is a referral only when both the strong-phrase gate
// and the total-score gate pass.
package classifier

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// MinTextChars is the trimmed length below which classification short-circuits.
const MinTextChars = 50

const confidenceScale = 50.0

// Result is the output of Classify.
type Result struct {
	IsReferral   bool           `json:"is_referral"`
	Confidence   float64        `json:"confidence"`
	Score        int            `json:"score"`
	SignalCounts map[string]int `json:"signal_counts"`
	Reason       string         `json:"reason"`
}

// Classifier holds the two gate thresholds. The zero value is not useful; use New.
type Classifier struct {
	StrongThreshold int
	TotalThreshold  int
}

func New(strongThreshold, totalThreshold int) *Classifier {
	return &Classifier{StrongThreshold: strongThreshold, TotalThreshold: totalThreshold}
}

// Default returns a classifier with the standard thresholds (1 strong, 10 total).
func Default() *Classifier { return New(1, 10) }

// Classify is pure and deterministic.
func (c *Classifier) Classify(text string) Result {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinTextChars {
		return Result{
			IsReferral:   false,
			Confidence:   0,
			Score:        0,
			SignalCounts: map[string]int{},
			Reason:       "Insufficient text content",
		}
	}

	lower := strings.ToLower(text)
	strong := strongSet.count(lower)
	medical := medicalSet.count(lower)
	admin := adminSet.count(lower)
	patterns := 0
	for _, re := range structuralPatterns {
		patterns += len(re.FindAllStringIndex(lower, -1))
	}

	score := strong*WeightStrong + patterns*WeightPattern + medical*WeightMedical + admin*WeightAdmin
	isReferral := strong >= c.StrongThreshold && score >= c.TotalThreshold

	return Result{
		IsReferral: isReferral,
		Confidence: Confidence(score, isReferral),
		Score:      score,
		SignalCounts: map[string]int{
			SignalStrong:  strong,
			SignalPattern: patterns,
			SignalMedical: medical,
			SignalAdmin:   admin,
		},
		Reason: c.reason(isReferral, strong, medical, score),
	}
}

// Confidence is score/50 capped at 1 on the positive branch and floored at 0
// on the negative branch, rounded to two decimals.
func Confidence(score int, isReferral bool) float64 {
	v := float64(score) / confidenceScale
	if isReferral {
		v = math.Min(v, 1)
	} else {
		v = math.Max(0, v)
	}
	return math.Round(v*100) / 100
}

func (c *Classifier) reason(isReferral bool, strong, medical, score int) string {
	switch {
	case isReferral:
		return fmt.Sprintf("Document contains %d strong referral indicators and meets classification thresholds", strong)
	case strong > 0:
		return fmt.Sprintf("Document has some referral keywords but insufficient overall score (%d/%d)", score, c.TotalThreshold)
	case medical > 5:
		return "Document appears to be medical but lacks referral-specific language"
	default:
		return "Document does not appear to be a medical referral"
	}
}
