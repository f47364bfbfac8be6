package classifier

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// Signal weights.
const (
	WeightStrong  = 10
	WeightPattern = 8
	WeightMedical = 2
	WeightAdmin   = 1
)

// Signal count keys reported in Result.SignalCounts.
const (
	SignalStrong  = "strong_keywords"
	SignalPattern = "pattern_matches"
	SignalMedical = "medical_keywords"
	SignalAdmin   = "admin_keywords"
)

var strongKeywords = []string{
	"referral",
	"referring",
	"referred to",
	"refer to",
	"transfer of care",
	"consultation request",
	"medical referral",
	"patient referral",
}

var medicalKeywords = []string{
	"patient",
	"diagnosis",
	"diagnoses",
	"treatment",
	"medical history",
	"symptoms",
	"condition",
	"physician",
	"doctor",
	"dr.",
	"md",
	"clinic",
	"hospital",
	"healthcare",
	"medical center",
}

var adminKeywords = []string{
	"phone",
	"fax",
	"email",
	"address",
	"contact",
	"appointment",
	"date of birth",
	"patient id",
	"file number",
	"medical record",
}

var structuralPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)referr(?:al|ing|ed)\s+(?:to|from)`),
	regexp.MustCompile(`(?i)to:\s*(?:dr\.|doctor|clinic|hospital)`),
	regexp.MustCompile(`(?i)from:\s*(?:dr\.|doctor|clinic|hospital)`),
	regexp.MustCompile(`(?i)reason\s+for\s+referral`),
	regexp.MustCompile(`(?i)referring\s+(?:physician|doctor)`),
	regexp.MustCompile(`(?i)consultation\s+request`),
}

// keywordSet is a list of literal keywords matched at word boundaries. A word
// character is any Unicode letter or digit, or '_', so "éreferral" does not
// contain "referral".
type keywordSet []*regexp.Regexp

func compileKeywords(words []string) keywordSet {
	out := make(keywordSet, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(regexp.QuoteMeta(w))
	}
	return out
}

// count returns the total number of non-overlapping bounded matches over all
// keywords. The scan resumes one rune after a match that fails a boundary.
func (ks keywordSet) count(lower string) int {
	n := 0
	for _, re := range ks {
		for start := 0; start <= len(lower); {
			loc := re.FindStringIndex(lower[start:])
			if loc == nil {
				break
			}
			from, to := start+loc[0], start+loc[1]
			if atBoundary(lower, from) && atBoundary(lower, to) {
				n++
				start = to
				continue
			}
			_, size := utf8.DecodeRuneInString(lower[from:])
			if size == 0 {
				break
			}
			start = from + size
		}
	}
	return n
}

// atBoundary reports whether a word boundary sits at byte offset i of s.
func atBoundary(s string, i int) bool {
	before, after := false, false
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:i])
		before = isWordRune(r)
	}
	if i < len(s) {
		r, _ := utf8.DecodeRuneInString(s[i:])
		after = isWordRune(r)
	}
	return before != after
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsNumber(r)
}

var (
	strongSet  = compileKeywords(strongKeywords)
	medicalSet = compileKeywords(medicalKeywords)
	adminSet   = compileKeywords(adminKeywords)
)
