package classifier

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const filler = "lorem ipsum dolor sit amet consectetur adipiscing elit sed eiusmod tempor"

func TestClassifyShortTextShortCircuits(t *testing.T) {
	c := Default()
	for _, txt := range []string{
		"",
		"referral referral referral",
		"   " + strings.Repeat("x", MinTextChars-1) + "\n\n\t",
		"Referred to Dr. Smith, transfer of care",
	} {
		res := c.Classify(txt)
		assert.False(t, res.IsReferral, txt)
		assert.Equal(t, 0, res.Score)
		assert.Equal(t, 0.0, res.Confidence)
		assert.Empty(t, res.SignalCounts)
		assert.Equal(t, "Insufficient text content", res.Reason)
	}
}

func TestClassifyReferralLetter(t *testing.T) {
	txt := "Referral to: Dr. Adams at City Hospital. Reason for referral: chest pain. Patient phone 555-1234."
	res := Default().Classify(txt)

	assert.Equal(t, map[string]int{
		SignalStrong:  2,
		SignalPattern: 3,
		SignalMedical: 2,
		SignalAdmin:   1,
	}, res.SignalCounts)
	assert.Equal(t, 49, res.Score)
	assert.True(t, res.IsReferral)
	assert.Equal(t, 0.98, res.Confidence)
	assert.Equal(t, "Document contains 2 strong referral indicators and meets classification thresholds", res.Reason)
}

func TestClassifyMedicalButNotReferral(t *testing.T) {
	txt := "The patient was seen at the clinic by the physician. Diagnosis and treatment discussed; symptoms improving; condition stable."
	res := Default().Classify(txt)

	assert.False(t, res.IsReferral)
	assert.Equal(t, 7, res.SignalCounts[SignalMedical])
	assert.Equal(t, 14, res.Score)
	assert.Equal(t, 0.28, res.Confidence)
	assert.Equal(t, "Document appears to be medical but lacks referral-specific language", res.Reason)
}

func TestClassifyStrongButInsufficientScore(t *testing.T) {
	res := New(1, 30).Classify("Please see referral note. " + filler)

	assert.False(t, res.IsReferral)
	assert.Equal(t, 1, res.SignalCounts[SignalStrong])
	assert.Equal(t, 10, res.Score)
	assert.Equal(t, 0.2, res.Confidence)
	assert.Equal(t, "Document has some referral keywords but insufficient overall score (10/30)", res.Reason)
}

func TestClassifyGenericNegative(t *testing.T) {
	res := Default().Classify(filler + " " + filler)
	assert.False(t, res.IsReferral)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, "Document does not appear to be a medical referral", res.Reason)
}

func TestKeywordsRespectWordBoundaries(t *testing.T) {
	res := Default().Classify("We preferred to wait; the mdx file and clinical notes follow. " + filler)

	assert.Equal(t, 0, res.SignalCounts[SignalStrong], "preferred to is not referred to")
	assert.Equal(t, 0, res.SignalCounts[SignalMedical], "mdx and clinical are not md and clinic")
	// the structural pattern has no leading boundary, so it still fires
	assert.Equal(t, 1, res.SignalCounts[SignalPattern])
}

func TestKeywordsUseUnicodeWordBoundaries(t *testing.T) {
	set := compileKeywords([]string{"referral", "fax", "dr."})

	assert.Equal(t, 0, set.count("éreferral and referralé"), "accented letters are word characters")
	assert.Equal(t, 2, set.count("(referral) referral"))
	assert.Equal(t, 3, set.count("fax fax,fax"))
	assert.Equal(t, 1, set.count("faxfax fax"))
	assert.Equal(t, 0, set.count("dr. adams"), "a keyword ending in '.' needs a word character after it")
	assert.Equal(t, 1, set.count("dr.adams"))
	assert.Equal(t, 1, set.count("ünd referral_ referral"), "'_' is a word character")
}

// Each unit hits a known set of signal families and nothing else.
const (
	unitStrong  = "transfer of care"
	unitPattern = "to: clinic" // one pattern match plus one medical keyword
	unitMedical = "symptoms"
	unitAdmin   = "fax"
)

func TestClassifyTwoGatesOverGeneratedSignals(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	c := Default()

	for i := 0; i < 500; i++ {
		s, p, m, a := rng.Intn(4), rng.Intn(4), rng.Intn(9), rng.Intn(11)

		var units []string
		for j := 0; j < s; j++ {
			units = append(units, unitStrong)
		}
		for j := 0; j < p; j++ {
			units = append(units, unitPattern)
		}
		for j := 0; j < m; j++ {
			units = append(units, unitMedical)
		}
		for j := 0; j < a; j++ {
			units = append(units, unitAdmin)
		}
		rng.Shuffle(len(units), func(x, y int) { units[x], units[y] = units[y], units[x] })
		txt := filler + " . " + strings.Join(units, " . ")

		res := c.Classify(txt)
		wantScore := s*WeightStrong + p*WeightPattern + (m+p)*WeightMedical + a*WeightAdmin

		require.Equal(t, s, res.SignalCounts[SignalStrong], txt)
		require.Equal(t, p, res.SignalCounts[SignalPattern], txt)
		require.Equal(t, m+p, res.SignalCounts[SignalMedical], txt)
		require.Equal(t, a, res.SignalCounts[SignalAdmin], txt)
		require.Equal(t, wantScore, res.Score, txt)
		require.Equal(t, s >= 1 && wantScore >= 10, res.IsReferral, txt)
		require.Equal(t, Confidence(wantScore, res.IsReferral), res.Confidence)
	}
}

func TestConfidenceBoundsAndMonotonic(t *testing.T) {
	for _, positive := range []bool{true, false} {
		prev := -1.0
		for score := 0; score <= 200; score++ {
			c := Confidence(score, positive)
			if positive {
				assert.LessOrEqual(t, c, 1.0)
			}
			assert.GreaterOrEqual(t, c, 0.0)
			assert.GreaterOrEqual(t, c, prev, "score %d", score)
			prev = c
		}
	}
	assert.Equal(t, 1.0, Confidence(75, true))
	assert.Equal(t, 1.5, Confidence(75, false), "negative branch is not capped")
}
