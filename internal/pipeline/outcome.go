package pipeline

import (
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/constants"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/classifier"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/textextract"
)

// ExtractionOutcome is the result of one Process call and the JSON returned to
// clients. Record is a *schema.ReferralRecord, a defaulted map when validation
// failed, or nil when extraction never ran. Classification is null on the
// wire only when the file could not be read.
type ExtractionOutcome struct {
	Status            constants.OutcomeStatus `json:"status"`
	SourceFormat      constants.SourceFormat  `json:"source_format,omitempty"`
	TextStats         *textextract.TextStats  `json:"text_stats,omitempty"`
	Classification    *classifier.Result      `json:"classification"`
	Record            any                     `json:"record"`
	ValidationWarning *string                 `json:"validation_warning"`
}

// IsReferral reports the classifier verdict, false when classification did not run.
func (o ExtractionOutcome) IsReferral() bool {
	return o.Classification != nil && o.Classification.IsReferral
}
