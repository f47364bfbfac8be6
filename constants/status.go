package constants

// OutcomeStatus is the canonical status of one pipeline run.
type OutcomeStatus string

// Stable values (stored as-is in extraction_history).
const (
	StatusCompleted            OutcomeStatus = "completed"              // record validated
	StatusCompletedWithWarning OutcomeStatus = "completed_with_warning" // partial record + validation_warning
	StatusInsufficientText     OutcomeStatus = "insufficient_text"      // text too short, extractor not invoked
	StatusSkippedNotReferral   OutcomeStatus = "skipped_not_referral"   // gated on classification
	StatusFailed               OutcomeStatus = "failed"                 // terminal stage failure
)
