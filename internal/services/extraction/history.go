package extraction

import (
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/repository"
	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/internal/schema"
)

// HistoryEntryFor flattens a result into a history row.
func HistoryEntryFor(res Result, procErr error) repository.HistoryEntry {
	out := res.Outcome
	e := repository.HistoryEntry{
		JobID:        res.JobID,
		SourceFile:   res.SourceFile,
		FileType:     res.FileType,
		SourceFormat: string(out.SourceFormat),
		Status:       string(out.Status),
		SHA256:       res.SHA256,
	}
	if out.TextStats != nil {
		e.CharacterCount = out.TextStats.CharacterCount
		e.WordCount = out.TextStats.WordCount
		e.Pages = out.TextStats.Pages
	}
	if c := out.Classification; c != nil {
		e.IsReferral = c.IsReferral
		e.Confidence = c.Confidence
		e.Score = c.Score
	}
	if out.ValidationWarning != nil {
		e.ValidationWarning = *out.ValidationWarning
	}
	if procErr != nil {
		e.ErrorMessage = procErr.Error()
	}
	e.PatientName, e.ReferralTo = headline(out.Record)
	return e
}

// headline pulls the patient name and referral destination from either a
// validated record or a partial map.
func headline(record any) (patient, referralTo string) {
	switch r := record.(type) {
	case *schema.ReferralRecord:
		return r.PatientName(), r.ReferralTo()
	case map[string]any:
		return nestedString(r, schema.GroupPatient, "full_name"), nestedString(r, schema.GroupReferral, "referral_to")
	}
	return "", ""
}

func nestedString(m map[string]any, group, key string) string {
	g, ok := m[group].(map[string]any)
	if !ok {
		return ""
	}
	s, _ := g[key].(string)
	return s
}
