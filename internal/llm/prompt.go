package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SystemPrompt frames the model as a referral extractor.
const SystemPrompt = `You are a medical document analysis expert specialized in extracting referral information.

Your task is to analyze medical documents and extract structured referral information.

IMPORTANT RULES:
1. Return ONLY valid JSON matching the provided schema
2. Extract information ONLY if it's clearly present in the document
3. Use null for missing scalar values
4. Use [] for missing arrays
5. For document_meta.title: If no clear title, use "Medical Referral Form" or best guess
6. Focus on REFERRAL-SPECIFIC information (referring doctor to another doctor/facility)
7. If the document is NOT a medical referral, still extract any relevant medical information present

Medical referral documents typically contain:
- Referral source (referring facility/doctor)
- Referral destination (where patient is being referred to)
- Patient information
- Reason for referral
- Diagnoses and treatments
- Contact information for both facilities
`

// BuildUserPrompt renders the schema as indented JSON followed by the document text.
func BuildUserPrompt(text string, schemaDesc any) (string, error) {
	sb, err := json.MarshalIndent(schemaDesc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode schema: %w", err)
	}

	var b strings.Builder
	b.WriteString("Analyze this document and extract medical referral information according to the schema below.\n\n")
	b.WriteString("SCHEMA:\n")
	b.Write(sb)
	b.WriteString("\n\nDOCUMENT TEXT:\n")
	b.WriteString(text)
	b.WriteString("\n\nReturn ONLY the JSON output, no explanations.")
	return b.String(), nil
}

// Truncate keeps at most n runes of s and reports whether anything was cut.
func Truncate(s string, n int) (string, bool) {
	if n <= 0 {
		return s, false
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], true
		}
		i++
	}
	return s, false
}
