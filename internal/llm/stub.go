package llm

// StubRecord is what stub mode returns instead of calling a model.
func StubRecord() map[string]any {
	return map[string]any{
		"document_meta": map[string]any{"title": "Unknown (stub)", "date": nil, "pages": 1.0},
		"referral":      map[string]any{},
		"patient":       map[string]any{},
		"diagnoses": map[string]any{
			"primary_diagnoses": []any{},
			"other_diagnoses":   []any{},
		},
		"treatments":             []any{},
		"reason_for_referral":    nil,
		"transportation_needs":   []any{},
		"follow_up_requirements": []any{},
		"functional_status":      map[string]any{},
		"compiled_by":            nil,
		"signature":              nil,
		"position":               nil,
		"file_number":            nil,
	}
}
