package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Group and field names of the referral record.
const (
	GroupDocumentMeta     = "document_meta"
	GroupReferral         = "referral"
	GroupPatient          = "patient"
	GroupDiagnoses        = "diagnoses"
	GroupFunctionalStatus = "functional_status"
)

type fieldKind int

const (
	scalarField fieldKind = iota
	listField
)

type field struct {
	name string
	kind fieldKind
}

// requiredGroups are always objects after normalization, in this order.
var requiredGroups = []struct {
	name   string
	fields []field
}{
	{GroupPatient, []field{
		{"full_name", scalarField},
		{"phone", scalarField},
		{"date_of_birth", scalarField},
		{"gender", scalarField},
		{"address", scalarField},
		{"accompanied_by_care_provider", scalarField},
	}},
	{GroupReferral, []field{
		{"referral_to", scalarField},
		{"referral_focal_point", scalarField},
		{"referral_phone", scalarField},
		{"referral_location", scalarField},
		{"referral_email", scalarField},
		{"referring_from", scalarField},
		{"referring_focal_point", scalarField},
		{"referring_phone", scalarField},
		{"referring_location", scalarField},
		{"referring_email", scalarField},
	}},
	{GroupDiagnoses, []field{
		{"primary_diagnoses", listField},
		{"other_diagnoses", listField},
	}},
	{GroupDocumentMeta, []field{
		{"title", scalarField},
		{"date", scalarField},
		{"pages", scalarField},
	}},
}

var topLevelFields = []field{
	{"treatments", listField},
	{"transportation_needs", listField},
	{"follow_up_requirements", listField},
	{"reason_for_referral", scalarField},
	{"compiled_by", scalarField},
	{"position", scalarField},
	{"signature", scalarField},
	{"file_number", scalarField},
}

var functionalStatusFields = []field{
	{"mobility", scalarField},
	{"precautions", scalarField},
	{"self_care", scalarField},
	{"cognitive_impairment", scalarField},
	{"assistive_devices_provided", listField},
	{"assistive_devices_required", listField},
}

func nullableString() map[string]any { return map[string]any{"type": []any{"string", "null"}} }
func stringList() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

// Description returns the canonical referral schema. It is both the document
// shown to the model and the schema records are validated against; "format"
// keywords are descriptive only. Each call returns a fresh map.
func Description() map[string]any {
	date := nullableString()
	date["format"] = "date"
	dob := nullableString()
	dob["format"] = "date"

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			GroupDocumentMeta: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title": nullableString(),
					"date":  date,
					"pages": map[string]any{"type": []any{"integer", "null"}},
				},
				"required": []any{"title"},
			},
			GroupReferral: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"referral_to":           nullableString(),
					"referral_focal_point":  nullableString(),
					"referral_phone":        nullableString(),
					"referral_location":     nullableString(),
					"referral_email":        nullableString(),
					"referring_from":        nullableString(),
					"referring_focal_point": nullableString(),
					"referring_phone":       nullableString(),
					"referring_location":    nullableString(),
					"referring_email":       nullableString(),
				},
			},
			GroupPatient: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"full_name":                    nullableString(),
					"phone":                        nullableString(),
					"date_of_birth":                dob,
					"gender":                       nullableString(),
					"address":                      nullableString(),
					"accompanied_by_care_provider": map[string]any{"type": []any{"boolean", "null"}},
				},
			},
			GroupDiagnoses: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"primary_diagnoses": stringList(),
					"other_diagnoses":   stringList(),
				},
			},
			"treatments":             stringList(),
			"reason_for_referral":    nullableString(),
			"transportation_needs":   stringList(),
			"follow_up_requirements": stringList(),
			GroupFunctionalStatus: map[string]any{
				"type": []any{"object", "null"},
				"properties": map[string]any{
					"mobility":                   nullableString(),
					"precautions":                nullableString(),
					"self_care":                  nullableString(),
					"cognitive_impairment":       nullableString(),
					"assistive_devices_provided": stringList(),
					"assistive_devices_required": stringList(),
				},
			},
			"compiled_by": nullableString(),
			"signature":   nullableString(),
			"position":    nullableString(),
			"file_number": nullableString(),
		},
		"required": []any{GroupDocumentMeta, GroupReferral, GroupPatient},
	}
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func canonicalSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled, compileErr = compileSchema(Description())
	})
	return compiled, compileErr
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("referral.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	s, err := compiler.Compile("referral.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return s, nil
}

// Validate checks a decoded JSON value against the canonical schema.
func Validate(v any) error {
	s, err := canonicalSchema()
	if err != nil {
		return err
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
