package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

const warningPrefix = "Data validation had issues: "

// Result is the outcome of NormalizeAndValidate. Exactly one of Record and
// Partial is set; Warning is set together with Partial.
type Result struct {
	Record  *ReferralRecord
	Partial map[string]any
	Warning *string
}

// Value returns whichever of Record or Partial is set.
func (r Result) Value() any {
	if r.Record != nil {
		return r.Record
	}
	return r.Partial
}

// NormalizeAndValidate fills defaults into raw and validates the result
// against the canonical schema. Validation problems never fail the call; they
// come back as a warning next to the defaulted map. Values replaced by
// defaults because they had the wrong shape are warned about the same way.
func NormalizeAndValidate(raw any) Result {
	data, discarded := normalize(raw)

	var issues []string
	if len(discarded) > 0 {
		issues = append(issues, "replaced with defaults: "+strings.Join(discarded, "; "))
	}
	if err := Validate(data); err != nil {
		issues = append(issues, err.Error())
	}
	if len(issues) > 0 {
		msg := warningPrefix + strings.Join(issues, "; ")
		return Result{Partial: data, Warning: &msg}
	}

	rec, err := toRecord(data)
	if err != nil {
		msg := warningPrefix + err.Error()
		return Result{Partial: data, Warning: &msg}
	}
	return Result{Record: rec}
}

// Normalize returns a defaulted copy of raw. Present values are kept as they
// are, whatever their type; only missing keys and null lists are filled. A
// non-object raw value or required group is replaced by an empty object.
func Normalize(raw any) map[string]any {
	out, _ := normalize(raw)
	return out
}

// normalize also reports every present value it had to replace.
func normalize(raw any) (map[string]any, []string) {
	var discarded []string
	in, ok := raw.(map[string]any)
	if !ok {
		discarded = append(discarded, fmt.Sprintf("top-level value is %s, not an object", jsonKind(raw)))
		in = map[string]any{}
	}

	out := make(map[string]any, len(in)+len(topLevelFields)+len(requiredGroups)+1)
	for k, v := range in {
		out[k] = v
	}

	for _, g := range requiredGroups {
		v, present := out[g.name]
		group, ok := v.(map[string]any)
		if !ok {
			if present && v != nil {
				discarded = append(discarded, fmt.Sprintf("%s is %s, not an object", g.name, jsonKind(v)))
			}
			group = map[string]any{}
		}
		out[g.name] = fillFields(group, g.fields)
	}

	fillInto(out, topLevelFields)

	switch fs := out[GroupFunctionalStatus].(type) {
	case nil:
		out[GroupFunctionalStatus] = nil
	case map[string]any:
		out[GroupFunctionalStatus] = fillFields(fs, functionalStatusFields)
	}
	return out, discarded
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	}
	return "a number"
}

func fillFields(group map[string]any, fields []field) map[string]any {
	cp := make(map[string]any, len(group)+len(fields))
	for k, v := range group {
		cp[k] = v
	}
	fillInto(cp, fields)
	return cp
}

func fillInto(m map[string]any, fields []field) {
	for _, f := range fields {
		v, present := m[f.name]
		switch f.kind {
		case listField:
			if !present || v == nil {
				m[f.name] = []any{}
			}
		case scalarField:
			if !present {
				m[f.name] = nil
			}
		}
	}
}

func toRecord(data map[string]any) (*ReferralRecord, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var rec ReferralRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}
