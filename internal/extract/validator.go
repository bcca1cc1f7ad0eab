// Package extract turns unreliable model output and raw email bodies into
// structured SES listings. The validator enforces the JSON contract a
// generative call is asked to follow; the section parser is the rule-based
// fallback when that contract cannot be met.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Field names the extraction prompt asks the model to emit.
const (
	FieldDescription    = "案件内容"
	FieldRequiredSkills = "必須スキル"
	FieldOptionalSkills = "尚可スキル"
	FieldLocation       = "勤務地"
	FieldUnitPrice      = "単価"
)

// ErrNoJSONFound means the model output contained no JSON object or array.
var ErrNoJSONFound = errors.New("no JSON object found in model output")

// InvalidJSONError carries the offending span for diagnostics.
type InvalidJSONError struct {
	Output string
	Err    error
}

func (e *InvalidJSONError) Error() string {
	return fmt.Sprintf("model output is not valid JSON: %v", e.Err)
}

func (e *InvalidJSONError) Unwrap() error { return e.Err }

// MissingFieldError reports a required field absent from the parsed object.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required field %q missing from model output", e.Field)
}

// Listing is the per-listing output of the parsing stage, before it is
// attached to its source email and becomes a domain.ProjectRecord.
type Listing struct {
	Description    string
	RequiredSkills []string
	OptionalSkills []string
	Location       string
	UnitPrice      string
}

var requiredFields = []string{
	FieldDescription, FieldRequiredSkills, FieldLocation, FieldUnitPrice,
}

// Extract parses a single listing object out of raw model output.
// It is a pure transformation: no retries, no network.
func Extract(output string) (Listing, error) {
	v, err := decodeSpan(output)
	if err != nil {
		return Listing{}, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return Listing{}, &InvalidJSONError{Output: output, Err: errors.New("top-level value is not an object")}
	}
	return validateListing(obj)
}

// ExtractMany parses the multi-listing variant: a JSON array of listing
// objects, or a single object which is treated as a one-element batch.
func ExtractMany(output string) ([]Listing, error) {
	v, err := decodeSpan(output)
	if err != nil {
		return nil, err
	}

	switch t := v.(type) {
	case map[string]any:
		l, err := validateListing(t)
		if err != nil {
			return nil, err
		}
		return []Listing{l}, nil
	case []any:
		out := make([]Listing, 0, len(t))
		for _, e := range t {
			obj, ok := e.(map[string]any)
			if !ok {
				return nil, &InvalidJSONError{Output: output, Err: errors.New("array element is not an object")}
			}
			l, err := validateListing(obj)
			if err != nil {
				return nil, err
			}
			out = append(out, l)
		}
		return out, nil
	default:
		return nil, &InvalidJSONError{Output: output, Err: errors.New("top-level value is not an object or array")}
	}
}

// decodeSpan strips code fences, carves out the JSON-looking span, and
// decodes it, with one jsonrepair attempt before giving up.
func decodeSpan(output string) (any, error) {
	cleaned := stripFences(output)

	span, err := jsonSpan(cleaned)
	if err != nil {
		return nil, err
	}

	var v any
	if jerr := json.Unmarshal([]byte(span), &v); jerr == nil {
		return v, nil
	}

	repaired, rerr := jsonrepair.JSONRepair(span)
	if rerr != nil {
		return nil, &InvalidJSONError{Output: span, Err: rerr}
	}
	if jerr := json.Unmarshal([]byte(repaired), &v); jerr != nil {
		return nil, &InvalidJSONError{Output: span, Err: jerr}
	}
	return v, nil
}

func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// jsonSpan returns the greedy span from the first '{' or '[' to the
// matching last '}' or ']'.
func jsonSpan(s string) (string, error) {
	objStart := strings.IndexByte(s, '{')
	arrStart := strings.IndexByte(s, '[')

	start, open := objStart, byte('{')
	if start < 0 || (arrStart >= 0 && arrStart < start) {
		start, open = arrStart, '['
	}
	if start < 0 {
		return "", ErrNoJSONFound
	}

	closing := byte('}')
	if open == '[' {
		closing = ']'
	}
	end := strings.LastIndexByte(s, closing)
	if end <= start {
		return "", ErrNoJSONFound
	}
	return s[start : end+1], nil
}

func validateListing(obj map[string]any) (Listing, error) {
	for _, f := range requiredFields {
		if _, ok := obj[f]; !ok {
			return Listing{}, &MissingFieldError{Field: f}
		}
	}

	return Listing{
		Description:    asString(obj[FieldDescription]),
		RequiredSkills: asSkillList(obj[FieldRequiredSkills]),
		OptionalSkills: asSkillList(obj[FieldOptionalSkills]),
		Location:       strings.TrimSpace(asString(obj[FieldLocation])),
		UnitPrice:      strings.TrimSpace(asString(obj[FieldUnitPrice])),
	}, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// asSkillList coerces the two shapes models actually produce: a proper JSON
// array, or one comma-delimited string. Elements are trimmed, empties dropped.
func asSkillList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s := strings.TrimSpace(asString(e))
			if s == "" {
				continue
			}
			out = append(out, s)
		}
		return out
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		parts := strings.Split(t, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
		return out
	default:
		return nil
	}
}
