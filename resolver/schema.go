// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// ErrSchemaViolation is matched by every SchemaViolationError.
var ErrSchemaViolation = errors.New("schema violation")

// Scale is the intended geographic granularity of a query.
type Scale string

const (
	ScaleLocal       Scale = "Local"
	ScaleCity        Scale = "City"
	ScaleRegional    Scale = "Regional"
	ScaleNational    Scale = "National"
	ScaleContinental Scale = "Continental"
	ScaleGlobal      Scale = "Global"
)

// Scales lists the recognized scales from finest to coarsest.
func Scales() []Scale {
	return []Scale{ScaleLocal, ScaleCity, ScaleRegional, ScaleNational, ScaleContinental, ScaleGlobal}
}

// Valid reports whether s is one of Scales.
func (s Scale) Valid() bool {
	for _, v := range Scales() {
		if s == v {
			return true
		}
	}

	return false
}

// SpatialRecord is the output of the extraction stage.
type SpatialRecord struct {
	OriginalQuery string `json:"original_query" jsonschema:"Get original query as prompted by the user"`
	Spatial       string `json:"spatial" jsonschema:"Get the spatial entity. Can be a location or place or a region"`
	Scale         Scale  `json:"scale" jsonschema:"Get the spatial scale"`
}

// Answer is the final output: Result holds a JSON encoded representation of
// the chosen candidate, as written by the engine.
type Answer struct {
	Result string `json:"result" jsonschema:"JSON representation of the parsed spatial entity"`
}

// SchemaViolationError reports engine output that does not conform to a stage schema.
type SchemaViolationError struct {
	Stage  string
	Reason string
	Raw    string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("%s: %s output: %s (raw: %.200q)", ErrSchemaViolation, e.Stage, e.Reason, e.Raw)
}

func (e *SchemaViolationError) Unwrap() error {
	return ErrSchemaViolation
}

// Schema is a resolved JSON schema plus the instructions shown to the engine.
type Schema struct {
	name     string
	schema   *jsonschema.Schema
	resolved *jsonschema.Resolved
}

func newSchema[T any](name string, customize func(*jsonschema.Schema)) (*Schema, error) {
	s, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, fmt.Errorf("inferring %s schema: %w", name, err)
	}

	// Extra keys are tolerated, engines like to add commentary fields.
	s.AdditionalProperties = nil

	if customize != nil {
		customize(s)
	}

	resolved, err := s.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolving %s schema: %w", name, err)
	}

	return &Schema{name: name, schema: s, resolved: resolved}, nil
}

// SpatialRecordSchema returns the extraction schema. With strictScale the
// scale field is restricted to Scales; otherwise any string is accepted.
func SpatialRecordSchema(strictScale bool) (*Schema, error) {
	return newSchema[SpatialRecord]("spatial record", func(s *jsonschema.Schema) {
		if !strictScale {
			return
		}

		if prop, ok := s.Properties["scale"]; ok {
			for _, v := range Scales() {
				prop.Enum = append(prop.Enum, string(v))
			}
		}
	})
}

// AnswerSchema returns the disambiguation schema.
func AnswerSchema() (*Schema, error) {
	return newSchema[Answer]("answer", nil)
}

// FormatInstructions renders the schema as instructions for the engine.
func (s *Schema) FormatInstructions() string {
	raw, err := json.Marshal(s.schema)
	if err != nil {
		// A schema built by newSchema always marshals.
		panic(fmt.Sprintf("marshaling %s schema: %v", s.name, err))
	}

	return "Respond with a single JSON object that is a valid instance of the JSON schema below. " +
		"Return the instance itself, not the schema, with no surrounding explanation.\n" +
		"For example, the schema {\"properties\": {\"foo\": {\"type\": \"string\"}}, \"required\": [\"foo\"]} " +
		"is satisfied by {\"foo\": \"bar\"}.\n\n" +
		"Output schema:\n```\n" + string(raw) + "\n```"
}

// Parse validates engine text against the schema and decodes it into out.
// Any failure is a *SchemaViolationError for stage.
func (s *Schema) Parse(stage, text string, out any) error {
	candidate, ok := extractJSONObject(text)
	if !ok {
		return &SchemaViolationError{Stage: stage, Reason: "no JSON object found", Raw: text}
	}

	var instance map[string]any
	if err := json.Unmarshal([]byte(candidate), &instance); err != nil {
		return &SchemaViolationError{Stage: stage, Reason: err.Error(), Raw: text}
	}

	if err := s.resolved.Validate(instance); err != nil {
		return &SchemaViolationError{Stage: stage, Reason: err.Error(), Raw: text}
	}

	if err := json.Unmarshal([]byte(candidate), out); err != nil {
		return &SchemaViolationError{Stage: stage, Reason: err.Error(), Raw: text}
	}

	return nil
}

// extractJSONObject finds the JSON object in engine text. It tries, in order:
// the whole text, a fenced code block, and the span from the first '{' to
// the last '}'.
func extractJSONObject(text string) (string, bool) {
	text = strings.TrimSpace(text)

	if isJSONObject(text) {
		return text, true
	}

	for _, fence := range []string{"```json", "```"} {
		if idx := strings.Index(text, fence); idx >= 0 {
			after := text[idx+len(fence):]
			if end := strings.Index(after, "```"); end >= 0 {
				block := strings.TrimSpace(after[:end])
				if isJSONObject(block) {
					return block, true
				}
			}
		}
	}

	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			block := text[start : end+1]
			if isJSONObject(block) {
				return block, true
			}
		}
	}

	return "", false
}

func isJSONObject(s string) bool {
	return strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}
