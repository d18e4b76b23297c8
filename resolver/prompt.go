// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

var extractionTemplate = template.Must(template.New("extraction").Parse(`You are an expert in geography and spatial data.
Your task is to extract from a query the spatial entity it refers to, such as a city, country, region or named place.
Also determine the spatial scale of the query, using exactly one of: {{.Scales}}.

Output: {{.FormatInstructions}}
{{.Query}}
`))

var disambiguationTemplate = template.Must(template.New("disambiguation").Parse(`You are an expert in geography and spatial data.
Your task is to pick from the results list the candidate that best matches the query.
If the query includes country information, take it into account in your selection.
Also consider the type of place. E.g. if the user asks for a 'river', pick a result of that type.

Put the chosen candidate, serialized as JSON, in the "result" field.
{{.FormatInstructions}}

**Simply output the result in JSON format without further explanations**

Also consider the scale: {{.Scale}}
Query: {{.OriginalQuery}}
Results: {{.Results}}
Output:`))

// ExtractionPrompt renders the extraction prompt for query.
func ExtractionPrompt(query string, schema *Schema) (string, error) {
	scales := make([]string, 0, len(Scales()))
	for _, s := range Scales() {
		scales = append(scales, fmt.Sprintf("%q", s))
	}

	var sb strings.Builder

	err := extractionTemplate.Execute(&sb, map[string]string{
		"Scales":             strings.Join(scales, ", "),
		"FormatInstructions": schema.FormatInstructions(),
		"Query":              query,
	})
	if err != nil {
		return "", fmt.Errorf("rendering extraction prompt: %w", err)
	}

	return sb.String(), nil
}

// DisambiguationPrompt renders the disambiguation prompt for set. A failed
// lookup shows up as its error object in the results line.
func DisambiguationPrompt(set *CandidateSet, schema *Schema) (string, error) {
	results, err := json.Marshal(set.Results)
	if err != nil {
		return "", fmt.Errorf("encoding candidates: %w", err)
	}

	var sb strings.Builder

	err = disambiguationTemplate.Execute(&sb, map[string]string{
		"FormatInstructions": schema.FormatInstructions(),
		"Scale":              string(set.Scale),
		"OriginalQuery":      set.OriginalQuery,
		"Results":            string(results),
	})
	if err != nil {
		return "", fmt.Errorf("rendering disambiguation prompt: %w", err)
	}

	return sb.String(), nil
}
