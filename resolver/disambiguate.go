// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"fmt"

	"github.com/jcodagnone/geoscope/gazetteer"
	"github.com/jcodagnone/geoscope/llm"
	"github.com/jcodagnone/geoscope/utils/logging"
)

// StageDisambiguation names the disambiguation stage in errors and logs.
const StageDisambiguation = "disambiguation"

// CandidateSet bundles the lookup outcome with the query context it is judged against.
type CandidateSet struct {
	OriginalQuery string           `json:"original_query"`
	Scale         Scale            `json:"scale"`
	Results       gazetteer.Result `json:"results"`
}

// Degraded reports whether the lookup failed and the engine only sees the error text.
func (s *CandidateSet) Degraded() bool {
	return s.Results.Failed()
}

// Disambiguator picks one candidate with one engine call. The choice itself
// is left to the engine; country and type are only hinted in the prompt.
type Disambiguator struct {
	engine llm.Engine
	schema *Schema
	log    *logging.Logger
}

// NewDisambiguator builds a Disambiguator.
func NewDisambiguator(engine llm.Engine, log *logging.Logger) (*Disambiguator, error) {
	schema, err := AnswerSchema()
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logging.Nop()
	}

	return &Disambiguator{engine: engine, schema: schema, log: log.With("stage", StageDisambiguation)}, nil
}

// Prompt renders the prompt Disambiguate would send for set.
func (d *Disambiguator) Prompt(set *CandidateSet) (string, error) {
	return DisambiguationPrompt(set, d.schema)
}

// Disambiguate returns the engine's choice. A failed lookup is not special
// cased: the engine is still asked and its answer is still validated.
func (d *Disambiguator) Disambiguate(ctx context.Context, set *CandidateSet) (*Answer, error) {
	if set.Degraded() {
		d.log.Warn("disambiguating without candidates", "query", set.OriginalQuery, "lookup_error", set.Results.Error)
	}

	prompt, err := d.Prompt(set)
	if err != nil {
		return nil, err
	}

	text, err := d.engine.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("completing disambiguation prompt: %w", err)
	}

	var answer Answer
	if err := d.schema.Parse(StageDisambiguation, text, &answer); err != nil {
		return nil, err
	}

	d.log.Debug("disambiguated", "query", set.OriginalQuery, "candidates", len(set.Results.Results), "result", answer.Result)

	return &answer, nil
}
