// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"fmt"

	"github.com/jcodagnone/geoscope/llm"
	"github.com/jcodagnone/geoscope/utils/logging"
)

// StageExtraction names the extraction stage in errors and logs.
const StageExtraction = "extraction"

// Extractor turns free text into a SpatialRecord with one engine call.
type Extractor struct {
	engine llm.Engine
	schema *Schema
	log    *logging.Logger
}

// NewExtractor builds an Extractor. With strictScale, out-of-set scales are
// schema violations.
func NewExtractor(engine llm.Engine, strictScale bool, log *logging.Logger) (*Extractor, error) {
	schema, err := SpatialRecordSchema(strictScale)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logging.Nop()
	}

	return &Extractor{engine: engine, schema: schema, log: log.With("stage", StageExtraction)}, nil
}

// Prompt renders the prompt Extract would send for query.
func (e *Extractor) Prompt(query string) (string, error) {
	return ExtractionPrompt(query, e.schema)
}

// Extract asks the engine for the spatial entity and scale in query. There
// is no retry: malformed output fails with a *SchemaViolationError.
func (e *Extractor) Extract(ctx context.Context, query string) (*SpatialRecord, error) {
	prompt, err := e.Prompt(query)
	if err != nil {
		return nil, err
	}

	text, err := e.engine.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("completing extraction prompt: %w", err)
	}

	var record SpatialRecord
	if err := e.schema.Parse(StageExtraction, text, &record); err != nil {
		return nil, err
	}

	// The record must carry the caller's text verbatim, whatever the engine echoed.
	if record.OriginalQuery != query {
		e.log.Debug("engine rewrote original query", "echoed", record.OriginalQuery, "query", query)
		record.OriginalQuery = query
	}

	if !record.Scale.Valid() {
		e.log.Warn("scale outside the known set", "scale", record.Scale, "query", query)
	}

	e.log.Debug("extracted", "query", query, "spatial", record.Spatial, "scale", record.Scale)

	return &record, nil
}
