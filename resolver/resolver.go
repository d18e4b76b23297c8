// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

// Package resolver turns a free-text query into one gazetteer entry in three
// stages: extraction of a spatial mention and scale, gazetteer lookup, and
// disambiguation among the candidates. Each stage feeds the next; there is
// no branching on intermediate content and no retry.
package resolver

import (
	"context"
	"fmt"

	"github.com/jcodagnone/geoscope/gazetteer"
	"github.com/jcodagnone/geoscope/llm"
	"github.com/jcodagnone/geoscope/utils/logging"
)

// State is a step of a resolution.
type State int

const (
	StateExtracting State = iota
	StateSearching
	StateDisambiguating
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateExtracting:
		return "extracting"
	case StateSearching:
		return "searching"
	case StateDisambiguating:
		return "disambiguating"
	case StateDone:
		return "done"
	default:
		return "failed"
	}
}

// ResolveError reports the state in which a resolution aborted.
type ResolveError struct {
	State State
	Err   error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolution failed while %s: %v", e.State, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Resolution is the full report of one query.
type Resolution struct {
	Record     SpatialRecord `json:"record"`
	Candidates CandidateSet  `json:"candidates"`
	Answer     Answer        `json:"answer"`
	Match      *Match        `json:"match,omitempty"`
	Degraded   bool          `json:"degraded"`
}

// Resolver sequences the three stages. It holds no per-query state and is
// safe for concurrent use as long as its engine and gazetteer are.
type Resolver struct {
	extractor     *Extractor
	gazetteer     gazetteer.Gazetteer
	disambiguator *Disambiguator
	log           *logging.Logger
}

type options struct {
	strictScale bool
	log         *logging.Logger
}

// Option configures a Resolver.
type Option func(*options)

// WithStrictScale rejects extraction output whose scale is not one of Scales.
func WithStrictScale(strict bool) Option {
	return func(o *options) { o.strictScale = strict }
}

// WithLogger sets the logger used by every stage.
func WithLogger(log *logging.Logger) Option {
	return func(o *options) { o.log = log }
}

// New builds a Resolver. The same engine serves both reasoning stages.
func New(engine llm.Engine, gz gazetteer.Gazetteer, opts ...Option) (*Resolver, error) {
	o := options{log: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	extractor, err := NewExtractor(engine, o.strictScale, o.log)
	if err != nil {
		return nil, err
	}

	disambiguator, err := NewDisambiguator(engine, o.log)
	if err != nil {
		return nil, err
	}

	return &Resolver{
		extractor:     extractor,
		gazetteer:     gz,
		disambiguator: disambiguator,
		log:           o.log,
	}, nil
}

// Extractor exposes the extraction stage on its own.
func (r *Resolver) Extractor() *Extractor {
	return r.extractor
}

// Resolve returns the chosen candidate for query.
func (r *Resolver) Resolve(ctx context.Context, query string) (*Answer, error) {
	res, err := r.Run(ctx, query)
	if err != nil {
		return nil, err
	}

	return &res.Answer, nil
}

// Run resolves query and reports every intermediate value. Any stage error
// aborts the run; there is no partial result.
func (r *Resolver) Run(ctx context.Context, query string) (*Resolution, error) {
	log := r.log.With("query", query)
	state := StateExtracting

	fail := func(err error) (*Resolution, error) {
		log.Debug("state", "state", StateFailed.String(), "failed_in", state.String(), "error", err)

		return nil, &ResolveError{State: state, Err: err}
	}

	log.Debug("state", "state", state.String())

	record, err := r.extractor.Extract(ctx, query)
	if err != nil {
		return fail(err)
	}

	state = StateSearching
	log.Debug("state", "state", state.String(), "spatial", record.Spatial)

	// An empty spatial value is looked up as-is.
	lookup, err := r.gazetteer.Lookup(ctx, record.Spatial)
	if err != nil {
		return fail(err)
	}

	set := CandidateSet{
		OriginalQuery: record.OriginalQuery,
		Scale:         record.Scale,
		Results:       *lookup,
	}

	state = StateDisambiguating
	log.Debug("state", "state", state.String(), "candidates", len(set.Results.Results), "degraded", set.Degraded())

	answer, err := r.disambiguator.Disambiguate(ctx, &set)
	if err != nil {
		return fail(err)
	}

	log.Debug("state", "state", StateDone.String())

	return &Resolution{
		Record:     *record,
		Candidates: set,
		Answer:     *answer,
		Match:      MatchCandidate(answer, set.Results.Results),
		Degraded:   set.Degraded(),
	}, nil
}

// Lookup runs only the gazetteer stage.
func (r *Resolver) Lookup(ctx context.Context, name string) (*gazetteer.Result, error) {
	return r.gazetteer.Lookup(ctx, name)
}
