// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

// Package gazetteer looks up place names in a remote geocoding service and
// normalizes the hits into a fixed candidate shape.
package gazetteer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jcodagnone/geoscope/config"
	"github.com/jcodagnone/geoscope/spatial"
	"github.com/jcodagnone/geoscope/utils/logging"
)

// DefaultLimit is the page size requested from the remote service.
const DefaultLimit = 5

// Candidate is one normalized search hit.
type Candidate struct {
	Name *string `json:"name"`
	// Country is "None" when the service did not report one.
	Country string          `json:"country"`
	Type    *string         `json:"type"`
	Extent  json.RawMessage `json:"extent"`
}

// Bounds decodes Extent. It returns (nil, nil) when no extent was reported.
func (c Candidate) Bounds() (*spatial.Extent, error) {
	return spatial.ParseExtent(c.Extent)
}

// Result is the outcome of a lookup: either the ranked candidates or an
// in-band error message when the service answered with a failure status.
type Result struct {
	Results []Candidate
	Error   string
}

// Failed reports whether the lookup produced an in-band error.
func (r *Result) Failed() bool {
	return r.Error != ""
}

// MarshalJSON renders {"results": [...]} or {"error": "..."}.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Error})
	}

	results := r.Results
	if results == nil {
		results = []Candidate{}
	}

	return json.Marshal(struct {
		Results []Candidate `json:"results"`
	}{results})
}

// UnmarshalJSON accepts either form produced by MarshalJSON.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw struct {
		Results []Candidate `json:"results"`
		Error   string      `json:"error"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Results, r.Error = raw.Results, raw.Error

	return nil
}

// Gazetteer resolves a free-text place name into candidates. Non-success
// statuses are reported in Result.Error; transport failures are returned as
// errors wrapping ErrTransport.
type Gazetteer interface {
	Lookup(ctx context.Context, name string) (*Result, error)
}

// New builds the gazetteer selected by cfg.Provider.
func New(ctx context.Context, cfg config.GazetteerConfig, httpClient *http.Client, log *logging.Logger) (Gazetteer, error) {
	switch cfg.Provider {
	case "photon":
		return &Photon{
			Endpoint:   cfg.Endpoint,
			Limit:      cfg.Limit,
			Language:   cfg.Language,
			HTTPClient: httpClient,
			Log:        log,
		}, nil
	case "google":
		key, err := GoogleMapsAPIKey(ctx, log)
		if err != nil {
			return nil, err
		}

		return NewGoogleMaps(key, cfg.Limit, cfg.Language, httpClient, log), nil
	default:
		return nil, fmt.Errorf("unknown gazetteer provider %q", cfg.Provider)
	}
}

func strPtr(s string) *string {
	return &s
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}

	return s
}

func nopIfNil(log *logging.Logger) *logging.Logger {
	if log == nil {
		return logging.Nop()
	}

	return log
}

func clientOrDefault(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}

	return c
}
