// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"encoding/json"

	"github.com/jcodagnone/geoscope/gazetteer"
	"github.com/jcodagnone/geoscope/spatial"
	"github.com/jcodagnone/geoscope/utils/textutils"
)

// Match ties the engine's answer back to a gazetteer candidate.
type Match struct {
	Index     int                 `json:"index"`
	Candidate gazetteer.Candidate `json:"candidate"`
	Center    *spatial.Point      `json:"center,omitempty"`
	Cell      string              `json:"h3_cell,omitempty"`
}

type chosen struct {
	Name    *string `json:"name"`
	Country *string `json:"country"`
	Type    *string `json:"type"`
}

// MatchCandidate finds the candidate described by answer. Names are compared
// ignoring case and accents; country and type narrow the match only when the
// answer states them. It returns nil when the answer is not a JSON object
// with a name or nothing matches. The first matching candidate wins, which
// keeps the service's ranking as tie-break.
func MatchCandidate(answer *Answer, candidates []gazetteer.Candidate) *Match {
	if answer == nil {
		return nil
	}

	var c chosen
	if err := json.Unmarshal([]byte(answer.Result), &c); err != nil || c.Name == nil {
		return nil
	}

	for i, cand := range candidates {
		if cand.Name == nil || !textutils.EqualFold(*cand.Name, *c.Name) {
			continue
		}

		if c.Country != nil && !textutils.EqualFold(cand.Country, *c.Country) {
			continue
		}

		if c.Type != nil && (cand.Type == nil || !textutils.EqualFold(*cand.Type, *c.Type)) {
			continue
		}

		m := &Match{Index: i, Candidate: cand}

		if bounds, err := cand.Bounds(); err == nil && bounds != nil {
			center := bounds.Center()
			m.Center = &center

			if cell, err := center.Cell(spatial.DefaultCellResolution); err == nil {
				m.Cell = cell.String()
			}
		}

		return m
	}

	return nil
}
