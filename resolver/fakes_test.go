// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/jcodagnone/geoscope/gazetteer"
	"github.com/stretchr/testify/require"
)

const disambiguationMarker = "pick from the results list"

// scriptedEngine answers extraction and disambiguation prompts with the
// given functions and records every prompt it receives.
type scriptedEngine struct {
	extract func(prompt string) (string, error)
	pick    func(prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (e *scriptedEngine) Complete(_ context.Context, prompt string) (string, error) {
	e.mu.Lock()
	e.prompts = append(e.prompts, prompt)
	e.mu.Unlock()

	if strings.Contains(prompt, disambiguationMarker) {
		return e.pick(prompt)
	}

	return e.extract(prompt)
}

func (e *scriptedEngine) calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]string(nil), e.prompts...)
}

func replyWith(s string) func(string) (string, error) {
	return func(string) (string, error) { return s, nil }
}

// fakeGazetteer returns a fixed outcome and records the names it was asked for.
type fakeGazetteer struct {
	result *gazetteer.Result
	err    error

	mu    sync.Mutex
	names []string
}

func (g *fakeGazetteer) Lookup(_ context.Context, name string) (*gazetteer.Result, error) {
	g.mu.Lock()
	g.names = append(g.names, name)
	g.mu.Unlock()

	if g.err != nil {
		return nil, g.err
	}

	return g.result, nil
}

// promptResults decodes the "Results:" line of a disambiguation prompt.
func promptResults(t *testing.T, prompt string) gazetteer.Result {
	t.Helper()

	_, after, found := strings.Cut(prompt, "\nResults: ")
	require.True(t, found, "prompt has no results line")

	line, _, _ := strings.Cut(after, "\n")

	var res gazetteer.Result
	require.NoError(t, json.Unmarshal([]byte(line), &res))

	return res
}

// pickByType emulates an engine that prefers a candidate of the given type
// and falls back to the first one.
func pickByType(t *testing.T, wantType string) func(string) (string, error) {
	t.Helper()

	return func(prompt string) (string, error) {
		res := promptResults(t, prompt)
		if res.Failed() || len(res.Results) == 0 {
			return `{"result": "{}"}`, nil
		}

		chosen := res.Results[0]

		for _, c := range res.Results {
			if c.Type != nil && *c.Type == wantType {
				chosen = c

				break
			}
		}

		inner, err := json.Marshal(chosen)
		if err != nil {
			return "", err
		}

		outer, err := json.Marshal(Answer{Result: string(inner)})

		return string(outer), err
	}
}

func str(s string) *string {
	return &s
}
