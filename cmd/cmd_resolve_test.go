// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jcodagnone/geoscope/gazetteer"
	"github.com/jcodagnone/geoscope/llm"
	"github.com/jcodagnone/geoscope/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGazetteer struct{}

func (stubGazetteer) Lookup(_ context.Context, name string) (*gazetteer.Result, error) {
	return &gazetteer.Result{Results: []gazetteer.Candidate{{Name: &name, Country: "Uruguay"}}}, nil
}

// echoEngine extracts the last prompt line as the spatial entity and picks
// the first candidate. Queries starting with "fail" get a non JSON reply.
func echoEngine() llm.Engine {
	return llm.EngineFunc(func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "pick from the results list") {
			return `{"result": "{\"name\": \"first\"}"}`, nil
		}

		lines := strings.Split(strings.TrimRight(prompt, "\n"), "\n")
		q := lines[len(lines)-1]

		if strings.HasPrefix(q, "fail") {
			return "no idea", nil
		}

		return fmt.Sprintf(`{"original_query": %q, "spatial": %q, "scale": "City"}`, q, q), nil
	})
}

func TestReadQueries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.txt")
	require.NoError(t, os.WriteFile(path, []byte("Montevideo\n\n  Salto  \n\t\nRivera"), 0o600))

	queries, err := readQueries(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Montevideo", "Salto", "Rivera"}, queries)

	_, err = readQueries(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestResolveBatchKeepsInputOrder(t *testing.T) {
	r, err := resolver.New(echoEngine(), stubGazetteer{})
	require.NoError(t, err)

	queries := make([]string, 0, 20)
	for i := range 20 {
		queries = append(queries, fmt.Sprintf("city %02d", i))
	}

	var out bytes.Buffer
	require.NoError(t, resolveBatch(context.Background(), r, queries, &resolveOptions{MaxProcs: 4, Report: true}, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, len(queries))

	for i, line := range lines {
		var res resolver.Resolution
		require.NoError(t, json.Unmarshal([]byte(line), &res))
		assert.Equal(t, queries[i], res.Record.OriginalQuery)
		assert.Equal(t, queries[i], res.Record.Spatial)
	}
}

func TestResolveBatchReportsFailures(t *testing.T) {
	r, err := resolver.New(echoEngine(), stubGazetteer{})
	require.NoError(t, err)

	var out bytes.Buffer
	err = resolveBatch(context.Background(), r, []string{"Montevideo", "fail here", "Salto"}, &resolveOptions{MaxProcs: 2}, &out)
	require.Error(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)

	assert.JSONEq(t, `{"result": "{\"name\": \"first\"}"}`, lines[0])
	assert.JSONEq(t, `{"result": "{\"name\": \"first\"}"}`, lines[2])

	var failure batchFailure
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &failure))
	assert.Equal(t, "fail here", failure.Query)
	assert.Contains(t, failure.Error, "schema violation")
}
