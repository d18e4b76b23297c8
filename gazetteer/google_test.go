// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

package gazetteer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jcodagnone/geoscope/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const franceGoogleResponse = `{
  "results": [
    {
      "address_components": [{"long_name": "France", "short_name": "FR", "types": ["country", "political"]}],
      "formatted_address": "France",
      "geometry": {"viewport": {"northeast": {"lat": 51.1, "lng": 9.6}, "southwest": {"lat": 41.3, "lng": -5.1}}},
      "types": ["country", "political"]
    },
    {
      "address_components": [
        {"long_name": "France", "types": ["route"]},
        {"long_name": "Lisbon", "types": ["locality", "political"]},
        {"long_name": "Portugal", "types": ["country", "political"]}
      ],
      "formatted_address": "R. France, Lisbon, Portugal",
      "geometry": {},
      "types": ["route"]
    },
    {"formatted_address": "Somewhere", "types": []}
  ],
  "status": "OK"
}`

func googleServer(t *testing.T, status int, body string) (*httptest.Server, *string) {
	t.Helper()

	var query string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery

		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	return srv, &query
}

func TestGoogleMapsLookup(t *testing.T) {
	srv, query := googleServer(t, http.StatusOK, franceGoogleResponse)

	g := NewGoogleMaps("secret", 0, "en", nil, nil)
	g.Endpoint = srv.URL

	res, err := g.Lookup(context.Background(), "France")
	require.NoError(t, err)
	require.False(t, res.Failed())
	require.Len(t, res.Results, 3)

	assert.Equal(t, "address=France&key=secret&language=en", *query)

	first := res.Results[0]
	assert.Equal(t, "France", *first.Name)
	assert.Equal(t, "France", first.Country)
	assert.Equal(t, "country", *first.Type)
	assert.JSONEq(t, `[-5.1, 51.1, 9.6, 41.3]`, string(first.Extent))

	bounds, err := first.Bounds()
	require.NoError(t, err)
	assert.InDelta(t, 46.2, bounds.Center().Lat, 1e-9)

	second := res.Results[1]
	assert.Equal(t, "France", *second.Name)
	assert.Equal(t, "Portugal", second.Country)
	assert.Equal(t, "route", *second.Type)
	assert.JSONEq(t, `null`, string(second.Extent))

	third := res.Results[2]
	assert.Equal(t, "Somewhere", *third.Name)
	assert.Equal(t, "None", third.Country)
	assert.Nil(t, third.Type)
}

func TestGoogleMapsLookupLimit(t *testing.T) {
	srv, _ := googleServer(t, http.StatusOK, franceGoogleResponse)

	g := NewGoogleMaps("k", 2, "", nil, nil)
	g.Endpoint = srv.URL

	res, err := g.Lookup(context.Background(), "France")
	require.NoError(t, err)
	assert.Len(t, res.Results, 2)
}

func TestGoogleMapsLookupStatuses(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantError string
	}{
		{"zero results", http.StatusOK, `{"results": [], "status": "ZERO_RESULTS"}`, ""},
		{"denied", http.StatusOK, `{"results": [], "status": "REQUEST_DENIED", "error_message": "bad key"}`, "Failed to query Google Maps: REQUEST_DENIED"},
		{"http failure", http.StatusInternalServerError, `boom`, "Failed to query Google Maps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := googleServer(t, tt.status, tt.body)

			g := NewGoogleMaps("k", 5, "", nil, nil)
			g.Endpoint = srv.URL

			res, err := g.Lookup(context.Background(), "Nowhere")
			require.NoError(t, err)
			assert.Equal(t, tt.wantError, res.Error)
			assert.Empty(t, res.Results)
		})
	}
}

func TestGoogleMapsTransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	g := NewGoogleMaps("super-secret-key", 5, "", nil, nil)
	g.Endpoint = endpoint

	_, err := g.Lookup(context.Background(), "France")
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.NotContains(t, err.Error(), "super-secret-key")
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	g, err := New(ctx, config.GazetteerConfig{Provider: "photon", Endpoint: "http://x", Limit: 3, Language: "de"}, nil, nil)
	require.NoError(t, err)

	p, ok := g.(*Photon)
	require.True(t, ok)
	assert.Equal(t, 3, p.Limit)
	assert.Equal(t, "de", p.Language)

	t.Setenv("GOOGLE_MAPS_API_KEY", "env-key")

	g, err = New(ctx, config.GazetteerConfig{Provider: "google", Limit: 5}, nil, nil)
	require.NoError(t, err)

	gm, ok := g.(*GoogleMaps)
	require.True(t, ok)
	assert.Equal(t, "env-key", gm.apiKey)

	_, err = New(ctx, config.GazetteerConfig{Provider: "atlas"}, nil, nil)
	require.Error(t, err)
}
