// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

package gazetteer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jcodagnone/geoscope/spatial"
	"github.com/jcodagnone/geoscope/utils/logging"
)

// GoogleMapsEndpoint is the Google Maps Geocoding API.
const GoogleMapsEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleMaps uses the Google Maps Geocoding API and normalizes its results
// into the same Candidate shape as Photon.
type GoogleMaps struct {
	Endpoint   string
	apiKey     string
	limit      int
	language   string
	httpClient *http.Client
	log        *logging.Logger
}

// NewGoogleMaps creates a new Google Maps gazetteer.
func NewGoogleMaps(apiKey string, limit int, language string, httpClient *http.Client, log *logging.Logger) *GoogleMaps {
	if limit <= 0 {
		limit = DefaultLimit
	}

	return &GoogleMaps{
		Endpoint:   GoogleMapsEndpoint,
		apiKey:     apiKey,
		limit:      limit,
		language:   language,
		httpClient: clientOrDefault(httpClient),
		log:        nopIfNil(log),
	}
}

type googleLatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type googleMapsResponse struct {
	Results []struct {
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Viewport *struct {
				Northeast googleLatLng `json:"northeast"`
				Southwest googleLatLng `json:"southwest"`
			} `json:"viewport"`
		} `json:"geometry"`
		Types []string `json:"types"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, etc.
	ErrorMessage string `json:"error_message"`
}

// Lookup implements Gazetteer.
func (g *GoogleMaps) Lookup(ctx context.Context, name string) (*Result, error) {
	params := url.Values{}
	params.Set("address", name)
	params.Set("key", g.apiKey)

	if g.language != "" {
		params.Set("language", g.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		// url.Error embeds the request URL, which carries the key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}

		return nil, ClassifyTransportError("google maps request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		classified := ClassifyHTTPError(resp.StatusCode)
		g.log.Warn("gazetteer lookup failed", "provider", "google", "name", name, "status", resp.StatusCode, "error_type", classified.Type.String())

		return &Result{Error: "Failed to query Google Maps"}, nil
	}

	var gmResp googleMapsResponse
	if err := json.NewDecoder(resp.Body).Decode(&gmResp); err != nil {
		return nil, &LookupError{Type: ErrorTypeUnknown, Message: "decoding google maps response", Err: err}
	}

	switch gmResp.Status {
	case "OK", "ZERO_RESULTS":
	default:
		g.log.Warn("gazetteer lookup failed", "provider", "google", "name", name, "google_status", gmResp.Status, "message", gmResp.ErrorMessage)

		return &Result{Error: "Failed to query Google Maps: " + gmResp.Status}, nil
	}

	candidates := make([]Candidate, 0, min(len(gmResp.Results), g.limit))

	for _, r := range gmResp.Results {
		if len(candidates) == g.limit {
			break
		}

		c := Candidate{Country: "None", Extent: json.RawMessage("null")}

		if len(r.AddressComponents) > 0 {
			c.Name = strPtr(r.AddressComponents[0].LongName)
		} else if r.FormattedAddress != "" {
			c.Name = strPtr(r.FormattedAddress)
		}

		for _, comp := range r.AddressComponents {
			for _, t := range comp.Types {
				if t == "country" {
					c.Country = orNone(comp.LongName)
				}
			}
		}

		if len(r.Types) > 0 {
			c.Type = strPtr(r.Types[0])
		}

		if vp := r.Geometry.Viewport; vp != nil {
			raw, err := json.Marshal(spatial.Extent{
				MinLng: vp.Southwest.Lng,
				MaxLat: vp.Northeast.Lat,
				MaxLng: vp.Northeast.Lng,
				MinLat: vp.Southwest.Lat,
			})
			if err != nil {
				return nil, fmt.Errorf("encoding viewport: %w", err)
			}

			c.Extent = raw
		}

		candidates = append(candidates, c)
	}

	g.log.Debug("gazetteer lookup", "provider", "google", "name", name, "candidates", len(candidates))

	return &Result{Results: candidates}, nil
}
