// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

package gazetteer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jcodagnone/geoscope/utils/logging"
)

// PhotonEndpoint is the public Photon (OpenStreetMap) search API.
const PhotonEndpoint = "https://photon.komoot.io/api"

// UnavailableMessage is the in-band error reported on a non-success status.
const UnavailableMessage = "Failed to query Nominatim"

// Photon queries a Photon geocoder. One request per lookup, no retries.
type Photon struct {
	Endpoint   string
	Limit      int
	Language   string
	HTTPClient *http.Client
	Log        *logging.Logger
}

type photonResponse struct {
	Features []struct {
		Properties struct {
			Name    *string         `json:"name"`
			Country *string         `json:"country"`
			Type    *string         `json:"type"`
			Extent  json.RawMessage `json:"extent"`
		} `json:"properties"`
	} `json:"features"`
}

func (p *Photon) limit() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}

	return p.Limit
}

func (p *Photon) requestURL(name string) (string, error) {
	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = PhotonEndpoint
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing photon endpoint %q: %w", endpoint, err)
	}

	params := u.Query()
	params.Set("q", name)
	params.Set("limit", strconv.Itoa(p.limit()))

	if p.Language != "" {
		params.Set("lang", p.Language)
	}

	u.RawQuery = params.Encode()

	return u.String(), nil
}

// Lookup implements Gazetteer. An empty name is sent as-is.
func (p *Photon) Lookup(ctx context.Context, name string) (*Result, error) {
	log := nopIfNil(p.Log)

	reqURL, err := p.requestURL(name)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := clientOrDefault(p.HTTPClient).Do(req)
	if err != nil {
		return nil, ClassifyTransportError("photon request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		classified := ClassifyHTTPError(resp.StatusCode)
		log.Warn("gazetteer lookup failed", "provider", "photon", "name", name, "status", resp.StatusCode, "error_type", classified.Type.String())

		return &Result{Error: UnavailableMessage}, nil
	}

	var pr photonResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, &LookupError{Type: ErrorTypeUnknown, Message: "decoding photon response", Err: err}
	}

	candidates := make([]Candidate, 0, len(pr.Features))

	for _, f := range pr.Features {
		if len(candidates) == p.limit() {
			break
		}

		country := "None"
		if f.Properties.Country != nil {
			country = *f.Properties.Country
		}

		candidates = append(candidates, Candidate{
			Name:    f.Properties.Name,
			Country: country,
			Type:    f.Properties.Type,
			Extent:  f.Properties.Extent,
		})
	}

	log.Debug("gazetteer lookup", "provider", "photon", "name", name, "candidates", len(candidates))

	return &Result{Results: candidates}, nil
}
