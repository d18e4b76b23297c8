// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

package gazetteer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"github.com/jcodagnone/geoscope/utils/logging"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
)

// GoogleMapsKeyDisplayName is the display name of the API key looked up through ADC.
const GoogleMapsKeyDisplayName = "GeoScope Geocoding Key"

// GoogleMapsAPIKey returns GOOGLE_MAPS_API_KEY, or falls back to retrieving
// the key from the API Keys service using Application Default Credentials.
func GoogleMapsAPIKey(ctx context.Context, log *logging.Logger) (string, error) {
	log = nopIfNil(log)

	if key := strings.TrimSpace(os.Getenv("GOOGLE_MAPS_API_KEY")); key != "" {
		return key, nil
	}

	log.Info("GOOGLE_MAPS_API_KEY is not set, attempting to retrieve it via ADC")

	key, err := APIKeyFromADC(ctx, GoogleMapsKeyDisplayName)
	if err != nil {
		return "", fmt.Errorf("GOOGLE_MAPS_API_KEY is not set and ADC failed: %w", err)
	}

	log.Info("retrieved Google Maps API key via ADC")

	return key, nil
}

// APIKeyFromADC finds the API key named displayName in the ADC project and
// returns its secret string.
func APIKeyFromADC(ctx context.Context, displayName string) (string, error) {
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return "", fmt.Errorf("finding default credentials: %w", err)
	}

	projectID := creds.ProjectID
	if projectID == "" {
		projectID = strings.TrimSpace(os.Getenv("GOOGLE_CLOUD_PROJECT"))
	}

	if projectID == "" {
		return "", errors.New("no project ID in credentials and GOOGLE_CLOUD_PROJECT is not set")
	}

	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}
	defer client.Close()

	it := client.ListKeys(ctx, &apikeyspb.ListKeysRequest{
		Parent: fmt.Sprintf("projects/%s/locations/global", projectID),
	})

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.DisplayName != displayName {
			continue
		}

		// ListKeys redacts KeyString.
		resp, err := client.GetKeyString(ctx, &apikeyspb.GetKeyStringRequest{Name: key.Name})
		if err != nil {
			return "", fmt.Errorf("getting key string: %w", err)
		}

		if resp.KeyString == "" {
			return "", fmt.Errorf("key %q found but its key string is empty", displayName)
		}

		return resp.KeyString, nil
	}

	return "", fmt.Errorf("key with display name %q not found in project %s", displayName, projectID)
}
