// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "geoscope.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	if diff := cmp.Diff(Defaults(), cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 5, cfg.Gazetteer.Limit)
	assert.Zero(t, cfg.Engine.Temperature)
	assert.False(t, cfg.Resolver.StrictScale)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[engine]
provider = "openai"
model = "llama3.1"
base_url = "http://localhost:11434"
timeout = "45s"

[gazetteer]
language = "fr"
timeout = "5s"

[resolver]
strict_scale = true

[server]
port = 9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Engine.Provider)
	assert.Equal(t, "llama3.1", cfg.Engine.Model)
	assert.Equal(t, "http://localhost:11434", cfg.Engine.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.Engine.Timeout.Duration)
	assert.Equal(t, 1024, cfg.Engine.MaxTokens, "untouched keys keep defaults")
	assert.Equal(t, "fr", cfg.Gazetteer.Language)
	assert.Equal(t, 5*time.Second, cfg.Gazetteer.Timeout.Duration)
	assert.Equal(t, "https://photon.komoot.io/api", cfg.Gazetteer.Endpoint)
	assert.True(t, cfg.Resolver.StrictScale)
	assert.Equal(t, "localhost:9090", cfg.Server.Addr())
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad toml", `[engine`},
		{"bad duration", "[engine]\ntimeout = \"soon\""},
		{"unknown engine", "[engine]\nprovider = \"eliza\""},
		{"unknown gazetteer", "[gazetteer]\nprovider = \"atlas\""},
		{"zero limit", "[gazetteer]\nlimit = 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}
