// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

// Package llm is the seam to the text-completion service used as a reasoning
// engine. Implementations take a prompt and return free-form text; no
// schema is enforced here.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/jcodagnone/geoscope/config"
)

// ErrEngine is wrapped by every failure reported by a remote engine.
var ErrEngine = errors.New("reasoning engine failure")

// Engine completes a prompt. Implementations must be safe for concurrent use.
type Engine interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f EngineFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// New builds the engine selected by cfg.Provider. The API key is read from
// ANTHROPIC_API_KEY or OPENAI_API_KEY.
func New(cfg config.EngineConfig, httpClient *http.Client) (Engine, error) {
	switch cfg.Provider {
	case "anthropic":
		key := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
		if key == "" {
			return nil, errors.New("ANTHROPIC_API_KEY environment variable not set")
		}

		return &AnthropicEngine{
			APIKey:      key,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			HTTPClient:  httpClient,
		}, nil
	case "openai":
		// Local OpenAI-compatible servers (ollama, llama.cpp) accept any key.
		key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
		if key == "" && cfg.BaseURL == "" {
			return nil, errors.New("OPENAI_API_KEY environment variable not set")
		}

		return &OpenAIEngine{
			APIKey:      key,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			HTTPClient:  httpClient,
		}, nil
	default:
		return nil, fmt.Errorf("unknown engine provider %q", cfg.Provider)
	}
}

func apiError(status int, body []byte) error {
	const maxBody = 300

	msg := strings.TrimSpace(string(body))
	if len(msg) > maxBody {
		msg = msg[:maxBody] + "…"
	}

	return fmt.Errorf("%w: API returned status %d: %s", ErrEngine, status, msg)
}
