// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

package httputils

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dummyRoundTripper is useful to simulate a response.
type dummyRoundTripper struct {
	response    *http.Response
	lastRequest *http.Request
}

func (d *dummyRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	d.lastRequest = req
	if d.response != nil {
		return d.response, nil
	}

	return &http.Response{
		Status:     "200 OK",
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

//////////////////////////////////
// Test LoggingRoundTripper

// TestLoggingRoundTripper verifies that the LoggingRoundTripper logs both the request and
// the response (including timing information).
func TestLoggingRoundTripper(t *testing.T) {
	var logBuffer bytes.Buffer

	drt := &dummyRoundTripper{
		response: &http.Response{
			Status:     "200 OK",
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader("response body")),
		},
	}

	lt := &LoggingRoundTripper{
		Transport: drt,
		Writer:    &logBuffer,
		DumpBody:  true,
	}

	req, err := http.NewRequest(http.MethodGet, "http://example.com/api?q=Eiffel+Tower", nil)
	require.NoError(t, err)

	_, err = lt.RoundTrip(req)
	require.NoError(t, err)

	logContent := logBuffer.String()
	assert.Contains(t, logContent, "> GET /api?q=Eiffel+Tower")
	assert.Contains(t, logContent, "< RESPONSE: [")
	assert.Contains(t, logContent, "response body")
}

func TestLoggingRoundTripperRedactsSecrets(t *testing.T) {
	var logBuffer bytes.Buffer

	lt := &LoggingRoundTripper{
		Transport: &dummyRoundTripper{},
		Writer:    &logBuffer,
	}

	req, err := http.NewRequest(http.MethodPost, "http://example.com/v1/messages", strings.NewReader("{}"))
	require.NoError(t, err)
	req.Header.Set("X-Api-Key", "sk-very-secret")
	req.Header.Set("Authorization", "Bearer sk-other-secret")

	_, err = lt.RoundTrip(req)
	require.NoError(t, err)

	logContent := logBuffer.String()
	assert.NotContains(t, logContent, "sk-very-secret")
	assert.NotContains(t, logContent, "sk-other-secret")
	assert.Contains(t, logContent, "X-Api-Key: [REDACTED]")
	assert.Contains(t, logContent, "Authorization: [REDACTED]")
}

func TestLoggingRoundTripperWithoutWriter(t *testing.T) {
	drt := &dummyRoundTripper{}
	lt := &LoggingRoundTripper{Transport: drt}

	req, err := http.NewRequest(http.MethodGet, "http://example.com", nil)
	require.NoError(t, err)

	_, err = lt.RoundTrip(req)
	require.NoError(t, err)
	assert.Same(t, req, drt.lastRequest)
}

//////////////////////////////////
// Test AppendRequestHeadersRoundTripper

func TestAppendRequestHeadersRoundTripper(t *testing.T) {
	dummy := &dummyRoundTripper{}

	atr := &AppendRequestHeadersRoundTripper{
		Transport: dummy,
		Headers: map[string]string{
			"X-Test-Header": "TestValue",
		},
	}

	req, err := http.NewRequest(http.MethodPost, "http://example.org", nil)
	require.NoError(t, err)
	require.Empty(t, req.Header.Get("X-Test-Header"), "the test header should not be pre-set in the request")

	_, err = atr.RoundTrip(req)
	require.NoError(t, err)

	require.NotNil(t, dummy.lastRequest)
	assert.Equal(t, "TestValue", dummy.lastRequest.Header.Get("X-Test-Header"))
	assert.Empty(t, req.Header.Get("X-Test-Header"), "caller request must not be mutated")
}

func TestNewClient(t *testing.T) {
	var gotUA string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	var trace bytes.Buffer

	client := NewClient(ClientOptions{
		UserAgent:   "geoscope/test",
		Timeout:     5 * time.Second,
		TraceWriter: &trace,
		TraceBody:   true,
	})
	assert.Equal(t, 5*time.Second, client.Timeout)

	resp, err := client.Get(srv.URL + "/ping")
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, "geoscope/test", gotUA)
	assert.Contains(t, trace.String(), "> GET /ping")
	assert.Contains(t, trace.String(), "User-Agent: geoscope/test")
}

func TestNewClientDefaultUserAgent(t *testing.T) {
	var gotUA string

	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	resp, err := NewClient(ClientOptions{}).Get(srv.URL)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, "geoscope/unknown", gotUA)
}
