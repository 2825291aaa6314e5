// Package rize is a minimal GraphQL client for the Rize time-tracking API.
package rize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rizesync/internal/log"
	"rizesync/internal/source"
)

const (
	DefaultURL = "https://api.rize.io/api/v1/graphql"

	maxResponseBytes = 4 << 20
	errorSnippetLen  = 200
)

var (
	ErrQueryFailed = errors.New("rize query failed")
	ErrNoData      = errors.New("no data for this window")
)

// GraphQLError carries the messages of a response's "errors" array.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "graphql errors: " + strings.Join(e.Messages, "; ")
}

type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
}

// Ensure interface conformance
var _ source.Source = (*Client)(nil)

// NewClient returns a client for the endpoint at url authenticated with a
// bearer apiKey. An empty url selects DefaultURL.
func NewClient(url, apiKey string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		apiKey:     apiKey,
	}
}

type (
	request struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}

	response struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
)

// do posts one GraphQL query and decodes its data member into out.
func (c *Client) do(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(request{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrQueryFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d: %s", ErrQueryFailed, resp.StatusCode, snippet(raw))
	}

	var envelope response
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrQueryFailed, err)
	}
	if len(envelope.Errors) > 0 {
		gqlErr := &GraphQLError{}
		for _, e := range envelope.Errors {
			gqlErr.Messages = append(gqlErr.Messages, e.Message)
		}
		return gqlErr
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return ErrNoData
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%w: decode data: %v", ErrQueryFailed, err)
	}

	log.FromContext(ctx, log.ComponentRize).DebugContext(ctx, "Rize query completed",
		"status", resp.StatusCode,
		"bytes", len(raw))
	return nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > errorSnippetLen {
		s = s[:errorSnippetLen] + "..."
	}
	return s
}
