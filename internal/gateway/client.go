package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client is a Completer that talks to a remote chat gateway over HTTP.
// Used when the orchestrator runs apart from the gateway (e.g. the CLI
// pointed at a hosted server).
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a gateway client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", ErrEmptyMessage
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshalling chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("reading gateway response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var envelope ErrorResponse
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Message != "" {
			return "", fmt.Errorf("%w: %s", ErrUpstream, envelope.Message)
		}
		return "", fmt.Errorf("%w: gateway returned status %d", ErrUpstream, httpResp.StatusCode)
	}

	var resp ChatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("unmarshalling gateway response: %w", err)
	}
	return resp.Response, nil
}
