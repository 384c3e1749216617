package contentgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// ErrQuery is returned when the content graph answers with an errors array.
var ErrQuery = errors.New("content graph query failed")

// Querier executes a query document against the content graph and decodes
// the response data into data.
type Querier interface {
	Query(ctx context.Context, document string, variables map[string]any, data any) error
}

type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func NewClient(endpoint string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Host returns the host of the configured endpoint, empty if it can not be parsed.
func (c *Client) Host() string {
	return EndpointHost(c.endpoint)
}

func EndpointHost(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return ""
	}
	return u.Host
}

func (c *Client) Query(ctx context.Context, document string, variables map[string]any, data any) error {
	body, err := json.Marshal(request{Query: document, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to query content graph: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("content graph request failed with status: %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var r response
	if err := json.Unmarshal(payload, &r); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(r.Errors) > 0 {
		messages := make([]string, len(r.Errors))
		for i, e := range r.Errors {
			messages[i] = e.Message
		}
		c.logger.Debug("content graph returned errors", zap.Strings("errors", messages))
		return fmt.Errorf("%w: %s", ErrQuery, strings.Join(messages, "; "))
	}
	if data == nil || len(r.Data) == 0 || string(r.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(r.Data, data); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
