// Package pinecone is a client for the Pinecone serverless HTTP API, covering
// the control plane (index management) and the data plane (upsert and query).
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultControlURL = "https://api.pinecone.io"

// ServiceError reports a failed index service call. Provider failures are
// never masked as an empty result set. The API key is deliberately absent
// from the message.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("index service: %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// IndexSpec fixes the shape of an index. Dimension and metric are
// configuration-time invariants: every vector ever written to or queried
// against the index must match them.
type IndexSpec struct {
	Name      string
	Dimension int
	Metric    string
	Cloud     string
	Region    string
}

type Client struct {
	apiKey     string
	controlURL string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		controlURL: defaultControlURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetControlURL overrides the control plane endpoint.
func (c *Client) SetControlURL(url string) {
	c.controlURL = strings.TrimSuffix(url, "/")
}

// EnsureIndex returns a handle to the index described by spec, creating it
// when the provider does not already report it. Repeated calls with the same
// spec reuse the existing index; they never create a duplicate and never fail
// because the index exists.
func (c *Client) EnsureIndex(ctx context.Context, spec IndexSpec) (*Index, error) {
	names, err := c.listIndexNames(ctx)
	if err != nil {
		return nil, &ServiceError{Op: "list indexes", Err: err}
	}

	var host string
	if names[spec.Name] {
		host, err = c.describeIndexHost(ctx, spec.Name)
	} else {
		host, err = c.createIndex(ctx, spec)
	}
	if err != nil {
		return nil, err
	}

	return &Index{client: c, name: spec.Name, host: host}, nil
}

// listIndexNames normalizes the provider's index listing to a plain set of
// names. The response shape has changed across provider API versions: an
// object wrapping an "indexes" array, a bare array of objects, or a bare
// array of name strings. All three are accepted here so nothing else in the
// client has to care.
func (c *Client) listIndexNames(ctx context.Context) (map[string]bool, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, c.controlURL+"/indexes", nil, &raw); err != nil {
		return nil, err
	}

	var items []json.RawMessage
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapper struct {
			Indexes []json.RawMessage `json:"indexes"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("decode index listing: %w", err)
		}
		items = wrapper.Indexes
	} else {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode index listing: %w", err)
		}
	}

	names := make(map[string]bool, len(items))
	for _, item := range items {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			names[name] = true
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(item, &obj); err == nil && obj.Name != "" {
			names[obj.Name] = true
		}
	}
	return names, nil
}

func (c *Client) createIndex(ctx context.Context, spec IndexSpec) (string, error) {
	body := map[string]any{
		"name":      spec.Name,
		"dimension": spec.Dimension,
		"metric":    spec.Metric,
		"spec": map[string]any{
			"serverless": map[string]string{
				"cloud":  spec.Cloud,
				"region": spec.Region,
			},
		},
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", &ServiceError{Op: "create index", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.controlURL+"/indexes", bytes.NewReader(jsonBody))
	if err != nil {
		return "", &ServiceError{Op: "create index", Err: err}
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &ServiceError{Op: "create index", Err: err}
	}
	defer resp.Body.Close()

	// A concurrent creator may win the race; fall back to describing the
	// index that now exists.
	if resp.StatusCode == http.StatusConflict {
		return c.describeIndexHost(ctx, spec.Name)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ServiceError{Op: "create index", Err: statusError(resp)}
	}

	var created struct {
		Host string `json:"host"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", &ServiceError{Op: "create index", Err: err}
	}
	if created.Host == "" {
		return c.describeIndexHost(ctx, spec.Name)
	}
	return created.Host, nil
}

func (c *Client) describeIndexHost(ctx context.Context, name string) (string, error) {
	var described struct {
		Host string `json:"host"`
	}
	if err := c.do(ctx, http.MethodGet, c.controlURL+"/indexes/"+name, nil, &described); err != nil {
		return "", &ServiceError{Op: "describe index", Err: err}
	}
	if described.Host == "" {
		return "", &ServiceError{Op: "describe index", Err: fmt.Errorf("no host reported for index %q", name)}
	}
	return described.Host, nil
}

// do runs one authenticated round-trip, decoding a 2xx response into out when
// out is non-nil.
func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func statusError(resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if len(bytes.TrimSpace(detail)) == 0 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
}
