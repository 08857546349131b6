// client/client.go
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"revflow/internal/api"
	"revflow/internal/change"
	"revflow/internal/errors"
)

// Client queries a running history server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
	}
}

// Node fetches one history node. rev is the textual revision form, for
// example "r42" or "local".
func (c *Client) Node(ctx context.Context, path, rev string) (*api.NodeResponse, error) {
	var node api.NodeResponse
	if err := c.get(ctx, "/api/node/"+path, url.Values{"rev": {rev}}, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// Flow fetches the revision chain leading to the given node, oldest
// first.
func (c *Client) Flow(ctx context.Context, path, rev string) ([]api.NodeResponse, error) {
	var flow []api.NodeResponse
	if err := c.get(ctx, "/api/flow/"+path, url.Values{"rev": {rev}}, &flow); err != nil {
		return nil, err
	}
	return flow, nil
}

// Diff fetches the changed regions between a node and one of its
// ancestors. ancestor may be empty to diff against the first recorded
// ancestor.
func (c *Client) Diff(ctx context.Context, path, rev, ancestor string) (*api.DiffResponse, error) {
	params := url.Values{"rev": {rev}}
	if ancestor != "" {
		params.Set("ancestor", ancestor)
	}
	var result api.DiffResponse
	if err := c.get(ctx, "/api/diff/"+path, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ChangeSets lists the change sets the server has applied.
func (c *Client) ChangeSets(ctx context.Context) ([]change.ChangeSet, error) {
	var sets []change.ChangeSet
	if err := c.get(ctx, "/api/changesets", nil, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr errors.Error
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Message == "" {
			return fmt.Errorf("unexpected status: %s", resp.Status)
		}
		return &apiErr
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
