// Package remote fetches and verifies externally hosted app bundles
// and registers them with the lifecycle manager.
package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"github.com/lumenshell/platform/internal/shared/types"
)

// CatalogEntry is one app listed by the remote registry.
type CatalogEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Category    string `json:"category,omitempty"`
}

// Client talks to a remote app registry.
//
// Contract: GET {base} lists the catalog, GET {base}/{id} returns one
// manifest, GET {base}/search?q= filters entries. Fetches are not
// retried; transport errors surface to the caller.
type Client struct {
	http *resty.Client
	base string
}

// NewClient creates a registry client for the given base URL.
func NewClient(base string) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(30 * time.Second).
			SetHeader("User-Agent", "platform-registry/1.0"),
		base: base,
	}
}

// Catalog lists every app the registry knows.
func (c *Client) Catalog(ctx context.Context) ([]CatalogEntry, error) {
	resp, err := c.http.R().SetContext(ctx).Get(c.base)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("catalog fetch returned %s", resp.Status())
	}

	var entries []CatalogEntry
	if err := sonic.Unmarshal(resp.Body(), &entries); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return entries, nil
}

// Manifest fetches the full manifest for one registry entry.
func (c *Client) Manifest(ctx context.Context, id string) (*types.AppManifest, error) {
	resp, err := c.http.R().SetContext(ctx).Get(c.base + "/" + id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest %q: %w", id, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("manifest fetch for %q returned %s", id, resp.Status())
	}

	var m types.AppManifest
	if err := sonic.Unmarshal(resp.Body(), &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest %q: %w", id, err)
	}
	return &m, nil
}

// Search returns catalog entries matching the query.
func (c *Client) Search(ctx context.Context, query string) ([]CatalogEntry, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		Get(c.base + "/search")
	if err != nil {
		return nil, fmt.Errorf("failed to search catalog: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("catalog search returned %s", resp.Status())
	}

	var entries []CatalogEntry
	if err := sonic.Unmarshal(resp.Body(), &entries); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}
	return entries, nil
}
