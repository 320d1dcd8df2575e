// Package figma fetches design data from the Figma REST API and extracts
// the color, font, and component tokens the pipeline prompts consume.
package figma

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/zen-systems/designflow/pkg/fault"
)

const defaultBaseURL = "https://api.figma.com/v1"

// Client is an authenticated Figma REST API client. It issues read-only
// requests and never mutates remote state.
type Client struct {
	http *resty.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Used by tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.http.SetBaseURL(baseURL)
	}
}

// WithTimeout bounds each API request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(timeout)
	}
}

// NewClient creates a Figma client with the given access token.
func NewClient(accessToken string, opts ...Option) (*Client, error) {
	if accessToken == "" {
		return nil, fault.Newf(fault.KindAuth, "figma access token is required")
	}

	httpClient := resty.New().
		SetBaseURL(defaultBaseURL).
		SetHeader("X-FIGMA-TOKEN", accessToken).
		SetTimeout(60 * time.Second)

	c := &Client{http: httpClient}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetFile fetches the full document for a file key.
func (c *Client) GetFile(ctx context.Context, fileKey string) (map[string]any, error) {
	var out map[string]any
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/files/%s", fileKey))
	if err != nil {
		return nil, fault.New(fault.KindIO, err)
	}
	if err := checkResponse(resp, fileKey); err != nil {
		return nil, err
	}
	return out, nil
}

// GetNodes fetches specific nodes within a file.
func (c *Client) GetNodes(ctx context.Context, fileKey string, nodeIDs []string) (map[string]any, error) {
	var out map[string]any
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("ids", strings.Join(nodeIDs, ",")).
		SetResult(&out).
		Get(fmt.Sprintf("/files/%s/nodes", fileKey))
	if err != nil {
		return nil, fault.New(fault.KindIO, err)
	}
	if err := checkResponse(resp, fileKey); err != nil {
		return nil, err
	}
	return out, nil
}

// GetImages resolves render URLs for the given nodes.
func (c *Client) GetImages(ctx context.Context, fileKey string, nodeIDs []string, format string, scale int) (map[string]string, error) {
	if format == "" {
		format = "png"
	}
	if scale <= 0 {
		scale = 2
	}

	var out struct {
		Images map[string]string `json:"images"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":    strings.Join(nodeIDs, ","),
			"format": format,
			"scale":  fmt.Sprintf("%d", scale),
		}).
		SetResult(&out).
		Get(fmt.Sprintf("/images/%s", fileKey))
	if err != nil {
		return nil, fault.New(fault.KindIO, err)
	}
	if err := checkResponse(resp, fileKey); err != nil {
		return nil, err
	}
	return out.Images, nil
}

// FetchDesign fetches and preprocesses the design referenced by a Figma URL.
// When the URL carries a node-id, only that node's subtree is fetched.
func (c *Client) FetchDesign(ctx context.Context, rawURL string) (*Design, error) {
	ref, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	var document map[string]any

	if ref.NodeID != "" {
		raw, err = c.GetNodes(ctx, ref.FileKey, []string{ref.NodeID})
		if err != nil {
			return nil, err
		}
		document = firstNodeDocument(raw)
	} else {
		raw, err = c.GetFile(ctx, ref.FileKey)
		if err != nil {
			return nil, err
		}
		document, _ = raw["document"].(map[string]any)
	}
	if document == nil {
		document = map[string]any{}
	}

	name, _ := raw["name"].(string)
	if name == "" {
		if n, ok := document["name"].(string); ok {
			name = n
		} else {
			name = "Untitled"
		}
	}

	return &Design{
		FileKey:    ref.FileKey,
		NodeID:     ref.NodeID,
		Name:       name,
		Document:   document,
		Colors:     ExtractColors(document),
		Fonts:      ExtractFonts(document),
		Components: ExtractComponents(document),
	}, nil
}

func firstNodeDocument(raw map[string]any) map[string]any {
	nodes, _ := raw["nodes"].(map[string]any)
	for _, v := range nodes {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if doc, ok := entry["document"].(map[string]any); ok {
			return doc
		}
	}
	return nil
}

func checkResponse(resp *resty.Response, fileKey string) error {
	if !resp.IsError() {
		return nil
	}
	status := resp.StatusCode()
	switch status {
	case 401, 403:
		return fault.WithStatus(fault.KindAuth, status, fmt.Errorf("figma rejected credentials"))
	case 404:
		return fault.WithStatus(fault.KindNotFound, status, fmt.Errorf("figma file %s not found", fileKey))
	case 429:
		return fault.WithStatus(fault.KindRateLimit, status, fmt.Errorf("figma rate limit exceeded"))
	default:
		return fault.WithStatus(fault.KindIO, status, fmt.Errorf("figma API error: %s", resp.Status()))
	}
}
