package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"wikirag/internal/domain"
)

// Client is a minimal REST client for the Confluence content API.
// All calls are blocking and never retried; a failed call surfaces an
// error the caller logs and treats as "skip this unit".
type Client struct {
	baseURL string
	email   string
	token   string
	client  *http.Client
}

// Config configures the Confluence client. BaseURL is the wiki root,
// e.g. https://example.atlassian.net/wiki.
type Config struct {
	BaseURL string
	Email   string
	Token   string
	Timeout time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		email:   cfg.Email,
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
	}
}

type pageList struct {
	Results []page `json:"results"`
	Start   int    `json:"start"`
	Limit   int    `json:"limit"`
	Size    int    `json:"size"`
}

type page struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Title     string `json:"title"`
	Links     links  `json:"_links"`
	Ancestors []struct {
		Title string `json:"title"`
	} `json:"ancestors"`
	History *struct {
		CreatedDate string `json:"createdDate"`
	} `json:"history"`
	Body *struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
}

type links struct {
	TinyUI string `json:"tinyui"`
}

type space struct {
	Key      string `json:"key"`
	Homepage *struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"homepage"`
}

type labelList struct {
	Results []struct {
		Name string `json:"name"`
	} `json:"results"`
}

// listPages fetches one batch of the flat space-wide content listing.
func (c *Client) listPages(ctx context.Context, spaceKey string, start, limit int) (*pageList, error) {
	q := url.Values{}
	q.Set("spaceKey", spaceKey)
	q.Set("type", "page")
	q.Set("start", strconv.Itoa(start))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("expand", "title,ancestors,history")
	var out pageList
	if err := c.getJSON(ctx, "/rest/api/content", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// getPage fetches a single page with the requested expansions.
func (c *Client) getPage(ctx context.Context, pageID, expand string) (*page, error) {
	q := url.Values{}
	if expand != "" {
		q.Set("expand", expand)
	}
	var out page
	if err := c.getJSON(ctx, "/rest/api/content/"+pageID, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// getChildren fetches one batch of a page's direct child pages.
func (c *Client) getChildren(ctx context.Context, pageID string, start, limit int) (*pageList, error) {
	q := url.Values{}
	q.Set("start", strconv.Itoa(start))
	q.Set("limit", strconv.Itoa(limit))
	var out pageList
	if err := c.getJSON(ctx, "/rest/api/content/"+pageID+"/child/page", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// getLabels fetches the classification labels attached to a page.
func (c *Client) getLabels(ctx context.Context, pageID string) (*labelList, error) {
	var out labelList
	if err := c.getJSON(ctx, "/rest/api/content/"+pageID+"/label", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// getSpace fetches space info with its homepage expanded.
func (c *Client) getSpace(ctx context.Context, spaceKey string) (*space, error) {
	q := url.Values{}
	q.Set("expand", "homepage")
	var out space
	if err := c.getJSON(ctx, "/rest/api/space/"+spaceKey, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.email, c.token)
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("confluence GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &domain.APIError{StatusCode: resp.StatusCode, URL: u, Body: string(body)}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
