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

	"wikirag/internal/domain"
)

// Client is a minimal REST client to the Pinecone control plane.
// Index handles returned by EnsureIndex talk to the per-index data
// plane host.
type Client struct {
	controlURL string
	apiKey     string
	cloud      string
	region     string
	client     *http.Client
}

type Config struct {
	// ControlURL overrides the control plane endpoint, for tests.
	ControlURL string
	APIKey     string
	Cloud      string
	Region     string
	Timeout    time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	controlURL := cfg.ControlURL
	if controlURL == "" {
		controlURL = "https://api.pinecone.io"
	}
	cloud := cfg.Cloud
	if cloud == "" {
		cloud = "aws"
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	return &Client{
		controlURL: controlURL,
		apiKey:     cfg.APIKey,
		cloud:      cloud,
		region:     region,
		client:     &http.Client{Timeout: timeout},
	}
}

type indexDescription struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Host      string `json:"host"`
}

// EnsureIndex creates the named serverless index if it does not exist
// and returns a data-plane handle plus whether creation occurred.
func (c *Client) EnsureIndex(ctx context.Context, name string, dimension int, metric string) (domain.Index, bool, error) {
	desc, err := c.describeIndex(ctx, name)
	if err == nil {
		return c.index(desc.Host), false, nil
	}
	if !domain.IsNotFound(err) {
		return nil, false, err
	}

	body := map[string]any{
		"name":      name,
		"dimension": dimension,
		"metric":    metric,
		"spec": map[string]any{
			"serverless": map[string]any{
				"cloud":  c.cloud,
				"region": c.region,
			},
		},
	}
	var created indexDescription
	if err := c.doJSON(ctx, http.MethodPost, c.controlURL+"/indexes", body, &created); err != nil {
		return nil, false, err
	}
	return c.index(created.Host), true, nil
}

// DeleteIndex removes the named index; a 404 is treated as success.
func (c *Client) DeleteIndex(ctx context.Context, name string) error {
	err := c.doJSON(ctx, http.MethodDelete, c.controlURL+"/indexes/"+name, nil, nil)
	if err != nil && domain.IsNotFound(err) {
		return nil
	}
	return err
}

func (c *Client) describeIndex(ctx context.Context, name string) (*indexDescription, error) {
	var desc indexDescription
	if err := c.doJSON(ctx, http.MethodGet, c.controlURL+"/indexes/"+name, nil, &desc); err != nil {
		return nil, err
	}
	return &desc, nil
}

func (c *Client) index(host string) *Index {
	// The data plane host comes back without a scheme.
	if host != "" && !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return &Index{host: host, apiKey: c.apiKey, client: c.client}
}

// Index is a data-plane handle to one Pinecone index.
type Index struct {
	host   string
	apiKey string
	client *http.Client
}

type vector struct {
	ID       string          `json:"id"`
	Values   []float64       `json:"values"`
	Metadata domain.Metadata `json:"metadata"`
}

// Upsert inserts or overwrites records by id.
func (i *Index) Upsert(ctx context.Context, records []domain.EmbeddingRecord) error {
	vectors := make([]vector, len(records))
	for j, r := range records {
		vectors[j] = vector{ID: r.ID, Values: r.Values, Metadata: r.Metadata}
	}
	body := map[string]any{"vectors": vectors}
	return i.doJSON(ctx, http.MethodPost, i.host+"/vectors/upsert", body, nil)
}

// Query returns the topK nearest records with metadata and scores.
func (i *Index) Query(ctx context.Context, vec []float64, topK int) ([]domain.Match, error) {
	body := map[string]any{
		"vector":          vec,
		"topK":            topK,
		"includeMetadata": true,
	}
	var resp struct {
		Matches []struct {
			ID       string          `json:"id"`
			Score    float64         `json:"score"`
			Metadata domain.Metadata `json:"metadata"`
		} `json:"matches"`
	}
	if err := i.doJSON(ctx, http.MethodPost, i.host+"/query", body, &resp); err != nil {
		return nil, err
	}
	matches := make([]domain.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, domain.Match{ID: m.ID, Score: m.Score, Metadata: m.Metadata})
	}
	return matches, nil
}

// VectorCount returns the index's total vector count.
func (i *Index) VectorCount(ctx context.Context) (int, error) {
	var resp struct {
		TotalVectorCount int `json:"totalVectorCount"`
	}
	if err := i.doJSON(ctx, http.MethodPost, i.host+"/describe_index_stats", map[string]any{}, &resp); err != nil {
		return 0, err
	}
	return resp.TotalVectorCount, nil
}

func (i *Index) doJSON(ctx context.Context, method, url string, body, out any) error {
	return doJSON(ctx, i.client, i.apiKey, method, url, body, out)
}

func (c *Client) doJSON(ctx context.Context, method, url string, body, out any) error {
	return doJSON(ctx, c.client, c.apiKey, method, url, body, out)
}

func doJSON(ctx context.Context, client *http.Client, apiKey, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Api-Key", apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("pinecone %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &domain.APIError{StatusCode: resp.StatusCode, URL: url, Body: string(payload)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
