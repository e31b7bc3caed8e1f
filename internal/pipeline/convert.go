package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ConverterClient talks to the external survey-to-RDF converter service.
// RDF serialization happens entirely on that side; this client only forwards
// the survey document and reads back the ingest summary.
type ConverterClient struct {
	url  string
	http *http.Client
}

type ConvertResult struct {
	TripleCount int    `json:"triple_count"`
	GraphURI    string `json:"graph_uri"`
}

func NewConverterClient(url string, timeout time.Duration) *ConverterClient {
	return &ConverterClient{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// Convert submits the survey for conversion and loading into the repository.
func (c *ConverterClient) Convert(ctx context.Context, survey json.RawMessage) (*ConvertResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(survey))
	if err != nil {
		return nil, fmt.Errorf("failed to build converter request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rdf converter unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
		return nil, fmt.Errorf("rdf converter returned %d: %s", resp.StatusCode, string(body))
	}

	var result ConvertResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("rdf converter response invalid: %w", err)
	}

	return &result, nil
}
