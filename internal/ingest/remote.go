package ingest

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wonny/heatmap/internal/contracts"
	"github.com/wonny/heatmap/pkg/httputil"
)

// RemoteCSVSource downloads a wide CSV over HTTP
type RemoteCSVSource struct {
	URL        string
	DateColumn string
	client     *httputil.Client
}

// NewRemoteCSVSource creates a remote CSV source using the shared HTTP client
func NewRemoteCSVSource(url, dateColumn string, client *httputil.Client) *RemoteCSVSource {
	if dateColumn == "" {
		dateColumn = DefaultDateColumn
	}
	return &RemoteCSVSource{URL: url, DateColumn: dateColumn, client: client}
}

// Name implements Source
func (s *RemoteCSVSource) Name() string {
	return "url:" + s.URL
}

// Load implements Source
func (s *RemoteCSVSource) Load(ctx context.Context) (*contracts.Dataset, error) {
	body, err := s.client.Fetch(ctx, s.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.URL, err)
	}

	return ParseCSV(bytes.NewReader(body), s.Name(), s.DateColumn)
}
