package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/i474232898/renewable-site-aggregation/internal/grid"
)

// HTTPProvider implements yield.ResourceProvider for a grid-preparation
// service that serves a prepared grid as JSON.
type HTTPProvider struct {
	name   string
	url    string
	client *resilientClient
}

func NewHTTPProvider(client *http.Client, url string, logger *logrus.Logger) *HTTPProvider {
	return NewHTTPProviderWithBackoff(client, url, DefaultBackoff, logger)
}

func NewHTTPProviderWithBackoff(client *http.Client, url string, backoff BackoffConfig, logger *logrus.Logger) *HTTPProvider {
	return &HTTPProvider{
		name: "http-grid",
		url:  url,
		client: newResilientClient("http-grid", HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		}, logger),
	}
}

func (p *HTTPProvider) Name() string {
	return p.name
}

func (p *HTTPProvider) Fetch(ctx context.Context) (*grid.Resource, error) {
	if p.url == "" {
		return nil, fmt.Errorf("grid url is not configured")
	}

	resp, err := p.client.get(ctx, p.url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload gridPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode grid payload: %w", err)
	}
	return payload.resource()
}
