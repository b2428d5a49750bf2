package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/i474232898/forecast-collector/internal/common"
	"github.com/i474232898/forecast-collector/internal/weather"
)

// URLFunc builds the forecast URL for a region code.
type URLFunc func(region string) string

// BMKGProvider implements weather.Provider for the BMKG public forecast API.
// One provider (and its circuit breaker) is shared by every region.
type BMKGProvider struct {
	name    string
	client  *resty.Client
	url     URLFunc
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
}

// NewBMKGProvider creates a provider that issues at most 1+maxRetries
// requests per fetch. maxRetries 0 means a single best-effort request.
func NewBMKGProvider(client *resty.Client, url URLFunc, maxRetries int) *BMKGProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "bmkg",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &BMKGProvider{
		name:   "bmkg",
		client: client,
		url:    url,
		backoff: BackoffConfig{
			MaxRetries:      maxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		circuit: cb,
	}
}

func (p *BMKGProvider) Name() string {
	return p.name
}

// Fetch downloads and decodes the forecast document for region. Transport,
// status and decode failures wrap weather.ErrFetch; a body without the
// expected top-level keys yields a *weather.SchemaError.
func (p *BMKGProvider) Fetch(ctx context.Context, region string) (*weather.Document, error) {
	if region == "" {
		return nil, fmt.Errorf("%w: empty region code", weather.ErrFetch)
	}

	u := p.url(region)
	resp, err := getWithResilience(ctx, p.client, p.backoff, p.circuit, u)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", weather.ErrFetch, u, err)
	}

	doc, err := weather.DecodeDocument(resp.Body())
	if err != nil {
		if ct := resp.Header().Get("Content-Type"); errors.Is(err, weather.ErrFetch) && !common.HasAny(ct, "json") {
			return nil, fmt.Errorf("%w (content type %q)", err, ct)
		}
		return nil, err
	}
	return doc, nil
}
