// Package ml is the client for the external batch prediction service. One
// POST per distinct batch; identical payloads are served from a
// content-addressed cache and never trigger a second remote call within the
// cache TTL.
package ml

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dovra-dev/atelier-finder/domain"
	"github.com/dovra-dev/atelier-finder/pkg/metrics"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"
)

// PredictionRequest is one feature tuple of the batch payload. Field order
// is fixed so the serialized form is a stable cache identity.
type PredictionRequest struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Hour         int     `json:"hour"`
	Month        int     `json:"month"`
	Day          int     `json:"day"`
	ActivityName string  `json:"activity_name"`
}

// PredictionResponse is the model output for one candidate. The sub-scores
// are nullable: a composed muse score is only derived when both are present.
type PredictionResponse struct {
	MuseScore             *float64 `json:"muse_score"`
	EstimatedCrowdNumber  int      `json:"estimated_crowd_number"`
	CrowdScore            *float64 `json:"crowd_score"`
	CreativeActivityScore *float64 `json:"creative_activity_score"`
}

type Client struct {
	url        string
	httpClient *http.Client
	cache      *batchCache
	group      singleflight.Group
}

type Options struct {
	URL       string
	Timeout   time.Duration
	CacheTTL  time.Duration
	CacheSize int
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 2 * time.Hour
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 500
	}

	return &Client{
		url:        opts.URL,
		httpClient: &http.Client{Timeout: opts.Timeout},
		cache:      newBatchCache(opts.CacheSize, opts.CacheTTL),
	}
}

// PredictBatch scores a batch of feature tuples. The response may be shorter
// than the request; callers score only the first min(req, resp) candidates.
// A transport error or non-2xx status wraps domain.ErrPredictorUnavailable.
func (c *Client) PredictBatch(ctx context.Context, batch []PredictionRequest) ([]PredictionResponse, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prediction batch: %w", err)
	}

	key := c.cache.keyFor(payload)
	if preds, ok := c.cache.get(key); ok {
		metrics.PredictorCacheHits.Inc()
		return preds, nil
	}

	// singleflight collapses concurrent requests for the identical batch
	// into one remote call; late arrivals reuse the first result.
	result, err, _ := c.group.Do(key, func() (any, error) {
		if preds, ok := c.cache.get(key); ok {
			return preds, nil
		}

		preds, err := c.callPredictor(ctx, payload)
		if err != nil {
			return nil, err
		}

		c.cache.set(key, preds)
		return preds, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]PredictionResponse), nil
}

func (c *Client) callPredictor(ctx context.Context, payload []byte) ([]PredictionResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build prediction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	metrics.PredictorCalls.Inc()

	res, err := c.httpClient.Do(req)
	if err != nil {
		metrics.PredictorFailures.Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrPredictorUnavailable, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		metrics.PredictorFailures.Inc()
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrPredictorUnavailable, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		metrics.PredictorFailures.Inc()
		return nil, fmt.Errorf("%w: status %d", domain.ErrPredictorUnavailable, res.StatusCode)
	}

	var preds []PredictionResponse
	if err := json.Unmarshal(body, &preds); err != nil {
		metrics.PredictorFailures.Inc()
		return nil, fmt.Errorf("%w: decoding response: %v", domain.ErrPredictorUnavailable, err)
	}

	return preds, nil
}
