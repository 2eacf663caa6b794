package data

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fuel-reconcile/internal/metrics"
	"fuel-reconcile/internal/model"
)

const (
	endpointAssets     = "assets"
	endpointOperations = "operations"
	endpointRDO        = "rdo"
	endpointSounding   = "sounding"

	maxResponseBytes = 64 << 20
)

// FleetClient fetches reconciliation inputs from the fleet backend REST API.
type FleetClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
	Cache   *ResponseCache
	Log     *zap.Logger
}

// NewFleetClient creates a fleet API client. A zero timeout means 30s.
func NewFleetClient(baseURL, token string, timeout time.Duration, log *zap.Logger) *FleetClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FleetClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: timeout},
		Log:     log.Named("fleetapi"),
	}
}

// FleetAPIError is an error reported by the fleet backend.
type FleetAPIError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter string // For rate limit errors
}

func (e *FleetAPIError) Error() string {
	return e.Message
}

// FetchDataset loads assets, operations, RDO and sounding readings
// concurrently. The first failure cancels the remaining requests.
func (c *FleetClient) FetchDataset(ctx context.Context, q Query) (*model.Dataset, error) {
	if err := c.validateToken(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	key := q.CacheKey()
	if cached, found := c.Cache.Get(key); found {
		c.Log.Debug("cache hit",
			zap.String("enterprise", q.EnterpriseID),
			zap.Int("operations", len(cached.Operations)))
		return cached, nil
	}

	params := queryParams(q)
	ds := &model.Dataset{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := c.get(gctx, endpointAssets, params)
		if err != nil {
			return err
		}
		assets, err := DecodeAssets(raw)
		if err != nil {
			return err
		}
		for _, a := range assets {
			if q.wantsAsset(a.ID) {
				ds.Assets = append(ds.Assets, a)
			}
		}
		return nil
	})
	g.Go(func() error {
		raw, err := c.get(gctx, endpointOperations, params)
		if err != nil {
			return err
		}
		ds.Operations, err = DecodeOperations(raw)
		return err
	})
	g.Go(func() error {
		raw, err := c.get(gctx, endpointRDO, params)
		if err != nil {
			return err
		}
		ds.Estimates, err = DecodeEstimates(raw)
		return err
	})
	g.Go(func() error {
		raw, err := c.get(gctx, endpointSounding, params)
		if err != nil {
			return err
		}
		ds.Measurements, err = DecodeMeasurements(raw)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.Log.Info("dataset fetched",
		zap.String("enterprise", q.EnterpriseID),
		zap.Int("assets", len(ds.Assets)),
		zap.Int("operations", len(ds.Operations)),
		zap.Int("rdo", len(ds.Estimates)),
		zap.Int("sounding", len(ds.Measurements)))

	c.Cache.Set(key, ds)
	return ds, nil
}

// ListAssets fetches the fleet of an enterprise.
func (c *FleetClient) ListAssets(ctx context.Context, enterpriseID string) ([]model.Asset, error) {
	if err := c.validateToken(); err != nil {
		return nil, err
	}
	params := url.Values{}
	if enterpriseID != "" {
		params.Set("idEnterprise", enterpriseID)
	}
	raw, err := c.get(ctx, endpointAssets, params)
	if err != nil {
		return nil, err
	}
	return DecodeAssets(raw)
}

func queryParams(q Query) url.Values {
	params := url.Values{}
	if q.EnterpriseID != "" {
		params.Set("idEnterprise", q.EnterpriseID)
	}
	if len(q.AssetIDs) > 0 {
		params.Set("machines", strings.Join(q.AssetIDs, ","))
	}
	params.Set("dateStart", q.Start.UTC().Format(time.RFC3339))
	params.Set("dateEnd", q.End.UTC().Format(time.RFC3339))
	params.Set("showInoperabilities", fmt.Sprintf("%t", q.ShowInoperabilities))
	return params
}

// get performs GET /v1/consumption/{endpoint} and returns the raw body.
func (c *FleetClient) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	u, err := url.Parse(c.BaseURL + "/v1/consumption/" + endpoint)
	if err != nil {
		return nil, Error.New("invalid base URL: %v", err)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, Error.New("failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/json")

	log := c.Log.With(zap.String("endpoint", endpoint))
	log.Debug("request", zap.String("path", u.Path), zap.String("query", u.RawQuery))

	start := time.Now()
	resp, err := c.Client.Do(req)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveFleetRequest(endpoint, metrics.ResultError, duration)
		log.Warn("request failed", zap.Error(err), zap.Duration("duration", duration))
		return nil, Error.New("failed to execute request: %v", err)
	}
	defer resp.Body.Close()

	log.Debug("response", zap.Int("status", resp.StatusCode), zap.Duration("duration", duration))

	if apiErr := statusError(resp); apiErr != nil {
		metrics.ObserveFleetRequest(endpoint, metrics.ResultError, duration)
		log.Warn("api error",
			zap.Int("status", apiErr.StatusCode),
			zap.String("code", apiErr.Code),
			zap.String("retry_after", apiErr.RetryAfter))
		return nil, apiErr
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		metrics.ObserveFleetRequest(endpoint, metrics.ResultError, duration)
		return nil, Error.New("failed to read %s response: %v", endpoint, err)
	}
	metrics.ObserveFleetRequest(endpoint, metrics.ResultSuccess, duration)
	return raw, nil
}

func statusError(resp *http.Response) *FleetAPIError {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return &FleetAPIError{
			StatusCode: resp.StatusCode,
			Code:       "UNAUTHORIZED",
			Message:    "Unauthorized: invalid token",
		}
	case http.StatusForbidden:
		return &FleetAPIError{
			StatusCode: resp.StatusCode,
			Code:       "FORBIDDEN",
			Message:    "Token lacks permission for this enterprise",
		}
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		return &FleetAPIError{
			StatusCode: resp.StatusCode,
			Code:       "RATE_LIMIT_EXCEEDED",
			Message:    fmt.Sprintf("Rate limit exceeded. Retry after: %s", retryAfter),
			RetryAfter: retryAfter,
		}
	default:
		return &FleetAPIError{
			StatusCode: resp.StatusCode,
			Code:       "API_ERROR",
			Message:    fmt.Sprintf("API returned status %d: %s", resp.StatusCode, resp.Status),
		}
	}
}

func (c *FleetClient) validateToken() error {
	if strings.TrimSpace(c.Token) == "" {
		return &FleetAPIError{
			Code:    "MISSING_TOKEN",
			Message: "fleet API token is required",
		}
	}
	if c.BaseURL == "" {
		return &FleetAPIError{
			Code:    "MISSING_BASE_URL",
			Message: "fleet API base URL is required",
		}
	}
	return nil
}
