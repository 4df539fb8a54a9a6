// Package recordstore is the HTTP client for the remote record store that
// owns the durable booking, mechanic and deal lists. The store speaks plain
// JSON; ids are assigned server-side.
package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/glenxmac/CC-PipeLineTool/internal/metrics"
	"github.com/glenxmac/CC-PipeLineTool/internal/model"
)

// Client calls the remote record store. Outbound calls share a token bucket
// so a busy grid never hammers the store; GET responses can be cached in
// Redis for a short TTL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter

	redis    *redis.Client
	cacheTTL time.Duration
}

// Credentials configures the OAuth2 client-credentials grant used to obtain
// bearer tokens for the store.
type Credentials struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// New constructs a client. Empty credentials produce an unauthenticated
// client, which the mock store used in development accepts.
func New(baseURL string, creds Credentials, perSecond float64, burst int) *Client {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	if creds.TokenURL != "" {
		cc := clientcredentials.Config{
			TokenURL:     creds.TokenURL,
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Scopes:       creds.Scopes,
		}
		httpClient = cc.Client(context.Background())
		httpClient.Timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// UseRedisCache configures optional Redis caching for GET endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// ListBookings fetches bookings with dates in [from, to] (YYYY-MM-DD).
func (c *Client) ListBookings(ctx context.Context, from, to string) ([]model.Booking, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bookings?from=%s&to=%s", c.baseURL, url.QueryEscape(from), url.QueryEscape(to))
	cacheKey := fmt.Sprintf("bookings:%s:%s", from, to)

	var wrap struct {
		Bookings []model.Booking `json:"bookings"`
	}
	if c.readCache(ctx, cacheKey, &wrap) {
		return wrap.Bookings, nil
	}
	if err := c.doGet(ctx, endpoint, &wrap); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, wrap)
	return wrap.Bookings, nil
}

// CreateBooking creates a booking; the response carries the assigned id.
func (c *Client) CreateBooking(ctx context.Context, b model.Booking) (model.Booking, error) {
	var created model.Booking
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/v1/bookings", b, &created); err != nil {
		return model.Booking{}, err
	}
	c.invalidate(ctx, "bookings:*")
	return created, nil
}

// UpdateBooking replaces the booking with the given id.
func (c *Client) UpdateBooking(ctx context.Context, id string, b model.Booking) (model.Booking, error) {
	var updated model.Booking
	endpoint := c.baseURL + "/api/v1/bookings/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodPut, endpoint, b, &updated); err != nil {
		return model.Booking{}, err
	}
	c.invalidate(ctx, "bookings:*")
	return updated, nil
}

// DeleteBooking removes the booking with the given id.
func (c *Client) DeleteBooking(ctx context.Context, id string) error {
	endpoint := c.baseURL + "/api/v1/bookings/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodDelete, endpoint, nil, nil); err != nil {
		return err
	}
	c.invalidate(ctx, "bookings:*")
	return nil
}

// ListMechanics fetches the employee list used as workshop resources.
func (c *Client) ListMechanics(ctx context.Context) ([]model.Mechanic, error) {
	var wrap struct {
		Mechanics []model.Mechanic `json:"mechanics"`
	}
	if c.readCache(ctx, "mechanics", &wrap) {
		return wrap.Mechanics, nil
	}
	if err := c.doGet(ctx, c.baseURL+"/api/v1/mechanics", &wrap); err != nil {
		return nil, err
	}
	c.writeCache(ctx, "mechanics", wrap)
	return wrap.Mechanics, nil
}

// ListDeals fetches all deals.
func (c *Client) ListDeals(ctx context.Context) ([]model.Deal, error) {
	var wrap struct {
		Deals []model.Deal `json:"deals"`
	}
	if err := c.doGet(ctx, c.baseURL+"/api/v1/deals", &wrap); err != nil {
		return nil, err
	}
	return wrap.Deals, nil
}

// CreateDeal creates a deal; the response carries the assigned id.
func (c *Client) CreateDeal(ctx context.Context, d model.Deal) (model.Deal, error) {
	var created model.Deal
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/v1/deals", d, &created); err != nil {
		return model.Deal{}, err
	}
	return created, nil
}

// UpdateDeal replaces the deal with the given id.
func (c *Client) UpdateDeal(ctx context.Context, id string, d model.Deal) (model.Deal, error) {
	var updated model.Deal
	endpoint := c.baseURL + "/api/v1/deals/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodPut, endpoint, d, &updated); err != nil {
		return model.Deal{}, err
	}
	return updated, nil
}

// DeleteDeal removes the deal with the given id.
func (c *Client) DeleteDeal(ctx context.Context, id string) error {
	endpoint := c.baseURL + "/api/v1/deals/" + url.PathEscape(id)
	return c.doJSON(ctx, http.MethodDelete, endpoint, nil, nil)
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

// invalidate drops cached GET responses matching the pattern after a write.
func (c *Client) invalidate(ctx context.Context, pattern string) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	keys, err := c.redis.Keys(ctx, pattern).Result()
	if err != nil || len(keys) == 0 {
		return
	}
	_ = c.redis.Del(ctx, keys...).Err()
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncRecordStoreError()
		return fmt.Errorf("record store call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.IncRecordStoreError()
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("record store %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, text)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode record store response: %w", err)
	}
	return nil
}
