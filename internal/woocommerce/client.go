package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shinyyama/order-progress-backend/internal/logger"
	"github.com/shinyyama/order-progress-backend/internal/metrics"
)

const (
	apiPath = "/wp-json/wc/v3"

	// PageSize caps every list call. Listings are not paginated past the
	// first page: a store with more than PageSize open orders only shows the
	// first PageSize of them.
	PageSize = 100

	DefaultTimeout  = 15 * time.Second
	maxResponseSize = 10 * 1024 * 1024
	userAgent       = "order-progress-backend/1.0"
)

type Config struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	Timeout        time.Duration
	HTTPClient     *http.Client
	Metrics        *metrics.Registry
}

// Client talks to the WooCommerce REST API v3.
type Client struct {
	baseURL    string
	key        string
	secret     string
	httpClient *http.Client
	metrics    *metrics.Registry
}

// New never fails: missing settings surface as ErrConfigMissing on first use.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"),
		key:        cfg.ConsumerKey,
		secret:     cfg.ConsumerSecret,
		httpClient: httpClient,
		metrics:    cfg.Metrics,
	}
}

func (c *Client) configured() error {
	if c.baseURL == "" || c.key == "" || c.secret == "" {
		return ErrConfigMissing
	}
	return nil
}

// ListOrders returns up to PageSize orders whose status is in group.
func (c *Client) ListOrders(ctx context.Context, group StatusGroup) ([]Order, error) {
	statuses := group.Statuses()
	if len(statuses) == 0 {
		return nil, fmt.Errorf("woocommerce: unknown status group %q", group)
	}
	q := url.Values{}
	q.Set("status", strings.Join(statuses, ","))
	q.Set("per_page", strconv.Itoa(PageSize))

	const op = "list_orders"
	body, err := c.do(ctx, op, http.MethodGet, "/orders", q, nil)
	if err != nil {
		return nil, err
	}
	var raws []rawOrder
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, malformed(op, "decode: %v", err)
	}
	orders := make([]Order, 0, len(raws))
	for _, raw := range raws {
		o, err := parseOrder(op, raw)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (c *Client) GetOrder(ctx context.Context, id int64) (*Order, error) {
	const op = "get_order"
	body, err := c.do(ctx, op, http.MethodGet, "/orders/"+strconv.FormatInt(id, 10), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeOrder(op, body)
}

// ListProducts fetches category and image for ids in a single request. Ids are
// de-duplicated and sorted; only the first PageSize are requested.
func (c *Client) ListProducts(ctx context.Context, ids []int64) (map[int64]ProductMeta, error) {
	ids = normalizeIDs(ids)
	out := make(map[int64]ProductMeta, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	q := url.Values{}
	q.Set("include", strings.Join(parts, ","))
	q.Set("per_page", strconv.Itoa(PageSize))

	const op = "list_products"
	body, err := c.do(ctx, op, http.MethodGet, "/products", q, nil)
	if err != nil {
		return nil, err
	}
	var raws []rawProduct
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, malformed(op, "decode: %v", err)
	}
	for _, raw := range raws {
		out[raw.ID] = parseProduct(raw)
	}
	return out, nil
}

// SetOrderCompleted moves the order's lifecycle status to "completed". Only
// the status field is sent.
func (c *Client) SetOrderCompleted(ctx context.Context, id int64) (*Order, error) {
	const op = "update_order"
	payload := map[string]string{"status": StatusCompleted}
	body, err := c.do(ctx, op, http.MethodPut, "/orders/"+strconv.FormatInt(id, 10), nil, payload)
	if err != nil {
		return nil, err
	}
	return decodeOrder(op, body)
}

func decodeOrder(op string, body []byte) (*Order, error) {
	var raw rawOrder
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, malformed(op, "decode: %v", err)
	}
	o, err := parseOrder(op, raw)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// do runs one call. Cancellation of ctx is not propagated: once issued, a
// call runs until it finishes or the client timeout fires.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload any) ([]byte, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx).With(zap.String("op", op))
	ctx = context.WithoutCancel(ctx)

	if query == nil {
		query = url.Values{}
	}
	query.Set("consumer_key", c.key)
	query.Set("consumer_secret", c.secret)

	var reader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("woocommerce %s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPath+path+"?"+query.Encode(), reader)
	if err != nil {
		return nil, fmt.Errorf("woocommerce %s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(op, "unavailable", time.Since(start))
		log.Warn("woocommerce request failed", zap.Error(scrub(err)))
		return nil, fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, op, scrub(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.ObserveUpstream(op, "unavailable", elapsed)
		return nil, fmt.Errorf("%w: %s: read body: %v", ErrUpstreamUnavailable, op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.ObserveUpstream(op, "rejected", elapsed)
		log.Warn("woocommerce rejected request", zap.Int("status", resp.StatusCode), zap.Duration("elapsed", elapsed))
		return nil, newUpstreamError(op, resp.StatusCode, body)
	}
	c.metrics.ObserveUpstream(op, "ok", elapsed)
	log.Debug("woocommerce request done", zap.Int("status", resp.StatusCode), zap.Duration("elapsed", elapsed))
	return body, nil
}

// scrub drops the request URL, which carries the consumer secret, from
// transport errors.
func scrub(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err
	}
	return err
}

func normalizeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	if len(out) > PageSize {
		out = out[:PageSize]
	}
	return out
}
