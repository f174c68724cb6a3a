package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/sumup/dropin"
)

const defaultTimeout = 5 * time.Second

// HTTPClient talks to a remote vault service over its REST API:
//
//	GET    {base}/customers/{customer_id}/payment-methods?default_first=true
//	DELETE {base}/customers/{customer_id}/payment-methods/{nonce}
type HTTPClient struct {
	client     *fasthttp.Client
	baseURL    string
	customerID string
	apiKey     string
	timeout    time.Duration
}

// HTTPOption customizes an [HTTPClient].
type HTTPOption func(*HTTPClient)

// WithAPIKey sends key as a bearer token.
func WithAPIKey(key string) HTTPOption {
	return func(c *HTTPClient) {
		c.apiKey = key
	}
}

// WithTimeout bounds calls made without a context deadline.
func WithTimeout(d time.Duration) HTTPOption {
	if d <= 0 {
		panic("vault: timeout must be positive")
	}
	return func(c *HTTPClient) {
		c.timeout = d
	}
}

// WithFastHTTPClient replaces the underlying fasthttp client.
func WithFastHTTPClient(client *fasthttp.Client) HTTPOption {
	return func(c *HTTPClient) {
		if client != nil {
			c.client = client
		}
	}
}

// NewHTTPClient returns a client for customerID's vault at baseURL.
func NewHTTPClient(baseURL, customerID string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		client:     &fasthttp.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		customerID: customerID,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

type listResponse struct {
	PaymentMethods []dropin.PaymentMethod `json:"payment_methods"`
}

// FetchPaymentMethods implements [dropin.VaultClient].
func (c *HTTPClient) FetchPaymentMethods(ctx context.Context, opts dropin.FetchOptions) ([]dropin.PaymentMethod, error) {
	uri := fmt.Sprintf("%s/customers/%s/payment-methods?default_first=%t", c.baseURL, url.PathEscape(c.customerID), opts.DefaultFirst)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	c.authorize(req)

	if err := c.do(ctx, req, resp); err != nil {
		return nil, fmt.Errorf("vault: fetch payment methods: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("vault: fetch payment methods: %w", err)
	}

	var body listResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("vault: decode payment methods: %w", err)
	}
	return body.PaymentMethods, nil
}

// DeletePaymentMethod implements [dropin.VaultClient].
func (c *HTTPClient) DeletePaymentMethod(ctx context.Context, nonce string) error {
	uri := fmt.Sprintf("%s/customers/%s/payment-methods/%s", c.baseURL, url.PathEscape(c.customerID), url.PathEscape(nonce))

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodDelete)
	c.authorize(req)

	if err := c.do(ctx, req, resp); err != nil {
		return fmt.Errorf("vault: delete payment method: %w", err)
	}
	if resp.StatusCode() == fasthttp.StatusNotFound {
		return ErrNotFound
	}
	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("vault: delete payment method: %w", err)
	}
	return nil
}

func (c *HTTPClient) authorize(req *fasthttp.Request) {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *HTTPClient) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		return c.client.DoDeadline(req, resp, deadline)
	}
	return c.client.DoTimeout(req, resp, c.timeout)
}

func checkStatus(resp *fasthttp.Response) error {
	status := resp.StatusCode()
	if status >= fasthttp.StatusOK && status < fasthttp.StatusMultipleChoices {
		return nil
	}
	snippet := resp.Body()
	if len(snippet) > 4096 {
		snippet = snippet[:4096]
	}
	return fmt.Errorf("unexpected status %d: %s", status, strings.TrimSpace(string(snippet)))
}
