// Package gateway is the dashboard's HTTP client for the backend REST API.
//
// A Client holds the shared configuration (base URL, default headers and the
// interceptor chain) and exposes one method per backend endpoint. Every method
// issues exactly one request and returns the outcome unmodified: there is no
// retry, caching, deduplication or rate limiting.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/capio/pkg/logger"
)

// DefaultContentType is sent on every request.
const DefaultContentType = "application/json"

// Config is the shared client configuration. It is copied on New and never
// mutated afterwards.
type Config struct {
	// BaseURL is the absolute URL every endpoint path is appended to.
	BaseURL string
	// Headers are added to every request after Content-Type.
	Headers map[string]string
	// Timeout bounds each round trip; zero means no bound.
	Timeout time.Duration
}

// Request describes one outgoing call. Interceptors receive it through the
// Response or Error they are handed.
type Request struct {
	Endpoint Endpoint
	ID       string
	URL      string
	Payload  []byte
	Started  time.Time
}

// Response is the success value of a call. Data is the body exactly as received.
type Response struct {
	Status  int
	Header  http.Header
	Data    json.RawMessage
	Request *Request
}

// Client issues backend requests. It is safe for concurrent use.
type Client struct {
	base       *url.URL
	headers    http.Header
	httpClient *http.Client

	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor

	// set by options, folded into the chains by New
	extraRequest  []RequestInterceptor
	extraResponse []ResponseInterceptor
	defaults      bool

	logger logger.Logger
}

// New builds a Client. BaseURL must be absolute (scheme and host).
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: base url: %w", ErrInvalidConfig, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: base url %q must be absolute", ErrInvalidConfig, cfg.BaseURL)
	}

	headers := http.Header{}
	headers.Set("Content-Type", DefaultContentType)
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}

	c := &Client{
		base:       base,
		headers:    headers,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		defaults:   true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("gateway")
	}

	if c.defaults {
		c.requestInterceptors = append(c.requestInterceptors, RequestIDInterceptor())
		c.responseInterceptors = append(c.responseInterceptors,
			MetricsInterceptor(),
			DiagnosticsInterceptor(c.logger),
		)
	}
	c.requestInterceptors = append(c.requestInterceptors, c.extraRequest...)
	c.responseInterceptors = append(c.responseInterceptors, c.extraResponse...)
	c.extraRequest, c.extraResponse = nil, nil
	return c, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Headers returns a copy of the default headers.
func (c *Client) Headers() http.Header {
	return c.headers.Clone()
}

func (c *Client) do(ctx context.Context, ep Endpoint, payload any, query url.Values) (*Response, error) {
	req := &Request{Endpoint: ep, Started: time.Now()}

	httpReq, err := c.build(ctx, req, payload, query)
	if err != nil {
		return nil, c.reject(ctx, &Error{
			Kind:     KindRequest,
			Endpoint: ep.Name,
			Method:   ep.Method,
			URL:      req.URL,
			Err:      err,
		}, req)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.reject(ctx, &Error{
			Kind:     KindTransport,
			Endpoint: ep.Name,
			Method:   ep.Method,
			URL:      req.URL,
			Err:      err,
		}, req)
	}
	defer func() {
		_ = httpResp.Body.Close()
	}()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.reject(ctx, &Error{
			Kind:     KindTransport,
			Endpoint: ep.Name,
			Method:   ep.Method,
			URL:      req.URL,
			Err:      fmt.Errorf("read body: %w", err),
		}, req)
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		return nil, c.reject(ctx, &Error{
			Kind:     KindStatus,
			Endpoint: ep.Name,
			Method:   ep.Method,
			URL:      req.URL,
			Status:   httpResp.StatusCode,
			Header:   httpResp.Header,
			Body:     body,
		}, req)
	}

	resp := &Response{
		Status:  httpResp.StatusCode,
		Header:  httpResp.Header,
		Data:    body,
		Request: req,
	}
	return c.fulfill(ctx, resp)
}

// build prepares the HTTP request. Any error here is a request setup failure.
func (c *Client) build(ctx context.Context, req *Request, payload any, query url.Values) (*http.Request, error) {
	u := *c.base
	u.Path = c.base.Path + req.Endpoint.Path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	req.URL = u.String()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		req.Payload = data
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Endpoint.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	maps.Copy(httpReq.Header, c.headers.Clone())

	for _, ic := range c.requestInterceptors {
		if err := ic(ctx, req, httpReq); err != nil {
			return nil, err
		}
	}
	return httpReq, nil
}

// fulfill runs the success handlers in order. A handler error switches the
// remainder of the chain to the failure handlers.
func (c *Client) fulfill(ctx context.Context, resp *Response) (*Response, error) {
	for i, ic := range c.responseInterceptors {
		if ic.OnSuccess == nil {
			continue
		}
		next, err := ic.OnSuccess(ctx, resp)
		if err != nil {
			return nil, c.rejectFrom(ctx, i+1, err)
		}
		if next != nil {
			resp = next
		}
	}
	return resp, nil
}

func (c *Client) reject(ctx context.Context, gerr *Error, req *Request) error {
	gerr.request = req
	return c.rejectFrom(ctx, 0, gerr)
}

// rejectFrom runs the failure handlers starting at index from. A handler
// returning nil leaves the current error in place.
func (c *Client) rejectFrom(ctx context.Context, from int, err error) error {
	for _, ic := range c.responseInterceptors[from:] {
		if ic.OnError == nil {
			continue
		}
		if next := ic.OnError(ctx, err); next != nil {
			err = next
		}
	}
	return err
}
