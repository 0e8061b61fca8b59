package gateway

import (
	"net/http"

	"github.com/okian/capio/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithLogger sets a custom logger for the client and its diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client with a copy of hc.
// Config.Timeout is applied to the copy when hc has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc == nil {
			return
		}
		cp := *hc
		if cp.Timeout == 0 {
			cp.Timeout = c.httpClient.Timeout
		}
		c.httpClient = &cp
	}
}

// WithRequestInterceptor appends a request interceptor after the defaults.
func WithRequestInterceptor(ic RequestInterceptor) Option {
	return func(c *Client) {
		if ic != nil {
			c.extraRequest = append(c.extraRequest, ic)
		}
	}
}

// WithResponseInterceptor appends a response interceptor after the defaults.
func WithResponseInterceptor(ic ResponseInterceptor) Option {
	return func(c *Client) {
		c.extraResponse = append(c.extraResponse, ic)
	}
}

// WithoutDefaultInterceptors drops the request ID, metrics and diagnostics
// interceptors.
func WithoutDefaultInterceptors() Option {
	return func(c *Client) {
		c.defaults = false
	}
}
