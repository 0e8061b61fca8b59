package api

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/okian/capio/pkg/logger"
)

// ProxyHandler forwards /api/ requests to the backend base URL unchanged
// apart from the path prefix.
type ProxyHandler struct {
	target *url.URL
	proxy  *httputil.ReverseProxy
	logger logger.Logger
}

// NewProxyHandler builds a proxy to backendURL. A nil transport uses
// http.DefaultTransport.
func NewProxyHandler(backendURL string, transport http.RoundTripper, l logger.Logger) (*ProxyHandler, error) {
	target, err := url.Parse(strings.TrimRight(backendURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBackend, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("%w: %q must be absolute", ErrInvalidBackend, backendURL)
	}

	h := &ProxyHandler{target: target, logger: l}
	h.proxy = &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.URL.Path = target.Path + "/" + strings.TrimPrefix(pr.In.URL.Path, BackendPrefix)
			pr.Out.URL.RawPath = ""
			pr.SetXForwarded()
		},
		Transport:    transport,
		ErrorHandler: h.handleError,
	}
	return h, nil
}

// Target returns the backend base URL.
func (h *ProxyHandler) Target() string {
	return h.target.String()
}

func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.proxy.ServeHTTP(w, r)
}

func (h *ProxyHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error(r.Context(), "backend unreachable",
		logger.String("path", r.URL.Path),
		logger.String("target", h.target.String()),
		logger.Error(err),
	)
	writeError(w, http.StatusBadGateway, "backend_unreachable", ErrBackendUnreachable)
}
