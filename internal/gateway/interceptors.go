package gateway

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/capio/pkg/logger"
	"github.com/okian/capio/pkg/metrics"
)

// RequestIDHeader carries the per-request ID to the backend.
const RequestIDHeader = "X-Request-ID"

// RequestInterceptor runs before dispatch. An error aborts the call as a
// request setup failure.
type RequestInterceptor func(ctx context.Context, req *Request, httpReq *http.Request) error

// ResponseInterceptor observes or replaces call outcomes. OnSuccess may return
// a replacement response or an error; OnError may return a replacement error.
// A nil return from OnError keeps the error it was given.
type ResponseInterceptor struct {
	OnSuccess func(ctx context.Context, resp *Response) (*Response, error)
	OnError   func(ctx context.Context, err error) error
}

// RequestIDInterceptor tags every request with a fresh UUID.
func RequestIDInterceptor() RequestInterceptor {
	return func(_ context.Context, req *Request, httpReq *http.Request) error {
		req.ID = uuid.NewString()
		httpReq.Header.Set(RequestIDHeader, req.ID)
		return nil
	}
}

// MetricsInterceptor records request counts, latency and failure kinds.
func MetricsInterceptor() ResponseInterceptor {
	return ResponseInterceptor{
		OnSuccess: func(_ context.Context, resp *Response) (*Response, error) {
			if resp.Request != nil {
				ep := resp.Request.Endpoint
				metrics.RecordGatewayRequest(ep.Name, ep.Method, strconv.Itoa(resp.Status), sinceMs(resp.Request.Started))
			}
			return resp, nil
		},
		OnError: func(_ context.Context, err error) error {
			ge, ok := AsError(err)
			if !ok {
				return nil
			}
			status := "none"
			if ge.Kind == KindStatus {
				status = strconv.Itoa(ge.Status)
			}
			if req := ge.Request(); req != nil {
				metrics.RecordGatewayRequest(ge.Endpoint, ge.Method, status, sinceMs(req.Started))
			}
			metrics.RecordGatewayError(ge.Endpoint, ge.Kind.String())
			return nil
		},
	}
}

// DiagnosticsInterceptor logs failure detail and re-signals the same error:
// status, body and headers when a response arrived, the target URL when none
// did, and the setup error otherwise.
func DiagnosticsInterceptor(l logger.Logger) ResponseInterceptor {
	return ResponseInterceptor{
		OnError: func(ctx context.Context, err error) error {
			ge, ok := AsError(err)
			if !ok {
				l.Error(ctx, "api error", logger.Error(err))
				return nil
			}

			fields := []logger.Field{
				logger.String("endpoint", ge.Endpoint),
				logger.String("method", ge.Method),
				logger.String("url", ge.URL),
				logger.String("kind", ge.Kind.String()),
			}
			if req := ge.Request(); req != nil && req.ID != "" {
				fields = append(fields, logger.String("request_id", req.ID))
			}

			switch ge.Kind {
			case KindStatus:
				fields = append(fields,
					logger.Int("status", ge.Status),
					logger.String("body", string(ge.Body)),
					logger.Any("headers", ge.Header),
				)
				l.Error(ctx, "api error: response received", fields...)
			case KindTransport:
				fields = append(fields, logger.Error(ge.Err))
				l.Error(ctx, "api error: no response received", fields...)
			default:
				fields = append(fields, logger.Error(ge.Err))
				l.Error(ctx, "api error: error setting up request", fields...)
			}
			return nil
		},
	}
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
