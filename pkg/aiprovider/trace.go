package aiprovider

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"
	"go.mau.fi/util/random"
)

// contextLogger prefers the request-scoped logger attached by the HTTP layer.
func contextLogger(ctx context.Context, fallback *zerolog.Logger) *zerolog.Logger {
	if ctxLog := zerolog.Ctx(ctx); ctxLog != nil && ctxLog.GetLevel() != zerolog.Disabled {
		return ctxLog
	}
	return fallback
}

func newOutboundRequestID() string {
	return "rci_" + random.String(12)
}

func makeRequestTraceMiddleware(log zerolog.Logger) option.Middleware {
	traceLog := log.With().Str("component", "model_http").Logger()
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		start := time.Now()
		requestID := strings.TrimSpace(req.Header.Get("x-request-id"))
		if requestID == "" {
			requestID = newOutboundRequestID()
			req.Header.Set("x-request-id", requestID)
		}
		reqPath := ""
		if req.URL != nil {
			reqPath = req.URL.Path
		}
		traceLog.Debug().
			Str("request_id", requestID).
			Str("request_method", req.Method).
			Str("request_path", reqPath).
			Msg("Dispatching model HTTP request")

		resp, err := next(req)
		elapsedMs := time.Since(start).Milliseconds()
		if err != nil {
			traceLog.Error().
				Err(err).
				Str("request_id", requestID).
				Str("request_path", reqPath).
				Int64("duration_ms", elapsedMs).
				Msg("Model HTTP request failed")
			return nil, err
		}

		event := traceLog.Debug().
			Str("request_id", requestID).
			Str("request_path", reqPath).
			Int("status_code", resp.StatusCode).
			Int64("duration_ms", elapsedMs)
		if upstreamID := strings.TrimSpace(resp.Header.Get("x-request-id")); upstreamID != "" {
			event = event.Str("upstream_request_id", upstreamID)
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			event.Msg("Model HTTP response error")
		} else {
			event.Msg("Model HTTP response")
		}
		return resp, nil
	}
}
