package client

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/meddocs/internal/common"
	"github.com/dmitrijs2005/meddocs/internal/logging"
	"github.com/google/uuid"
)

// TokenSource supplies the bearer credential attached to outgoing
// requests. An empty token means "no credential".
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a plain function to a TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Middleware decorates an http.RoundTripper.
type Middleware func(http.RoundTripper) http.RoundTripper

// Chain wraps rt with the given middleware. The first element becomes the
// outermost decorator, i.e. the first to see the request.
func Chain(rt http.RoundTripper, mws ...Middleware) http.RoundTripper {
	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}
	return rt
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

// WithAuth attaches "Authorization: Bearer <token>" when ts currently
// holds one. The token is read per attempt, so a request issued after
// login carries the fresh credential.
func WithAuth(ts TokenSource) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if ts != nil {
				if token := ts.Token(); token != "" {
					req = req.Clone(req.Context())
					req.Header.Set(common.AuthHeaderName, common.BearerPrefix+token)
				}
			}
			return next.RoundTrip(req)
		})
	}
}

// WithObservability tags every request with a generated id and logs
// method, path, status and duration.
func WithObservability(log logging.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripFunc(func(req *http.Request) (*http.Response, error) {
			id := uuid.NewString()
			req = req.Clone(req.Context())
			req.Header.Set("X-Request-Id", id)

			start := time.Now()
			resp, err := next.RoundTrip(req)

			l := log.With("request_id", id, "method", req.Method, "path", req.URL.Path)
			if err != nil {
				l.Warn(req.Context(), "request failed", "elapsed", time.Since(start), "error", err)
				return resp, err
			}
			l.Debug(req.Context(), "request done", "status", resp.StatusCode, "elapsed", time.Since(start))
			return resp, nil
		})
	}
}
