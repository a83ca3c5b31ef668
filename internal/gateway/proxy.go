package gateway

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/aussiebroadwan/identity/pkg/slogx"
)

const msgUnavailable = "Service temporarily unavailable"

// BreakerSettings tune the circuit breaker in front of each upstream.
type BreakerSettings struct {
	// MaxFailures consecutive failures open the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

// DefaultBreakerSettings trip after 5 failures and probe after 30s.
var DefaultBreakerSettings = BreakerSettings{MaxFailures: 5, OpenTimeout: 30 * time.Second}

type route struct {
	prefix  string
	target  *url.URL
	breaker *gobreaker.CircuitBreaker
	proxy   *httputil.ReverseProxy
}

// Proxy forwards requests to the upstream whose prefix matches the path.
type Proxy struct {
	routes []*route
	logger *slog.Logger
}

// NewProxy builds a proxy over routes (prefix to upstream base URL). A nil
// transport uses http.DefaultTransport.
func NewProxy(routes map[string]string, settings BreakerSettings, transport http.RoundTripper, logger *slog.Logger) (*Proxy, error) {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.Default()
	}
	if settings.MaxFailures == 0 {
		settings.MaxFailures = DefaultBreakerSettings.MaxFailures
	}

	p := &Proxy{logger: logger}
	for prefix, raw := range routes {
		target, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", prefix, err)
		}
		r := &route{prefix: prefix, target: target}
		r.breaker = newBreaker(prefix, settings, logger)
		r.proxy = &httputil.ReverseProxy{
			Rewrite: func(pr *httputil.ProxyRequest) {
				pr.SetURL(target)
				pr.SetXForwarded()
			},
			Transport:    &breakerTransport{next: transport, cb: r.breaker},
			ErrorHandler: p.upstreamError(prefix),
		}
		p.routes = append(p.routes, r)
	}

	// Longest prefix first so the most specific route wins.
	slices.SortFunc(p.routes, func(a, b *route) int {
		if d := len(b.prefix) - len(a.prefix); d != 0 {
			return d
		}
		return strings.Compare(a.prefix, b.prefix)
	})
	return p, nil
}

func (p *Proxy) match(path string) *route {
	for _, r := range p.routes {
		if strings.HasPrefix(path, r.prefix) {
			return r
		}
	}
	return nil
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt := p.match(r.URL.Path)
	if rt == nil {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	rt.proxy.ServeHTTP(w, r)
}

// BreakerState reports the breaker state for the route serving path.
func (p *Proxy) BreakerState(path string) (gobreaker.State, bool) {
	rt := p.match(path)
	if rt == nil {
		return gobreaker.StateClosed, false
	}
	return rt.breaker.State(), true
}

func (p *Proxy) upstreamError(prefix string) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		slogx.FromContext(r.Context()).Warn("upstream unavailable",
			"route", prefix,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusServiceUnavailable, msgUnavailable)
	}
}

func newBreaker(name string, s BreakerSettings, logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"route", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}

// upstreamStatusError marks a 5xx answer as a breaker failure while the
// response itself still reaches the client.
type upstreamStatusError struct {
	resp *http.Response
}

func (e *upstreamStatusError) Error() string {
	return fmt.Sprintf("upstream returned %d", e.resp.StatusCode)
}

type breakerTransport struct {
	next http.RoundTripper
	cb   *gobreaker.CircuitBreaker
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	res, err := t.cb.Execute(func() (interface{}, error) {
		resp, err := t.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, &upstreamStatusError{resp: resp}
		}
		return resp, nil
	})

	var statusErr *upstreamStatusError
	if errors.As(err, &statusErr) {
		return statusErr.resp, nil
	}
	if err != nil {
		return nil, err
	}
	return res.(*http.Response), nil
}
