// Package api configures the HTTP server exposing simulated patterns,
// Prometheus metrics and profiling endpoints.
package api

import (
	"net/http"
	"time"

	"xrdsim/internal/api/handler/v1handler"
	"xrdsim/internal/config"
	"xrdsim/pkg/controller"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options holds the HTTP server settings, usually built from config.Config
// via NewOptions.
type Options struct {
	// Addr is the TCP address the server listens on, e.g. ":8080".
	Addr string
	// ReadTimeout is the maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration
	// ReadHeaderTimeout is the amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration
	// RequestTimeout bounds the handling of a single request.
	RequestTimeout time.Duration
	// MaxHeaderBytes limits the size of request headers.
	MaxHeaderBytes int
	// MetricsPath is the HTTP path at which Prometheus metrics are served.
	MetricsPath string
	// Pprof mounts profiling handlers under controller.PprofPrefix.
	Pprof bool
}

// NewOptions maps the HTTP section of cfg onto Options.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Addr:              cfg.HTTP.Addr,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		RequestTimeout:    cfg.HTTP.RequestTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MetricsPath:       cfg.HTTP.MetricsPath,
		Pprof:             cfg.HTTP.Pprof,
	}
}

// TimeoutMessage is the plain-text body of a 503 sent when a request exceeds
// Options.RequestTimeout.
const TimeoutMessage = "request timed out"

type Deps struct {
	v1handler.Deps

	// Gatherer is scraped at MetricsPath. Nil means the default registry.
	Gatherer prometheus.Gatherer
}

// NewHandler builds the routed, middleware-wrapped handler:
//   - Prometheus metrics at MetricsPath
//   - v1 pattern routes
//   - pprof under /debug/pprof/ when enabled
//
// wrapped with CORS, access logging and a per-request timeout.
func NewHandler(deps Deps, opts Options) http.Handler {
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.Handle(opts.MetricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	v1handler.New(deps.Deps).Register(mux)
	if opts.Pprof {
		mux.Handle(controller.PprofPrefix, controller.Pprof())
	}

	var handler http.Handler = controller.WithCORS(mux)
	if opts.RequestTimeout > 0 {
		// http.TimeoutHandler drops headers set by the wrapped handler, so the
		// body goes out sniffed as text/plain.
		handler = http.TimeoutHandler(handler, opts.RequestTimeout, TimeoutMessage)
	}

	return controller.WithLogger(handler)
}

// NewServer returns an *http.Server serving NewHandler.
func NewServer(deps Deps, opts Options) *http.Server {
	return &http.Server{
		Addr:              opts.Addr,
		Handler:           NewHandler(deps, opts),
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
		MaxHeaderBytes:    opts.MaxHeaderBytes,
	}
}
