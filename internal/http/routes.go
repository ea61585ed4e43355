package httpx

import (
	"io/fs"
	"log/slog"
	"net/http"
)

// RouterOptions holds everything the edge router needs. Only Gate is required.
type RouterOptions struct {
	Gate *EdgeGate
	// API proxies APIPrefix to the backend when set.
	API http.Handler
	// Static is the exported frontend build.
	Static fs.FS
	// Metrics serves /metrics when set.
	Metrics  http.Handler
	Checks   map[string]HealthChecker
	Observer HTTPObserver
	Logger   *slog.Logger
}

// NewRouter creates the edge handler with logging, recovery and request ids.
func NewRouter(opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gate := opts.Gate
	if gate == nil {
		gate = NewEdgeGate(EdgeGateOptions{Logger: logger})
	}

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readinessHandler(opts.Checks, logger))
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}
	if opts.API != nil {
		mux.Handle(APIPrefix+"/", opts.API)
	}

	var pages http.Handler = http.NotFoundHandler()
	if opts.Static != nil {
		pages = SPAHandler(opts.Static)
	}
	mux.Handle("/", gate.Middleware(pages))

	return Chain(mux,
		RequestID(),
		Logging(logger, opts.Observer),
		Recover(logger),
	)
}
