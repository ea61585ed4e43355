package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	apperrors "github.com/ecoledesexcellents/ecole-ui/internal/errors"
	obserrors "github.com/ecoledesexcellents/ecole-ui/internal/observability/errors"
)

// APIPrefix is where the edge server exposes the backend.
const APIPrefix = "/api"

// ProxyObserver records backend proxy failures.
type ProxyObserver interface {
	ProxyError(class string)
}

// ProxyOptions configures NewAPIProxy.
type ProxyOptions struct {
	// Target is the backend API root, e.g. http://localhost:8000/api.
	Target    *url.URL
	Transport http.RoundTripper
	Observer  ProxyObserver
	Logger    *slog.Logger
}

// NewAPIProxy forwards /api/... to the backend API root so the browser talks
// to a single origin and the backend cookies stay first-party.
func NewAPIProxy(opts ProxyOptions) (http.Handler, error) {
	if opts.Target == nil || opts.Target.Host == "" {
		return nil, errors.New("httpx: proxy target is required")
	}
	if opts.Target.Scheme != "http" && opts.Target.Scheme != "https" {
		return nil, fmt.Errorf("httpx: unsupported proxy scheme %q", opts.Target.Scheme)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	target := *opts.Target

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(&target)
			pr.SetXForwarded()
			if id := pr.In.Header.Get(HeaderRequestID); id != "" {
				pr.Out.Header.Set(HeaderRequestID, id)
			}
		},
		Transport: opts.Transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			class := obserrors.Classify(err)
			logger.WarnContext(r.Context(), "backend proxy failed",
				slog.String("path", r.URL.Path),
				slog.String("error_class", class),
				slog.Any("error", err),
			)
			if opts.Observer != nil {
				opts.Observer.ProxyError(class)
			}
			WriteError(w, ErrorParams{Code: http.StatusBadGateway, Err: apperrors.Network(err)})
		},
	}
	return http.StripPrefix(APIPrefix, rp), nil
}
