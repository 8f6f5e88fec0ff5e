package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terrabrasilis/wmscap/pkg/cache"
	"github.com/terrabrasilis/wmscap/pkg/capabilities"
	wmserrors "github.com/terrabrasilis/wmscap/pkg/errors"
	"github.com/terrabrasilis/wmscap/pkg/observability"
	"github.com/terrabrasilis/wmscap/pkg/urlutil"
	"github.com/terrabrasilis/wmscap/pkg/wms"
)

const (
	// defaultMaxBody caps relayed upstream bodies.
	defaultMaxBody = 32 << 20

	// maxRedirects matches net/http's default policy.
	maxRedirects = 10

	cacheKeyType = "proxy"
)

// Options configures a [Server].
type Options struct {
	// HTTPClient is the template for upstream requests on every route. The
	// server uses a copy whose CheckRedirect applies the host rules to each
	// hop; nil means a client bounded by Timeout.
	HTTPClient *http.Client

	// Timeout bounds upstream requests when HTTPClient is nil. Zero means
	// one minute.
	Timeout time.Duration

	// Cache stores upstream bodies; nil disables caching.
	Cache    cache.Cache
	CacheTTL time.Duration

	// AllowedHosts restricts upstream hosts; empty allows all.
	AllowedHosts []string

	Logger *log.Logger
}

// Server is the proxy HTTP server.
type Server struct {
	router   chi.Router
	client   *capabilities.Client
	upstream *http.Client
	cache    cache.Cache
	cacheTTL time.Duration
	allowed  map[string]bool
	maxBody  int64
	logger   *log.Logger
}

// New creates a Server and registers its routes.
func New(opts Options) *Server {
	s := &Server{
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		maxBody:  defaultMaxBody,
		logger:   opts.Logger,
	}
	if opts.HTTPClient != nil {
		c := *opts.HTTPClient
		s.upstream = &c
	} else {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = time.Minute
		}
		s.upstream = &http.Client{Timeout: timeout}
	}
	s.upstream.CheckRedirect = s.checkRedirect
	// The /api routes talk to services directly; routing through a proxy
	// would bypass the host rules.
	s.client = capabilities.NewClient(nil, capabilities.Options{
		Direct:     true,
		HTTPClient: s.upstream,
		Logger:     opts.Logger,
	})
	if s.cache == nil {
		s.cache = cache.NewNullCache()
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if len(opts.AllowedHosts) > 0 {
		s.allowed = make(map[string]bool, len(opts.AllowedHosts))
		for _, h := range opts.AllowedHosts {
			s.allowed[strings.ToLower(h)] = true
		}
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Cache"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ogc-proxy", s.handleOGCProxy)
	r.Get("/ogc-proxy/", s.handleOGCProxy)
	r.Route("/api", func(r chi.Router) {
		r.Get("/capabilities", s.handleCapabilities)
		r.Get("/dimensions", s.handleDimensions)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("proxy listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"id", middleware.GetReqID(r.Context()),
		)
	})
}

// =============================================================================
// OGC Proxy
// =============================================================================

// cachedResponse is the cache payload of a relayed upstream response.
type cachedResponse struct {
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

func (s *Server) handleOGCProxy(w http.ResponseWriter, r *http.Request) {
	target, err := s.checkTarget(r.URL.Query().Get("url"))
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	hooks := observability.Cache()
	key := cache.Key(cacheKeyType, target)
	if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var cached cachedResponse
		if json.Unmarshal(data, &cached) == nil {
			hooks.OnCacheHit(ctx, cacheKeyType)
			w.Header().Set("Content-Type", cached.ContentType)
			w.Header().Set("X-Cache", "HIT")
			w.Write(cached.Body)
			return
		}
	}
	hooks.OnCacheMiss(ctx, cacheKeyType)

	s.logger.Debug("proxy upstream", "url", urlutil.Redact(target))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		writeError(w, wmserrors.Wrap(wmserrors.ErrCodeInvalidURL, err, "build upstream request"))
		return
	}
	resp, err := s.upstream.Do(req)
	if err != nil {
		writeError(w, wmserrors.Wrap(wmserrors.ErrCodeNetwork, err, "upstream request"))
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody+1))
	if err != nil {
		writeError(w, wmserrors.Wrap(wmserrors.ErrCodeNetwork, err, "read upstream response"))
		return
	}
	if int64(len(body)) > s.maxBody {
		s.logger.Warn("upstream response too large", "url", urlutil.Redact(target), "limit", s.maxBody)
		writeError(w, wmserrors.New(wmserrors.ErrCodeResponseTooLarge,
			"upstream response exceeds %d bytes", s.maxBody))
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode == http.StatusOK {
		data, _ := json.Marshal(cachedResponse{ContentType: contentType, Body: body})
		if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
			s.logger.Warn("cache write failed", "err", err)
		} else {
			hooks.OnCacheSet(ctx, cacheKeyType, len(data))
		}
	}

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("X-Cache", "MISS")
	w.WriteHeader(resp.StatusCode)
	w.Write(body)
}

// checkTarget validates an upstream URL against scheme and host rules.
func (s *Server) checkTarget(raw string) (string, error) {
	if err := wmserrors.ValidateURL(raw); err != nil {
		return "", err
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", wmserrors.New(wmserrors.ErrCodeInvalidURL, "malformed target URL")
	}
	if s.allowed != nil && !s.allowed[strings.ToLower(u.Hostname())] {
		return "", wmserrors.New(wmserrors.ErrCodeForbidden, "host %q is not allowed", u.Hostname())
	}
	return raw, nil
}

// checkRedirect applies checkTarget to every redirect hop so an allowed host
// cannot bounce requests to a disallowed one.
func (s *Server) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return wmserrors.New(wmserrors.ErrCodeNetwork, "stopped after %d redirects", maxRedirects)
	}
	_, err := s.checkTarget(req.URL.String())
	return err
}

// =============================================================================
// JSON API
// =============================================================================

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	caps, err := s.fetch(r)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := caps.JSON()
	if err != nil {
		writeError(w, wmserrors.Wrap(wmserrors.ErrCodeInternal, err, "encode capabilities"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

type dimensionsResponse struct {
	Layer      string   `json:"layer,omitempty"`
	Dimensions []string `json:"dimensions"`
}

func (s *Server) handleDimensions(w http.ResponseWriter, r *http.Request) {
	caps, err := s.fetch(r)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := dimensionsResponse{Layer: r.URL.Query().Get("layer")}
	var times []time.Time
	if resp.Layer == "" {
		times, err = wms.Dimensions(caps)
	} else if l := caps.FindLayer(resp.Layer); l != nil {
		times, err = wms.LayerDimensions(l)
	} else {
		err = wmserrors.New(wmserrors.ErrCodeLayerNotFound, "layer %q not found", resp.Layer)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	resp.Dimensions = make([]string, len(times))
	for i, t := range times {
		resp.Dimensions[i] = t.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) fetch(r *http.Request) (*wms.Capabilities, error) {
	target, err := s.checkTarget(r.URL.Query().Get("url"))
	if err != nil {
		return nil, err
	}
	return s.client.Fetch(r.Context(), target)
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Error string         `json:"error"`
	Code  wmserrors.Code `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	// A rejected redirect surfaces wrapped in a transport error.
	if forbidden := wmserrors.Find(err, wmserrors.ErrCodeForbidden); forbidden != nil {
		err = forbidden
	}
	code := wmserrors.GetCode(err)
	writeJSON(w, statusFor(code), errorResponse{Error: wmserrors.UserMessage(err), Code: code})
}

func statusFor(code wmserrors.Code) int {
	switch code {
	case wmserrors.ErrCodeInvalidURL, wmserrors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case wmserrors.ErrCodeForbidden:
		return http.StatusForbidden
	case wmserrors.ErrCodeNoDimension, wmserrors.ErrCodeDimensionNotFound, wmserrors.ErrCodeLayerNotFound:
		return http.StatusNotFound
	case wmserrors.ErrCodeInvalidDimension:
		return http.StatusUnprocessableEntity
	case wmserrors.ErrCodeNetwork, wmserrors.ErrCodeHTTPStatus, wmserrors.ErrCodeParse,
		wmserrors.ErrCodeResponseTooLarge:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"failed to marshal response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
