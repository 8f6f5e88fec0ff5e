package capabilities

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/terrabrasilis/wmscap/pkg/auth"
	"github.com/terrabrasilis/wmscap/pkg/config"
	"github.com/terrabrasilis/wmscap/pkg/errors"
	"github.com/terrabrasilis/wmscap/pkg/observability"
	"github.com/terrabrasilis/wmscap/pkg/urlutil"
	"github.com/terrabrasilis/wmscap/pkg/wms"
)

// Query is appended to the parameterless service URL.
const Query = "?REQUEST=GetCapabilities&SERVICE=WMS&VERSION=" + wms.Version

// Options configures a [Client]. The zero value routes unauthenticated
// requests to the percent-encoded target with no proxy prefix, which only
// makes sense together with Direct.
type Options struct {
	// ProxyOGC prefixes the percent-encoded URL of unauthenticated requests.
	ProxyOGC string

	// AuthProxyURL prefixes the raw URL of authenticated requests. Empty
	// sends authenticated requests straight to the service.
	AuthProxyURL string

	// Direct sends unauthenticated requests straight to the service.
	Direct bool

	// Timeout bounds each request including the body read. Zero disables it.
	Timeout time.Duration

	// HTTPClient overrides the default http.Client.
	HTTPClient *http.Client

	// Logger receives debug output. Nil discards it.
	Logger *log.Logger
}

// OptionsFromConfig maps a loaded configuration onto Options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	authProxy, err := cfg.AuthProxyURL()
	if err != nil {
		return Options{}, err
	}
	return Options{
		ProxyOGC:     cfg.ProxyOGC,
		AuthProxyURL: authProxy,
		Direct:       cfg.Direct,
		Timeout:      cfg.Timeout.Std(),
	}, nil
}

// Client requests capabilities documents. It is safe for concurrent use.
type Client struct {
	http   *http.Client
	auth   auth.Authenticator
	opts   Options
	logger *log.Logger
}

// NewClient creates a Client. A nil authn behaves as [auth.Anonymous].
func NewClient(authn auth.Authenticator, opts Options) *Client {
	if authn == nil {
		authn = auth.Anonymous{}
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{http: httpClient, auth: authn, opts: opts, logger: logger}
}

// Response is a successful capabilities response.
type Response struct {
	URL        string      // URL actually requested (proxy prefix included)
	StatusCode int         // HTTP status code
	Status     string      // HTTP status line, e.g. "200 OK"
	Header     http.Header // Response headers
	Body       string      // Response body as text
}

// Result is the outcome of a fetch: exactly one of Response and Err is set.
type Result struct {
	Response *Response
	Err      error
}

// OK reports whether the fetch succeeded.
func (r Result) OK() bool { return r.Err == nil && r.Response != nil }

// HTTPError describes a non-2xx response.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: %s", urlutil.Redact(e.URL), e.Status)
}

// RequestURL returns the GetCapabilities URL for baseURL before any proxy
// routing is applied.
func RequestURL(baseURL string) string {
	return urlutil.RemoveParameters(baseURL) + Query
}

// Routes reported to observability hooks.
const (
	RouteOGCProxy  = "ogc-proxy"
	RouteAuthProxy = "auth-proxy"
	RouteDirect    = "direct"
)

// NewRequest builds the GET request for baseURL, applying proxy routing and
// the Authorization header.
func (c *Client) NewRequest(ctx context.Context, baseURL string) (*http.Request, error) {
	req, _, err := c.newRequest(ctx, baseURL)
	return req, err
}

func (c *Client) newRequest(ctx context.Context, baseURL string) (*http.Request, string, error) {
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, "", err
	}
	target := RequestURL(baseURL)

	header := http.Header{}
	var route string
	token := c.auth.Token()
	switch {
	case token != "":
		route = RouteAuthProxy
		header.Set("Authorization", "Bearer "+token)
		target = c.opts.AuthProxyURL + target
	case c.opts.Direct:
		route = RouteDirect
	default:
		route = RouteOGCProxy
		target = c.opts.ProxyOGC + urlutil.EncodeURIComponent(target)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidURL, err, "build capabilities request")
	}
	req.Header = header
	c.logger.Debug("capabilities request", "url", urlutil.Redact(target), "route", route)
	return req, route, nil
}

// GetCapabilities requests the capabilities document of the service at
// baseURL. It never returns a Go error; see [Result].
func (c *Client) GetCapabilities(ctx context.Context, baseURL string) Result {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	req, route, err := c.newRequest(ctx, baseURL)
	if err != nil {
		return Result{Err: err}
	}

	hooks := observability.Fetch()
	host := req.URL.Host
	start := time.Now()
	hooks.OnFetchStart(ctx, route, host)

	res, status := c.do(req)
	hooks.OnFetchComplete(ctx, route, host, status, time.Since(start), res.Err)
	return res
}

func (c *Client) do(req *http.Request) (Result, int) {
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("capabilities request failed", "err", err)
		return Result{Err: errors.Wrap(errors.ErrCodeNetwork, err, "request capabilities")}, 0
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Err: errors.Wrap(errors.ErrCodeNetwork, err, "read capabilities response")}, resp.StatusCode
	}

	url := req.URL.String()
	c.logger.Debug("capabilities response", "status", resp.StatusCode, "bytes", len(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &HTTPError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
		return Result{Err: errors.Wrap(errors.ErrCodeHTTPStatus, httpErr, "request capabilities")}, resp.StatusCode
	}

	return Result{Response: &Response{
		URL:        url,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       string(body),
	}}, resp.StatusCode
}

// GetCapabilitiesAsync runs [Client.GetCapabilities] in a goroutine. The
// returned channel yields exactly one Result and is then closed.
func (c *Client) GetCapabilitiesAsync(ctx context.Context, baseURL string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		ch <- c.GetCapabilities(ctx, baseURL)
	}()
	return ch
}

// FetchAll requests every URL with at most concurrency requests in flight
// (unbounded when concurrency <= 0). Results are in input order.
func (c *Client) FetchAll(ctx context.Context, urls []string, concurrency int) []Result {
	results := make([]Result, len(urls))
	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, u := range urls {
		g.Go(func() error {
			results[i] = c.GetCapabilities(ctx, u)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Fetch requests and parses the capabilities document of baseURL.
func (c *Client) Fetch(ctx context.Context, baseURL string) (*wms.Capabilities, error) {
	res := c.GetCapabilities(ctx, baseURL)
	if !res.OK() {
		return nil, res.Err
	}
	return wms.Parse(res.Response.Body)
}
