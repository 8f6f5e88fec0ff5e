package capabilities

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/terrabrasilis/wmscap/pkg/auth"
	"github.com/terrabrasilis/wmscap/pkg/config"
	"github.com/terrabrasilis/wmscap/pkg/errors"
	"github.com/terrabrasilis/wmscap/pkg/observability"
)

const service = "http://wms.example.org/geoserver/wms"

func wantTarget() string {
	return service + "?REQUEST=GetCapabilities&SERVICE=WMS&VERSION=1.3.0"
}

func TestRequestURL(t *testing.T) {
	got := RequestURL(service + "?map=/data/x.map&access_token=abc&SERVICE=WFS")
	if got != wantTarget() {
		t.Errorf("RequestURL() = %q, want %q", got, wantTarget())
	}
}

func TestGetCapabilities_GenericProxy(t *testing.T) {
	var rawQuery, authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ogc-proxy/" {
			t.Errorf("path = %q, want /ogc-proxy/", r.URL.Path)
		}
		rawQuery = r.URL.RawQuery
		authHeader = r.Header.Get("Authorization")
		if got := r.URL.Query().Get("url"); got != wantTarget() {
			t.Errorf("decoded url = %q, want %q", got, wantTarget())
		}
		w.Header().Set("Content-Type", "text/xml")
		w.Write([]byte("<WMS_Capabilities/>"))
	}))
	defer server.Close()

	c := NewClient(auth.Anonymous{}, Options{ProxyOGC: server.URL + "/ogc-proxy/?url="})
	res := c.GetCapabilities(context.Background(), service+"?foo=bar")

	if !res.OK() {
		t.Fatalf("GetCapabilities failed: %v", res.Err)
	}
	if want := "url=http%3A%2F%2Fwms.example.org%2Fgeoserver%2Fwms%3FREQUEST%3DGetCapabilities%26SERVICE%3DWMS%26VERSION%3D1.3.0"; rawQuery != want {
		t.Errorf("raw query = %q, want %q", rawQuery, want)
	}
	if authHeader != "" {
		t.Errorf("Authorization = %q, want none", authHeader)
	}
	if res.Response.Body != "<WMS_Capabilities/>" {
		t.Errorf("Body = %q", res.Response.Body)
	}
	if res.Response.StatusCode != http.StatusOK || res.Response.Header.Get("Content-Type") != "text/xml" {
		t.Errorf("Response = %+v", res.Response)
	}
}

func TestGetCapabilities_Authenticated(t *testing.T) {
	var requestURI, authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestURI = r.RequestURI
		authHeader = r.Header.Get("Authorization")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := NewClient(auth.Static("tok"), Options{
		ProxyOGC:     "http://unused.invalid/?url=",
		AuthProxyURL: server.URL + "/oauth-api/proxy?url=",
	})
	res := c.GetCapabilities(context.Background(), service+"?a=1")

	if !res.OK() {
		t.Fatalf("GetCapabilities failed: %v", res.Err)
	}
	if authHeader != "Bearer tok" {
		t.Errorf("Authorization = %q, want %q", authHeader, "Bearer tok")
	}
	if want := "/oauth-api/proxy?url=" + wantTarget(); requestURI != want {
		t.Errorf("request URI = %q, want %q", requestURI, want)
	}
}

func TestGetCapabilities_Direct(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wms" {
			t.Errorf("path = %q, want /wms", r.URL.Path)
		}
		if r.URL.RawQuery != "REQUEST=GetCapabilities&SERVICE=WMS&VERSION=1.3.0" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := NewClient(nil, Options{Direct: true})
	if res := c.GetCapabilities(context.Background(), server.URL+"/wms?x=y"); !res.OK() {
		t.Fatalf("GetCapabilities failed: %v", res.Err)
	}
}

func TestGetCapabilities_HTTPErrorIsData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(nil, Options{Direct: true})
	res := c.GetCapabilities(context.Background(), server.URL+"/wms")

	if res.OK() || res.Response != nil {
		t.Fatal("expected failure result")
	}
	if !errors.Is(res.Err, errors.ErrCodeHTTPStatus) {
		t.Errorf("code = %v, want %v", errors.GetCode(res.Err), errors.ErrCodeHTTPStatus)
	}
	var httpErr *HTTPError
	if !stderrors.As(res.Err, &httpErr) {
		t.Fatalf("error %v does not wrap *HTTPError", res.Err)
	}
	if httpErr.StatusCode != http.StatusBadGateway || !strings.Contains(httpErr.Body, "upstream down") {
		t.Errorf("HTTPError = %+v", httpErr)
	}
}

func TestGetCapabilities_TransportErrorIsData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	c := NewClient(nil, Options{Direct: true})
	res := c.GetCapabilities(context.Background(), addr+"/wms")

	if res.OK() {
		t.Fatal("expected failure result")
	}
	if !errors.Is(res.Err, errors.ErrCodeNetwork) {
		t.Errorf("code = %v, want %v", errors.GetCode(res.Err), errors.ErrCodeNetwork)
	}
}

func TestGetCapabilities_InvalidURL(t *testing.T) {
	c := NewClient(nil, Options{})
	res := c.GetCapabilities(context.Background(), "ftp://example.org/wms")
	if !errors.Is(res.Err, errors.ErrCodeInvalidURL) {
		t.Errorf("code = %v, want %v", errors.GetCode(res.Err), errors.ErrCodeInvalidURL)
	}
}

func TestGetCapabilities_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := NewClient(nil, Options{Direct: true, Timeout: 50 * time.Millisecond})
	res := c.GetCapabilities(context.Background(), server.URL+"/wms")
	if !errors.Is(res.Err, errors.ErrCodeNetwork) {
		t.Errorf("code = %v, want %v", errors.GetCode(res.Err), errors.ErrCodeNetwork)
	}
	if !stderrors.Is(res.Err, context.DeadlineExceeded) {
		t.Errorf("error %v should wrap context.DeadlineExceeded", res.Err)
	}
}

func TestGetCapabilitiesAsync(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := NewClient(nil, Options{Direct: true})
	ch := c.GetCapabilitiesAsync(context.Background(), server.URL+"/wms")

	res, ok := <-ch
	if !ok || !res.OK() {
		t.Fatalf("first receive = %+v, %v", res, ok)
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after one result")
	}
}

func TestFetchAll(t *testing.T) {
	var inFlight, peak atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(r.URL.Path))
	}))
	defer server.Close()

	urls := []string{server.URL + "/a", server.URL + "/missing", server.URL + "/c", server.URL + "/d"}
	c := NewClient(nil, Options{Direct: true})
	results := c.FetchAll(context.Background(), urls, 2)

	if len(results) != len(urls) {
		t.Fatalf("got %d results, want %d", len(results), len(urls))
	}
	if !results[0].OK() || results[0].Response.Body != "/a" {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].OK() {
		t.Error("results[1] should have failed")
	}
	if !results[3].OK() || results[3].Response.Body != "/d" {
		t.Errorf("results[3] = %+v", results[3])
	}
	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
	}
}

func TestFetch(t *testing.T) {
	doc, err := os.ReadFile("../wms/testdata/capabilities.xml")
	if err != nil {
		t.Fatal(err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(doc)
	}))
	defer server.Close()

	c := NewClient(nil, Options{Direct: true})
	caps, err := c.Fetch(context.Background(), server.URL+"/wms")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if caps.Service.Title != "Deforestation Monitoring" {
		t.Errorf("Service.Title = %q", caps.Service.Title)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.ProxyOGC = "https://app.example.org/ogc-proxy/?url="
	cfg.AuthenticationProxyHost = "/oauth-api/proxy?url="
	cfg.BaseURL = "https://app.example.org/"
	cfg.Timeout = config.Duration(5 * time.Second)

	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if opts.AuthProxyURL != "https://app.example.org/oauth-api/proxy?url=" {
		t.Errorf("AuthProxyURL = %q", opts.AuthProxyURL)
	}
	if opts.ProxyOGC != cfg.ProxyOGC || opts.Timeout != 5*time.Second {
		t.Errorf("Options = %+v", opts)
	}

	cfg.BaseURL = ""
	if _, err := OptionsFromConfig(cfg); err == nil {
		t.Error("expected error for unresolvable auth proxy host")
	}
}

func TestHTTPError_RedactsToken(t *testing.T) {
	e := &HTTPError{URL: "http://x/wms?access_token=s3cret", Status: "401 Unauthorized"}
	if strings.Contains(e.Error(), "s3cret") {
		t.Errorf("Error() leaks token: %s", e.Error())
	}
}

type recordingHooks struct {
	observability.NoopFetchHooks
	mu     sync.Mutex
	routes []string
	status []int
}

func (h *recordingHooks) OnFetchComplete(_ context.Context, route, _ string, status int, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, route)
	h.status = append(h.status, status)
}

func TestGetCapabilities_FetchHooks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	hooks := &recordingHooks{}
	observability.SetFetchHooks(hooks)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	NewClient(nil, Options{ProxyOGC: server.URL + "/?url="}).GetCapabilities(ctx, service)
	NewClient(nil, Options{Direct: true}).GetCapabilities(ctx, server.URL)
	NewClient(auth.Static("tok"), Options{AuthProxyURL: server.URL + "/p?url="}).GetCapabilities(ctx, service)

	want := []string{RouteOGCProxy, RouteDirect, RouteAuthProxy}
	if strings.Join(hooks.routes, ",") != strings.Join(want, ",") {
		t.Errorf("routes = %v, want %v", hooks.routes, want)
	}
	for i, s := range hooks.status {
		if s != http.StatusOK {
			t.Errorf("status[%d] = %d, want 200", i, s)
		}
	}
}

// flakyAuth reports a session that expires between the two queries.
type flakyAuth struct{}

func (flakyAuth) IsAuthenticated() bool { return true }
func (flakyAuth) Token() string         { return "" }

func TestGetCapabilities_NoEmptyBearer(t *testing.T) {
	var authHeader, path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		path = r.URL.Path
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := NewClient(flakyAuth{}, Options{
		ProxyOGC:     server.URL + "/ogc-proxy/?url=",
		AuthProxyURL: server.URL + "/oauth-api/proxy?url=",
	})
	if res := c.GetCapabilities(context.Background(), service); !res.OK() {
		t.Fatalf("GetCapabilities failed: %v", res.Err)
	}
	if authHeader != "" {
		t.Errorf("Authorization = %q, want none", authHeader)
	}
	if path != "/ogc-proxy/" {
		t.Errorf("path = %q, want the generic proxy", path)
	}
}
