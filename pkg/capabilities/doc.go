// Package capabilities fetches WMS GetCapabilities documents.
//
// # Overview
//
// A [Client] turns a service URL into a GetCapabilities request, routes it
// through the configured proxy, and returns the raw response:
//
//	client := capabilities.NewClient(auth.Static(token), capabilities.Options{
//	    ProxyOGC:     "https://maps.example.org/ogc-proxy/?url=",
//	    AuthProxyURL: "https://maps.example.org/oauth-api/proxy?url=",
//	})
//	res := client.GetCapabilities(ctx, "https://geo.example.org/geoserver/wms?map=x")
//	if !res.OK() {
//	    log.Warn("capabilities unavailable", "err", res.Err)
//	    return
//	}
//	caps, err := wms.Parse(res.Response.Body)
//
// # Request URL
//
// Existing query parameters are dropped and the fixed query
// REQUEST=GetCapabilities&SERVICE=WMS&VERSION=1.3.0 is appended. Then:
//
//   - authenticated callers send "Authorization: Bearer <token>" and the URL
//     is prefixed, unencoded, with the authenticated proxy URL
//   - everyone else has the URL percent-encoded and prefixed with the generic
//     OGC proxy, unless [Options.Direct] is set
//
// # Errors As Data
//
// [Client.GetCapabilities] never returns a Go error. Transport failures and
// non-2xx statuses arrive in [Result.Err]; callers inspect the Result to tell
// success from failure. Status failures wrap an [*HTTPError] carrying the
// response body.
//
// The client performs no retries and no caching. It has no timeout unless
// [Options.Timeout] is set; cancellation otherwise flows through the context.
package capabilities
