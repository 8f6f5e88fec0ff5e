// Package proxy serves the generic OGC CORS proxy and a small JSON API.
//
// Browsers cannot read capabilities documents from most map servers because
// they do not send CORS headers. The proxy fetches the document server-side
// and relays it with permissive CORS headers. Its URL, suffixed with
// "?url=", is what the capabilities client's ProxyOGC option points at.
//
// # Routes
//
//	GET /ogc-proxy/?url=<percent-encoded target>   relay upstream response
//	GET /api/capabilities?url=<service URL>         capabilities as JSON
//	GET /api/dimensions?url=<service URL>[&layer=]  time dimension values
//	GET /healthz                                    liveness
//
// Targets must be http or https. When allowed hosts are configured, other
// hosts are refused with 403, including hosts reached through a redirect.
// Successful upstream bodies are cached when a cache is supplied; bodies over
// 32 MiB are refused with 502 instead of being truncated.
package proxy
