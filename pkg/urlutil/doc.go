// Package urlutil provides string-level helpers for WMS request URLs.
//
// The helpers operate on raw URL strings rather than [net/url.URL] values so
// that the rest of a URL (parameter order, empty segments, unusual escaping
// left by upstream services) is preserved byte for byte:
//
//   - [RemoveParameters] drops the query string and fragment
//   - [StripAccessToken] and [RemoveAccessToken] remove an access_token parameter
//   - [EncodeURIComponent] percent-encodes a full URL for use as a proxy argument
//
// None of the functions mutate their input or keep state.
package urlutil
