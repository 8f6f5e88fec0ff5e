package urlutil

import "strings"

// accessTokenParam is the literal marker searched for in query segments.
const accessTokenParam = "access_token="

// RemoveParameters returns rawURL without its query string and fragment.
// "https://host/wms?SERVICE=WMS#top" becomes "https://host/wms".
func RemoveParameters(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// StripAccessToken removes the first query parameter containing
// "access_token=" together with one adjacent "&" separator. Other parameters,
// their order and the fragment are left untouched. When the removed parameter
// was the only one, the "?" is dropped as well.
//
// The second return value is false, and rawURL is returned unchanged, when no
// such parameter exists.
func StripAccessToken(rawURL string) (string, bool) {
	if !strings.Contains(rawURL, accessTokenParam) {
		return rawURL, false
	}
	base, query, ok := strings.Cut(rawURL, "?")
	if !ok {
		return rawURL, false
	}

	var fragment string
	if i := strings.IndexByte(query, '#'); i >= 0 {
		query, fragment = query[:i], query[i:]
	}

	params := strings.Split(query, "&")
	for i, p := range params {
		if !strings.Contains(p, accessTokenParam) {
			continue
		}
		rest := strings.Join(append(params[:i:i], params[i+1:]...), "&")
		if rest == "" {
			return base + fragment, true
		}
		return base + "?" + rest + fragment, true
	}
	return rawURL, false
}

// RemoveAccessToken is [StripAccessToken] with the legacy sentinel contract:
// it returns "" when rawURL carries no access_token parameter. Callers must
// treat "" as "no token present", not as a sanitized URL.
func RemoveAccessToken(rawURL string) string {
	stripped, ok := StripAccessToken(rawURL)
	if !ok {
		return ""
	}
	return stripped
}

// Redact returns rawURL with its access token removed, or rawURL itself when
// it carries none. Intended for log output.
func Redact(rawURL string) string {
	stripped, _ := StripAccessToken(rawURL)
	return stripped
}

const upperhex = "0123456789ABCDEF"

// EncodeURIComponent percent-encodes s the way browsers do for
// encodeURIComponent: ASCII letters, digits and -_.!~*'() are kept, every
// other byte of the UTF-8 encoding becomes %XX.
//
// [net/url.QueryEscape] differs: it turns spaces into "+" and escapes !*'().
// OGC proxies that decode with JavaScript semantics expect the browser form.
func EncodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnescaped(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isUnescaped(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
