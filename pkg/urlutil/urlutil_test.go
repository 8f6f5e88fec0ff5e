package urlutil

import "testing"

func TestRemoveParameters(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://x/wms?a=1&b=2", "http://x/wms"},
		{"http://x/wms", "http://x/wms"},
		{"http://x/wms?", "http://x/wms"},
		{"http://x/wms#frag", "http://x/wms"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := RemoveParameters(tt.in); got != tt.want {
				t.Errorf("RemoveParameters(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRemoveAccessToken(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"middle", "http://x?a=1&access_token=abc&b=2", "http://x?a=1&b=2"},
		{"first", "http://x?access_token=abc&b=2", "http://x?b=2"},
		{"last", "http://x?a=1&access_token=abc", "http://x?a=1"},
		{"only", "http://x/wms?access_token=abc", "http://x/wms"},
		{"with fragment", "http://x?a=1&access_token=abc#f", "http://x?a=1#f"},
		{"first of two", "http://x?access_token=a&access_token=b", "http://x?access_token=b"},
		{"absent", "http://x?a=1", ""},
		{"no query", "http://x/access_token=abc", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemoveAccessToken(tt.in); got != tt.want {
				t.Errorf("RemoveAccessToken(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripAccessToken(t *testing.T) {
	got, ok := StripAccessToken("http://x?a=1")
	if ok {
		t.Error("StripAccessToken reported a token for a URL without one")
	}
	if got != "http://x?a=1" {
		t.Errorf("StripAccessToken returned %q, want the input unchanged", got)
	}

	got, ok = StripAccessToken("http://x?a=1&access_token=abc&b=2")
	if !ok || got != "http://x?a=1&b=2" {
		t.Errorf("StripAccessToken = %q, %v; want %q, true", got, ok, "http://x?a=1&b=2")
	}
}

func TestRedact(t *testing.T) {
	if got := Redact("http://x?a=1"); got != "http://x?a=1" {
		t.Errorf("Redact = %q", got)
	}
	if got := Redact("http://x?access_token=s3cret"); got != "http://x" {
		t.Errorf("Redact = %q", got)
	}
}

func TestEncodeURIComponent(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{
			"http://x/wms?REQUEST=GetCapabilities&SERVICE=WMS&VERSION=1.3.0",
			"http%3A%2F%2Fx%2Fwms%3FREQUEST%3DGetCapabilities%26SERVICE%3DWMS%26VERSION%3D1.3.0",
		},
		{"a b", "a%20b"},
		{"-_.!~*'()", "-_.!~*'()"},
		{"ç", "%C3%A7"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := EncodeURIComponent(tt.in); got != tt.want {
				t.Errorf("EncodeURIComponent(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
