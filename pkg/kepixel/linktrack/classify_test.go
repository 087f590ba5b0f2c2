package linktrack

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kepixel/kepixel-go/pkg/kepixel/environment"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestClassify(t *testing.T) {
	page := mustParse(t, "https://example.com/home")

	tests := []struct {
		name string
		href string
		want Kind
	}{
		{"external", "https://othersite.com/x", KindOutbound},
		{"external http", "http://othersite.com", KindOutbound},
		{"same host absolute", "https://example.com/about", KindNone},
		{"same host different case", "https://EXAMPLE.com/about", KindNone},
		{"subdomain is another host", "https://shop.example.com/", KindOutbound},
		{"download", "/files/report.pdf", KindDownload},
		{"download with query", "/files/report.pdf?v=2", KindDownload},
		{"download upper case", "/files/REPORT.PDF", KindDownload},
		{"external download", "https://cdn.other.com/a.zip", KindDownload},
		{"relative", "/about", KindNone},
		{"mailto", "mailto:a@b.co", KindNone},
		{"extension inside path only", "/pdf/viewer", KindNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(page, environment.NewAnchor(tt.href, "link"))
			assert.Equal(t, tt.want, got.Kind)
			if tt.want != KindNone {
				assert.Equal(t, tt.href, got.Href)
			}
		})
	}
}

func TestClassify_WalksToAnchor(t *testing.T) {
	page := mustParse(t, "https://example.com")
	anchor := environment.NewAnchor("https://othersite.com", "  Partner  ")
	icon := anchor.Child("span", "").Child("img", "")

	got := Classify(page, icon)
	assert.Equal(t, KindOutbound, got.Kind)
	assert.Equal(t, "Partner", got.Text)
}

func TestClassify_Ignored(t *testing.T) {
	page := mustParse(t, "https://example.com")

	div := &environment.Node{Tag: "div"}
	assert.Equal(t, KindNone, Classify(page, div.Child("span", "x")).Kind, "no anchor")
	assert.Equal(t, KindNone, Classify(page, &environment.Node{Tag: "a"}).Kind, "no href")
	assert.Equal(t, KindNone, Classify(page, nil).Kind)
}

func TestClassify_DownloadMarker(t *testing.T) {
	a := environment.NewAnchor("/export?id=7", "Export")
	a.Attrs["download"] = ""
	assert.Equal(t, KindDownload, Classify(nil, a).Kind)
}

func TestIsExternal_NoPage(t *testing.T) {
	assert.False(t, IsExternal(nil, "https://othersite.com"))
}

func TestIsDownload_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stem := rapid.StringMatching(`[a-z0-9/_-]{1,20}`).Draw(t, "stem")
		ext := rapid.SampledFrom(DownloadExtensions).Draw(t, "ext")
		query := rapid.StringMatching(`[a-z0-9=&]{0,10}`).Draw(t, "query")

		if !IsDownload(stem + "." + ext) {
			t.Fatalf("%s.%s not a download", stem, ext)
		}
		if !IsDownload(stem + "." + ext + "?" + query) {
			t.Fatalf("%s.%s?%s not a download", stem, ext, query)
		}
		if IsDownload(stem) {
			t.Fatalf("%s has no extension", stem)
		}
	})
}

func TestIsExternal_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		host := rapid.StringMatching(`[a-z]{1,10}\.com`).Draw(t, "host")
		other := rapid.StringMatching(`[a-z]{1,10}\.org`).Draw(t, "other")
		path := rapid.StringMatching(`(/[a-z]{0,8}){0,3}`).Draw(t, "path")
		page := &url.URL{Scheme: "https", Host: host}

		if IsExternal(page, "https://"+host+path) {
			t.Fatalf("same host %s reported external", host)
		}
		if !IsExternal(page, "https://"+other+path) {
			t.Fatalf("host %s not external on %s", other, host)
		}
		if IsExternal(page, path) && !strings.HasPrefix(path, "http") {
			t.Fatalf("relative %q reported external", path)
		}
	})
}
