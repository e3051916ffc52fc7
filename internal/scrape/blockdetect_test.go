package scrape

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBlock(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header http.Header
		body   string
		want   BlockType
	}{
		{"cloudflare ray", 403, http.Header{"Cf-Ray": {"abc"}}, "", BlockCloudflare},
		{"cloudflare server", 503, http.Header{"Server": {"cloudflare"}}, "", BlockCloudflare},
		{"akamai server", 403, http.Header{"Server": {"AkamaiGHost"}}, "", BlockAkamai},
		{"akamai body", 200, http.Header{}, "<h1>Access Denied</h1> Reference #18.abc", BlockAkamai},
		{"challenge body", 200, http.Header{}, "<title>Just a moment</title>Checking your browser", BlockCloudflare},
		{"captcha", 200, http.Header{}, "Please solve the reCAPTCHA", BlockCaptcha},
		{"js shell", 200, http.Header{}, "<html><noscript>Enable JavaScript</noscript></html>", BlockJSShell},
		{"meta refresh", 200, http.Header{}, `<meta http-equiv="refresh" content="0;url=/x">`, BlockJSShell},
		{"listing page", 200, http.Header{}, `<div class="mb-srp__card">₹85 Lac</div>`, BlockNone},
		{"plain 403", 403, http.Header{}, "forbidden", BlockNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectBlock(tt.status, tt.header, []byte(tt.body)))
		})
	}
}

func TestDetectBlock_LargeNoscriptPageIsNotShell(t *testing.T) {
	body := "<noscript>javascript</noscript>" + strings.Repeat("<div>listing</div>", 200)
	assert.Equal(t, BlockNone, DetectBlock(200, http.Header{}, []byte(body)))
}
