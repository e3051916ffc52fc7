package scrape

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of anti-bot response a listing site sent.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockAkamai     BlockType = "akamai"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

// DetectBlock reports whether a listing page is an anti-bot interstitial
// rather than search results.
func DetectBlock(status int, header http.Header, body []byte) BlockType {
	if status == http.StatusForbidden || status == http.StatusServiceUnavailable {
		if header.Get("Cf-Ray") != "" || strings.EqualFold(header.Get("Server"), "cloudflare") {
			return BlockCloudflare
		}
		if strings.Contains(strings.ToLower(header.Get("Server")), "akamai") {
			return BlockAkamai
		}
	}

	lower := strings.ToLower(string(body))

	switch {
	case strings.Contains(lower, "checking your browser"),
		strings.Contains(lower, "cf-browser-verification"),
		strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge"):
		return BlockCloudflare
	case strings.Contains(lower, "access denied") && strings.Contains(lower, "reference #"):
		return BlockAkamai
	case strings.Contains(lower, "captcha"):
		return BlockCaptcha
	}

	// Near-empty shells that only bootstrap a client-side app.
	if len(body) < 2000 {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return BlockJSShell
		}
		if strings.Contains(lower, `http-equiv="refresh"`) {
			return BlockJSShell
		}
	}
	return BlockNone
}
