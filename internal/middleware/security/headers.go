// Package security sets response hardening headers and resolves client IPs.
package security

import (
	"fmt"
	"net/http"
	"strings"
)

// HeadersConfig holds security headers configuration
type HeadersConfig struct {
	// ScriptSources and StyleSources are allowed in addition to 'self'.
	ScriptSources []string
	StyleSources  []string
	HSTSMaxAge    int

	XFrameOptions     string
	ReferrerPolicy    string
	PermissionsPolicy string
}

// DefaultHeadersConfig allows htmx from unpkg plus Chart.js and the icon
// font from jsDelivr.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		ScriptSources:     []string{"https://unpkg.com", "https://cdn.jsdelivr.net"},
		StyleSources:      []string{"https://cdn.jsdelivr.net"},
		HSTSMaxAge:        31536000,
		XFrameOptions:     "DENY",
		ReferrerPolicy:    "strict-origin-when-cross-origin",
		PermissionsPolicy: "geolocation=(), microphone=(), camera=(), payment=()",
	}
}

// CSP renders the Content-Security-Policy value.
func (c HeadersConfig) CSP() string {
	script := strings.Join(append([]string{"'self'"}, c.ScriptSources...), " ")
	style := strings.Join(append([]string{"'self'", "'unsafe-inline'"}, c.StyleSources...), " ")
	font := strings.Join(append([]string{"'self'"}, c.StyleSources...), " ")
	return strings.Join([]string{
		"default-src 'self'",
		"script-src " + script,
		"style-src " + style,
		"font-src " + font,
		"img-src 'self' data:",
		"connect-src 'self'",
		"object-src 'none'",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}, "; ")
}

// Headers returns middleware applying the configured headers.
func Headers(config HeadersConfig) func(http.Handler) http.Handler {
	csp := config.CSP()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", csp)
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", config.XFrameOptions)
			h.Set("Referrer-Policy", config.ReferrerPolicy)
			h.Set("Permissions-Policy", config.PermissionsPolicy)
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			if r.TLS != nil && config.HSTSMaxAge > 0 {
				h.Set("Strict-Transport-Security", fmt.Sprintf("max-age=%d; includeSubDomains", config.HSTSMaxAge))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// StaticAssetMiddleware adds caching headers for static assets
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAge))
			}
			next.ServeHTTP(w, r)
		})
	}
}
