package sandbox

import (
	"net/http"
	"net/url"
	"strings"
)

// ContentSecurityPolicy returns the policy for an execution document whose
// runtime is loaded from runtimeURL. The sandbox directive drops the
// document into an opaque origin with script execution as its only grant.
func ContentSecurityPolicy(runtimeURL string) string {
	if runtimeURL == "" {
		runtimeURL = DefaultRuntimeURL
	}

	scriptSrc := []string{"'unsafe-inline'", "'unsafe-eval'"}
	if origin := runtimeOrigin(runtimeURL); origin != "" {
		scriptSrc = append(scriptSrc, origin)
	}

	return strings.Join([]string{
		"sandbox allow-scripts",
		"default-src 'none'",
		"script-src " + strings.Join(scriptSrc, " "),
		"style-src 'unsafe-inline'",
		"img-src data: blob:",
	}, "; ")
}

// SetHeaders applies the isolation headers for an execution document.
func SetHeaders(h http.Header, runtimeURL string) {
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Content-Security-Policy", ContentSecurityPolicy(runtimeURL))
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Referrer-Policy", "no-referrer")
	h.Set("Cache-Control", "no-store")
}

func runtimeOrigin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
