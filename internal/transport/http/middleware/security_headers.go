package middleware

import (
	"net/http"
	"strings"
)

// SecureHeaders sets a locked-down header set for a JSON API that also
// serves salary registers. Nothing it returns may be cached by a browser
// or shared proxy, and download routes are additionally marked as
// attachments so a stored PDF or workbook is never rendered inline.
func SecureHeaders(isProd bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers := w.Header()
			headers.Set("X-Content-Type-Options", "nosniff")
			headers.Set("X-Frame-Options", "DENY")
			headers.Set("Referrer-Policy", "no-referrer")
			headers.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'")
			headers.Set("Cross-Origin-Resource-Policy", "same-origin")
			headers.Set("Cache-Control", "no-store")
			headers.Set("Pragma", "no-cache")
			if isDownloadPath(r.URL.Path) {
				headers.Set("X-Download-Options", "noopen")
			}
			if isProd {
				headers.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isDownloadPath(path string) bool {
	return strings.HasSuffix(path, "/pdf") ||
		strings.HasSuffix(path, ".xlsx") ||
		strings.HasSuffix(path, "/export")
}
