package middleware

import (
	"net"
	"net/http"
	"strings"
)

// HSTS tells browsers to only reach this host over HTTPS for one year,
// subdomains included. Only mount it when TLS is actually enabled.
func HSTS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// SecureCookies rewrites outgoing Set-Cookie headers so every cookie
// carries Secure, HttpOnly and a SameSite attribute, whatever the
// handler set. The session cookie carries the auth token, so a handler
// forgetting a flag must not weaken it.
func SecureCookies(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&secureCookieWriter{ResponseWriter: w}, r)
	})
}

type secureCookieWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *secureCookieWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *secureCookieWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	h := w.ResponseWriter.Header()
	if cookies := h["Set-Cookie"]; len(cookies) > 0 {
		h.Del("Set-Cookie")
		for _, c := range cookies {
			h.Add("Set-Cookie", hardenCookie(c))
		}
	}

	w.ResponseWriter.WriteHeader(statusCode)
}

// hardenCookie appends Secure, HttpOnly and SameSite=Strict to a raw
// Set-Cookie value unless the attribute is already present.
func hardenCookie(cookie string) string {
	parts := strings.Split(cookie, ";")
	var secure, httpOnly, sameSite bool

	for i, p := range parts {
		p = strings.TrimSpace(p)
		parts[i] = p

		switch {
		case strings.EqualFold(p, "Secure"):
			secure = true
		case strings.EqualFold(p, "HttpOnly"):
			httpOnly = true
		case len(p) >= 8 && strings.EqualFold(p[:8], "SameSite"):
			sameSite = true
		}
	}

	if !secure {
		parts = append(parts, "Secure")
	}
	if !httpOnly {
		parts = append(parts, "HttpOnly")
	}
	if !sameSite {
		parts = append(parts, "SameSite=Strict")
	}

	return strings.Join(parts, "; ")
}

// IsHostAllowed reports whether host matches the allow list, comparing
// with and without ports. The HTTP-to-HTTPS redirect uses it so a
// spoofed Host header can't turn the redirect into an open redirect.
// An empty allow list permits everything.
func IsHostAllowed(host string, allowedHosts []string) bool {
	if len(allowedHosts) == 0 {
		return true
	}

	host = strings.ToLower(strings.TrimSpace(host))
	bare := bareHost(host)

	for _, allowed := range allowedHosts {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if host == allowed || bare == bareHost(allowed) {
			return true
		}
	}
	return false
}

// bareHost strips a port and IPv6 brackets so "[::1]:8080", "[::1]"
// and "::1" all compare equal.
func bareHost(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
}
