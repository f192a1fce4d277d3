package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func applyTo(t *testing.T, r *http.Request) http.Header {
	t.Helper()
	m := NewHeadersMiddleware(DefaultHeadersConfig())
	rec := httptest.NewRecorder()
	m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rec, r)
	return rec.Header()
}

func TestDefaultHeaders(t *testing.T) {
	h := applyTo(t, httptest.NewRequest(http.MethodGet, "/api/affaires", nil))

	want := map[string]string{
		"X-Content-Type-Options":       "nosniff",
		"X-Frame-Options":              "DENY",
		"Content-Security-Policy":      "default-src 'none'; frame-ancestors 'none'",
		"Referrer-Policy":              "no-referrer",
		"Cross-Origin-Resource-Policy": "same-origin",
	}
	for k, v := range want {
		if got := h.Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if h.Get("Strict-Transport-Security") != "" {
		t.Error("HSTS set on a plain HTTP request")
	}
}

func TestHSTSOnTLSOnly(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "https://example.test/api/stats", nil)
	r.TLS = &tls.ConnectionState{}

	h := applyTo(t, r)
	if got := h.Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Fatalf("Strict-Transport-Security = %q", got)
	}
}
