package security

import (
	"net/http/httptest"
	"testing"
)

func TestDetectSuspiciousRequest(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name       string
		target     string
		suspicious bool
	}{
		{"normal api call", "/api/affaires", false},
		{"export with format", "/api/affaires/abc/export?format=pdf", false},
		{"path traversal", "/api/../etc/passwd", true},
		{"env probe", "/.env", true},
		{"wordpress probe", "/wp-admin/setup.php", true},
		{"env probe in query", "/api/affaires?file=.env", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.target, nil)
			if got := d.DetectSuspiciousRequest(r); got != tt.suspicious {
				t.Errorf("DetectSuspiciousRequest(%s) = %v, want %v", tt.target, got, tt.suspicious)
			}
		})
	}

	if m := d.GetMetrics(); m.SuspiciousRequests != 4 {
		t.Errorf("SuspiciousRequests = %d, want 4", m.SuspiciousRequests)
	}
}

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()

	// Trusted proxy: forwarded header wins.
	r := httptest.NewRequest("GET", "/api/affaires", nil)
	r.RemoteAddr = "127.0.0.1:9000"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if ip := d.ExtractClientIP(r); ip != "203.0.113.7" {
		t.Errorf("trusted proxy: ip = %q", ip)
	}

	// Untrusted peer: forwarded header is ignored.
	r = httptest.NewRequest("GET", "/api/affaires", nil)
	r.RemoteAddr = "198.51.100.4:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	if ip := d.ExtractClientIP(r); ip != "198.51.100.4" {
		t.Errorf("untrusted peer: ip = %q", ip)
	}
}
