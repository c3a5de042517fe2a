package utils

import (
	"net/http/httptest"
	"testing"
)

func TestParseHostNoPort(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"10.0.0.1:8080", "10.0.0.1"},
		{"[::1]:443", "::1"},
		{"[::1]", "::1"},
		{"10.0.0.1", "10.0.0.1"},
		{"markd.domain.ext:8080", "markd.domain.ext"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ParseHostNoPort(tt.in); got != tt.want {
			t.Errorf("ParseHostNoPort(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", want: "192.0.2.1"},
		{name: "proxy headers ignored when untrusted", headers: map[string]string{"X-Forwarded-For": "203.0.113.9"}, want: "192.0.2.1"},
		{name: "cloudflare header first", headers: map[string]string{"CF-Connecting-IP": "198.51.100.7", "X-Forwarded-For": "203.0.113.9"}, trustProxy: true, want: "198.51.100.7"},
		{name: "left-most forwarded for", headers: map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.2"}, trustProxy: true, want: "203.0.113.9"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "203.0.113.10"}, trustProxy: true, want: "203.0.113.10"},
		{name: "trusted without headers", trustProxy: true, want: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = "192.0.2.1:54321"
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"10.0.0.0/8", " 127.0.0.1 ", "::1", "garbage", ""})
	if m.IsEmpty() {
		t.Fatal("IsEmpty() = true, want false")
	}

	tests := []struct {
		ip   string
		want bool
	}{
		{"10.1.2.3", true},
		{"127.0.0.1", true},
		{"::ffff:127.0.0.1", true},
		{"::1", true},
		{"192.168.1.1", false},
		{"not-an-ip", false},
	}
	for _, tt := range tests {
		if got := m.Allow(tt.ip); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}

	if !NewIPMatcher(nil).IsEmpty() {
		t.Error("NewIPMatcher(nil).IsEmpty() = false, want true")
	}
}
