package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                              "/",
		"/metrics":                      "/metrics",
		"/api/admin/facilities":         "/api/admin/facilities",
		"/api/admin/facilities/abc":     "/api/admin/facilities/:id",
		"/api/admin/facilities/abc/x":   "/api/admin/facilities/abc/x",
		"/api/monitor/dashboard":        "/api/monitor/dashboard",
		"/api/monitor/dashboard?days=7": "/api/monitor/dashboard",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
