package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIsNewerVersion(t *testing.T) {
	tests := []struct {
		name     string
		latest   string
		current  string
		expected bool
	}{
		{"same version", "0.1.0", "0.1.0", false},
		{"patch upgrade", "0.1.1", "0.1.0", true},
		{"patch downgrade", "0.1.0", "0.1.1", false},
		{"minor upgrade", "0.2.0", "0.1.9", true},
		{"major upgrade", "1.0.0", "0.9.9", true},
		{"major downgrade", "0.9.9", "1.0.0", false},
		{"multi-digit patch", "0.1.10", "0.1.9", true},
		{"different lengths ahead", "1.0", "0.9.1", true},
		{"different lengths behind", "0.9.1", "1.0", false},
		{"pre-release same base", "0.1.0-rc1", "0.1.0", false},
		{"pre-release ahead", "0.1.1-dev", "0.1.0", true},
		{"build metadata", "0.1.1+abc", "0.1.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isNewerVersion(tt.latest, tt.current)
			if result != tt.expected {
				t.Errorf("isNewerVersion(%q, %q) = %v, want %v", tt.latest, tt.current, result, tt.expected)
			}
		})
	}
}

func withReleases(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	ts := httptest.NewServer(handler)
	orig := releasesURL
	releasesURL = ts.URL
	t.Cleanup(func() {
		releasesURL = orig
		ts.Close()
	})
}

func TestCheckForUpdate(t *testing.T) {
	var userAgent string
	withReleases(t, func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Write([]byte(`{"tag_name": "v0.2.0", "html_url": "https://github.com/studiowebux/perfscope/releases/tag/v0.2.0"}`))
	})

	u, err := CheckForUpdate(context.Background(), "v0.1.0")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !u.Available || u.Latest != "0.2.0" || u.Current != "0.1.0" {
		t.Errorf("Unexpected update %+v", u)
	}
	if !strings.HasPrefix(userAgent, "perfscope/") {
		t.Errorf("Expected perfscope user agent, got %q", userAgent)
	}
}

func TestCheckForUpdate_BadStatus(t *testing.T) {
	withReleases(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	if _, err := CheckForUpdate(context.Background(), "0.1.0"); err == nil {
		t.Error("Expected error for non-200 status")
	}
}
