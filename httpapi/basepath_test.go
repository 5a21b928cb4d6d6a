package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizeBasePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/", ""},
		{"inkbridge", "/inkbridge"},
		{"/inkbridge", "/inkbridge"},
		{"/inkbridge/", "/inkbridge"},
		{" //docs//inkbridge/ ", "/docs/inkbridge"},
	}
	for _, tc := range cases {
		if got := normalizeBasePath(tc.in); got != tc.want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildBaseHref(t *testing.T) {
	cases := []struct {
		baseURL  string
		basePath string
		want     string
	}{
		{"", "", ""},
		{"", "/inkbridge", "/inkbridge/"},
		{"", "inkbridge", "/inkbridge/"},
		{"https://example.com", "", "https://example.com/"},
		{"https://example.com/", "inkbridge", "https://example.com/inkbridge/"},
		{"https://example.com/base", "/x", "https://example.com/base/x/"},
	}
	for _, tc := range cases {
		if got := buildBaseHref(tc.baseURL, tc.basePath); got != tc.want {
			t.Fatalf("buildBaseHref(%q, %q) = %q, want %q", tc.baseURL, tc.basePath, got, tc.want)
		}
	}
}

func TestMountAt(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.URL.Path))
	})
	handler := mountAt("/ink", inner)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ink/api/documents", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "/api/documents" {
		t.Fatalf("mounted request: status %d body %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ink", nil))
	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/ink/" {
		t.Fatalf("bare prefix: status %d location %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("outside prefix: status %d", rec.Code)
	}
}
