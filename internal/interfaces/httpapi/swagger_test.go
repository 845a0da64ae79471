package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDocsRoutes_PublicWhenEnabled(t *testing.T) {
	fx := newAPIFixture(t)

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{path: "/openapi.yaml", contentType: "application/yaml", contains: "title: Inhouse League API"},
		{path: "/docs", contentType: "text/html", contains: `url: "/openapi.yaml"`},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		fx.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: unexpected status %d", tt.path, rec.Code)
		}
		if !strings.HasPrefix(rec.Header().Get("Content-Type"), tt.contentType) {
			t.Fatalf("GET %s: unexpected content type %q", tt.path, rec.Header().Get("Content-Type"))
		}
		if !strings.Contains(rec.Body.String(), tt.contains) {
			t.Fatalf("GET %s: body missing %q", tt.path, tt.contains)
		}
	}
}
