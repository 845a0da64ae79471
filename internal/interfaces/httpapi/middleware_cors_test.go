package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	t.Parallel()

	const dashboard = "https://inhouse.example.gg"

	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
		wantVary   bool
	}{
		{name: "configured origin echoed", allowed: []string{" " + dashboard + " "}, method: http.MethodGet, origin: dashboard, wantStatus: http.StatusOK, wantOrigin: dashboard, wantVary: true},
		{name: "wildcard preflight", allowed: []string{"*"}, method: http.MethodOptions, origin: dashboard, wantStatus: http.StatusNoContent, wantOrigin: "*"},
		{name: "unknown origin", allowed: []string{"https://allowed.example.com"}, method: http.MethodGet, origin: dashboard, wantStatus: http.StatusOK},
		{name: "unknown origin preflight", allowed: []string{"https://allowed.example.com"}, method: http.MethodOptions, origin: dashboard, wantStatus: http.StatusNoContent},
		{name: "no origin header", allowed: []string{"*"}, method: http.MethodGet, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := CORS(tt.allowed, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, "/v1/guilds/g1/queue", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Fatalf("unexpected Access-Control-Allow-Origin: %q", got)
			}
			if got := rec.Header().Get("Vary") == "Origin"; got != tt.wantVary {
				t.Fatalf("unexpected Vary header: %q", rec.Header().Get("Vary"))
			}
			if tt.wantOrigin != "" && rec.Header().Get("Access-Control-Allow-Headers") == "" {
				t.Fatalf("expected allow headers on accepted origin")
			}
		})
	}
}
