package api

import (
	"net/http"
	"strings"
	"testing"
)

func TestNewRouter_RoutesExist(t *testing.T) {
	router, _, _, _ := newTestRouter(t)

	expectedRoutes := map[string]string{
		"GET /health":                     "health",
		"GET /metrics":                    "metrics",
		"GET /swagger/*any":               "swagger",
		"POST /registrations":             "create",
		"GET /registrations":              "list",
		"GET /registrations/stats":        "stats",
		"GET /registrations/:id":          "get",
		"POST /registrations/:id/submit":  "submit",
		"POST /registrations/:id/confirm": "confirm",
		"POST /tasks/registration-purge":  "purge",
	}

	found := make(map[string]bool)
	for _, r := range router.Routes() {
		found[r.Method+" "+r.Path] = true
	}

	for key, desc := range expectedRoutes {
		if !found[key] {
			t.Errorf("missing route %s (%s)", key, desc)
		}
	}
}

func TestHealth(t *testing.T) {
	router, _, _, _ := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/health", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, _, _, _ := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/metrics", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("expected default go collector metrics in /metrics output")
	}
}
