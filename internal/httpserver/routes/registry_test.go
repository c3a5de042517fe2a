package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/deps"
)

func tagWith(value string) MiddlewareFor {
	return func(d deps.Deps) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Add("X-Tag", value+"@"+d.Version)
				next.ServeHTTP(w, r)
			})
		}
	}
}

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }

func TestTableScopesMiddlewaresToTheirGroup(t *testing.T) {
	var tbl table
	tbl.add(func(r chi.Router, _ deps.Deps) { r.Get("/plain", ok) })
	tbl.add(func(r chi.Router, _ deps.Deps) { r.Get("/tagged", ok) }, tagWith("a"), tagWith("b"))

	r := chi.NewRouter()
	tbl.mount(r, deps.Deps{Version: "v1"})

	tests := []struct {
		path string
		want []string
	}{
		{"/plain", nil},
		{"/tagged", []string{"a@v1", "b@v1"}},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

		if rec.Code != http.StatusNoContent {
			t.Fatalf("%s: status = %d, want 204", tt.path, rec.Code)
		}
		got := rec.Header().Values("X-Tag")
		if len(got) != len(tt.want) {
			t.Fatalf("%s: X-Tag = %v, want %v", tt.path, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: X-Tag[%d] = %q, want %q", tt.path, i, got[i], tt.want[i])
			}
		}
	}
}

func TestDefaultTableWrapsAuthAndOps(t *testing.T) {
	wrapped := map[string]bool{}
	for _, g := range defaultTable.groups {
		if len(g.mws) > 0 {
			rec := chi.NewRouter()
			g.reg(rec, deps.Deps{})
			_ = chi.Walk(rec, func(_ string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
				wrapped[route] = true
				return nil
			})
		}
	}
	for _, route := range []string{"/auth/login", "/auth/callback", "/auth/signout", "/healthz", "/metrics"} {
		if !wrapped[route] {
			t.Errorf("route %s is not behind a group middleware", route)
		}
	}
}
