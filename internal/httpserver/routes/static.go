package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/deps"
	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/view"
)

func init() { Register(registerStatic) }

func registerStatic(r chi.Router, _ deps.Deps) {
	r.Handle("/static/*", http.StripPrefix("/static/", view.Static()))
	r.Get("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}
