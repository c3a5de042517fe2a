package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/deps"
	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/handlers"
)

func init() { Register(registerPages) }

func registerPages(r chi.Router, d deps.Deps) {
	r.Get("/", handlers.Root(d))
	r.Get("/login", handlers.LoginPage(d))
}
