package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/deps"
	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/handlers"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	r.Route("/bookmarks", func(r chi.Router) {
		r.Get("/", handlers.BookmarksPage(d))
		r.Post("/", handlers.CreateBookmark(d))
		r.Post("/import", handlers.ImportBookmarks(d))
		r.Post("/{id}/delete", handlers.DeleteBookmark(d))
		if d.Live != nil {
			r.Handle("/live", d.Live)
		}
	})
}
