package handlers

import (
	"net/http"

	"github.com/sweedalp/smart-bookmark-app/internal/auth"
	"github.com/sweedalp/smart-bookmark-app/internal/domain"
	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/deps"
	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/view"
	"github.com/sweedalp/smart-bookmark-app/internal/logger"
)

// Root always sends the browser to the bookmarks page.
func Root(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, auth.DefaultNext, http.StatusFound)
	}
}

// LoginPage renders the sign-in page.
func LoginPage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		next := ""
		if raw := q.Get("next"); raw != "" {
			next = auth.SafeNext(raw)
		}

		d.Renderer.Page(w, http.StatusOK, view.PageLogin, view.LoginPageData{
			PageData:   view.PageData{Title: "Sign in", Version: d.Version},
			AuthFailed: q.Get("error") == "auth_failed",
			Next:       next,
		})
	}
}

// BookmarksPage renders the signed-in user's bookmarks. The live view takes
// over once the browser script connects.
func BookmarksPage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFrom(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		data := bookmarksPage(d, id)
		data.Notice = importNotice(r)

		items, err := d.Bookmarks.List(r.Context(), id)
		if err != nil {
			d.Logger.Error("failed to list bookmarks",
				logger.String("user_id", id.UserID),
				logger.Error(err))
			data.FormError = storeErrorMessage
			d.Renderer.Page(w, http.StatusBadGateway, view.PageBookmarks, data)
			return
		}

		data.Bookmarks = items
		d.Renderer.Page(w, http.StatusOK, view.PageBookmarks, data)
	}
}

func bookmarksPage(d deps.Deps, id domain.Identity) view.BookmarksPageData {
	return view.BookmarksPageData{
		PageData: view.PageData{Title: "Bookmarks", Version: d.Version, Email: id.Email},
	}
}
