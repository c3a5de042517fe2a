package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sweedalp/smart-bookmark-app/internal/auth"
	"github.com/sweedalp/smart-bookmark-app/internal/domain"
	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/deps"
	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/view"
	"github.com/sweedalp/smart-bookmark-app/internal/logger"
)

const storeErrorMessage = "Could not reach the bookmark store. Please try again."

// maxFormBytes caps a create/delete form body.
const maxFormBytes = 16 << 10

// CreateBookmark handles the no-script create form. Success redirects back
// to the list; failures re-render the page with the submitted values and an
// inline message.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFrom(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		if err := r.ParseForm(); err != nil {
			d.Renderer.Error(w, http.StatusBadRequest, "The form could not be read.")
			return
		}
		title, rawURL := r.PostForm.Get("title"), r.PostForm.Get("url")

		_, err := d.Bookmarks.Create(r.Context(), id, title, rawURL)
		if err == nil {
			http.Redirect(w, r, "/bookmarks", http.StatusSeeOther)
			return
		}

		status, msg := http.StatusBadGateway, storeErrorMessage
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			status, msg = http.StatusUnprocessableEntity, verr.Message()
		} else {
			d.Logger.Error("failed to create bookmark",
				logger.String("user_id", id.UserID),
				logger.Error(err))
		}

		data := bookmarksPage(d, id)
		data.FormTitle, data.FormURL, data.FormError = title, rawURL, msg
		renderWithList(w, r, d, id, status, data)
	}
}

// DeleteBookmark handles the no-script delete form.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFrom(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		bookmarkID := chi.URLParam(r, "id")
		if err := d.Bookmarks.Delete(r.Context(), id, bookmarkID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			d.Logger.Error("failed to delete bookmark",
				logger.String("user_id", id.UserID),
				logger.String("bookmark_id", bookmarkID),
				logger.Error(err))

			data := bookmarksPage(d, id)
			data.FormError = storeErrorMessage
			renderWithList(w, r, d, id, http.StatusBadGateway, data)
			return
		}

		http.Redirect(w, r, "/bookmarks", http.StatusSeeOther)
	}
}

// renderWithList re-renders the bookmarks page around an error. A failing
// list leaves the page empty; the form error already explains why.
func renderWithList(w http.ResponseWriter, r *http.Request, d deps.Deps, id domain.Identity, status int, data view.BookmarksPageData) {
	if items, err := d.Bookmarks.List(r.Context(), id); err == nil {
		data.Bookmarks = items
	}
	d.Renderer.Page(w, status, view.PageBookmarks, data)
}
