package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sweedalp/smart-bookmark-app/internal/auth"
	"github.com/sweedalp/smart-bookmark-app/internal/httpserver/deps"
	"github.com/sweedalp/smart-bookmark-app/internal/importer/homepage"
	"github.com/sweedalp/smart-bookmark-app/internal/logger"
)

// ImportBookmarks accepts a homepage-style bookmarks.yaml, either as the
// "file" field of a multipart form or as the raw request body.
//
// Browsers are redirected back to the list with a summary; clients that
// accept JSON get the import result.
func ImportBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFrom(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		data, err := readUpload(w, r)
		if err != nil {
			d.Renderer.Error(w, http.StatusBadRequest, "The uploaded file could not be read.")
			return
		}

		items, err := homepage.Read(data, id.UserID)
		if err != nil {
			msg := "The file is not a valid bookmarks.yaml."
			if errors.Is(err, homepage.ErrEmpty) {
				msg = "The file does not contain any bookmarks."
			}
			d.Renderer.Error(w, http.StatusBadRequest, msg)
			return
		}

		res, err := d.Bookmarks.Import(r.Context(), id, items)
		if err != nil {
			d.Logger.Error("import stopped",
				logger.String("user_id", id.UserID),
				logger.Int("created", res.Created),
				logger.Error(err))
			d.Renderer.Error(w, http.StatusBadGateway,
				fmt.Sprintf("Import stopped after %d bookmarks: %s", res.Created, storeErrorMessage))
			return
		}

		if wantsJSON(r) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(res)
			return
		}

		q := url.Values{}
		q.Set("imported", strconv.Itoa(res.Created))
		q.Set("skipped", strconv.Itoa(res.Duplicates+res.Invalid))
		http.Redirect(w, r, "/bookmarks?"+q.Encode(), http.StatusSeeOther)
	}
}

func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, homepage.MaxFileSize+(64<<10))

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		return io.ReadAll(io.LimitReader(f, homepage.MaxFileSize))
	}
	return io.ReadAll(io.LimitReader(r.Body, homepage.MaxFileSize))
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// importNotice turns the redirect query of an import into a status line.
func importNotice(r *http.Request) string {
	q := r.URL.Query()
	imported, err := strconv.Atoi(q.Get("imported"))
	if err != nil {
		return ""
	}
	skipped, _ := strconv.Atoi(q.Get("skipped"))
	return fmt.Sprintf("Imported %d bookmarks, skipped %d.", imported, skipped)
}
