package domain

import (
	"errors"
	"testing"
)

func TestNewBookmarkValidate(t *testing.T) {
	tests := []struct {
		name      string
		input     NewBookmark
		wantErr   bool
		wantField string
		wantMsg   string
	}{
		{
			name:  "valid https url",
			input: NewBookmark{Owner: "u1", Title: "Go", URL: "https://go.dev"},
		},
		{
			name:  "trims whitespace",
			input: NewBookmark{Owner: "u1", Title: "  Go  ", URL: "  https://go.dev/doc  "},
		},
		{
			name:  "opaque url with scheme",
			input: NewBookmark{Owner: "u1", Title: "Mail", URL: "mailto:someone@example.com"},
		},
		{
			name:      "missing scheme",
			input:     NewBookmark{Owner: "u1", Title: "Go", URL: "go.dev"},
			wantErr:   true,
			wantField: "url",
			wantMsg:   InvalidURLMessage,
		},
		{
			name:      "scheme without host",
			input:     NewBookmark{Owner: "u1", Title: "Go", URL: "https://"},
			wantErr:   true,
			wantField: "url",
			wantMsg:   InvalidURLMessage,
		},
		{
			name:      "javascript scheme",
			input:     NewBookmark{Owner: "u1", Title: "Go", URL: "javascript:alert(document.cookie)"},
			wantErr:   true,
			wantField: "url",
			wantMsg:   InvalidURLMessage,
		},
		{
			name:      "mixed case javascript scheme",
			input:     NewBookmark{Owner: "u1", Title: "Go", URL: "JavaScript:alert(1)"},
			wantErr:   true,
			wantField: "url",
			wantMsg:   InvalidURLMessage,
		},
		{
			name:      "data scheme",
			input:     NewBookmark{Owner: "u1", Title: "Go", URL: "data:text/html,<script>alert(1)</script>"},
			wantErr:   true,
			wantField: "url",
			wantMsg:   InvalidURLMessage,
		},
		{
			name:      "vbscript scheme",
			input:     NewBookmark{Owner: "u1", Title: "Go", URL: "vbscript:msgbox(1)"},
			wantErr:   true,
			wantField: "url",
			wantMsg:   InvalidURLMessage,
		},
		{
			name:      "ftp scheme",
			input:     NewBookmark{Owner: "u1", Title: "Go", URL: "ftp://files.example.com/a"},
			wantErr:   true,
			wantField: "url",
			wantMsg:   InvalidURLMessage,
		},
		{
			name:      "mailto without address",
			input:     NewBookmark{Owner: "u1", Title: "Go", URL: "mailto:"},
			wantErr:   true,
			wantField: "url",
			wantMsg:   InvalidURLMessage,
		},
		{
			name:      "empty url",
			input:     NewBookmark{Owner: "u1", Title: "Go", URL: ""},
			wantErr:   true,
			wantField: "url",
			wantMsg:   InvalidURLMessage,
		},
		{
			name:      "blank title",
			input:     NewBookmark{Owner: "u1", Title: "   ", URL: "https://go.dev"},
			wantErr:   true,
			wantField: "title",
			wantMsg:   "Title is required",
		},
		{
			name:      "missing owner",
			input:     NewBookmark{Title: "Go", URL: "https://go.dev"},
			wantErr:   true,
			wantField: "user_id",
			wantMsg:   "Owner is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.input.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				if got.Title != "Go" && got.Title != "Mail" {
					t.Errorf("Validate() title = %q, want trimmed", got.Title)
				}
				return
			}

			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidBookmark) {
				t.Errorf("Validate() error should wrap ErrInvalidBookmark, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error type = %T, want *ValidationError", err)
			}
			if msg := verr.Fields[tt.wantField]; msg != tt.wantMsg {
				t.Errorf("field %q message = %q, want %q", tt.wantField, msg, tt.wantMsg)
			}
		})
	}
}

func TestValidationErrorMessagePrefersURL(t *testing.T) {
	_, err := NewBookmark{Owner: "u1", Title: "", URL: "nope"}.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Message() != InvalidURLMessage {
		t.Errorf("Message() = %q, want %q", verr.Message(), InvalidURLMessage)
	}
}

func TestBookmarkDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.example.com/path", "example.com"},
		{"https://docs.example.com", "docs.example.com"},
		{"http://example.com:8080/x", "example.com"},
		{"not a url", "not a url"},
	}

	for _, tt := range tests {
		b := Bookmark{URL: tt.url}
		if got := b.Domain(); got != tt.want {
			t.Errorf("Domain(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestBookmarkFaviconURL(t *testing.T) {
	b := Bookmark{URL: "https://www.example.com/a"}
	want := "https://www.google.com/s2/favicons?domain=www.example.com&sz=32"
	if got := b.FaviconURL(); got != want {
		t.Errorf("FaviconURL() = %q, want %q", got, want)
	}

	if got := (Bookmark{URL: "relative/path"}).FaviconURL(); got != "" {
		t.Errorf("FaviconURL() for relative url = %q, want empty", got)
	}
}
