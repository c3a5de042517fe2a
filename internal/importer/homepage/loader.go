package homepage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"

	"gopkg.in/yaml.v3"
)

// MaxFileSize caps how much of an upload is read.
const MaxFileSize = 1 << 20

// ErrEmpty is returned when a file parses but holds no usable bookmark.
var ErrEmpty = errors.New("no bookmarks found in file")

var templateVar = regexp.MustCompile(`\{\{[^}]+\}\}`)

// Load reads a bookmarks.yaml document from r.
func Load(r io.Reader) (File, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read bookmarks file: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("bookmarks file exceeds %d bytes", MaxFileSize)
	}
	return Parse(data)
}

// Parse decodes a bookmarks.yaml document.
func Parse(data []byte) (File, error) {
	data = stripTemplateVariables(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmpty
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse bookmarks yaml: %w", err)
	}
	return file, nil
}

// stripTemplateVariables removes Homepage template variables.
// Example: {{HOMEPAGE_VAR_ADGUARD_URL}} -> ""
func stripTemplateVariables(data []byte) []byte {
	return templateVar.ReplaceAll(data, []byte(`""`))
}
