package homepage

import (
	"sort"
	"strings"

	"github.com/sweedalp/smart-bookmark-app/internal/domain"
)

// Map flattens a parsed file into create requests for owner.
//
// The bookmark name becomes the title, falling back to abbr and then to the
// href. Entries without an href are skipped. Output follows file order;
// names inside one YAML mapping are sorted so the result is stable.
// Validation is left to the caller.
func Map(file File, owner string) ([]domain.NewBookmark, error) {
	out := make([]domain.NewBookmark, 0)

	for _, group := range file {
		for _, groupName := range sortedKeys(group) {
			for _, item := range group[groupName] {
				for _, name := range sortedKeys(item) {
					entries := item[name]
					if len(entries) == 0 {
						continue
					}
					entry := entries[0]

					href := strings.TrimSpace(entry.Href)
					if href == "" {
						continue
					}

					out = append(out, domain.NewBookmark{
						Owner: owner,
						Title: title(name, entry.Abbr, href),
						URL:   href,
					})
				}
			}
		}
	}

	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

// Read loads and maps a bookmarks.yaml document in one step.
func Read(data []byte, owner string) ([]domain.NewBookmark, error) {
	file, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Map(file, owner)
}

func title(name, abbr, href string) string {
	if t := strings.TrimSpace(name); t != "" {
		return t
	}
	if t := strings.TrimSpace(abbr); t != "" {
		return t
	}
	return href
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
