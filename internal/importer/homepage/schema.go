package homepage

// Entry is a single bookmark entry in bookmarks.yaml.
type Entry struct {
	Icon        string `yaml:"icon"`
	Abbr        string `yaml:"abbr"`
	Href        string `yaml:"href"`
	Description string `yaml:"description"`
}

// Group is one top-level category.
// The YAML structure is: - GroupName: [ - BookmarkName: [{ icon, abbr, href }] ]
// Each bookmark name maps to a list holding a single entry.
type Group map[string][]map[string][]Entry

// File is the root structure of bookmarks.yaml.
type File []Group
