package content

import (
	"os"
	"path/filepath"
	"strings"
)

// pageBreak separates pages in plain text books.
const pageBreak = "\f"

// Format defines a book file format that can be split into pages.
type Format interface {
	Name() string
	Extensions() []string
	Pages(filename string) ([]Page, error)
}

var registry []Format

// Register adds a format to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// Load reads a book using a registered format, or plain text with form-feed
// page breaks as the fallback.
func Load(filename string) (*Book, error) {
	title := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				pages, err := f.Pages(filename)
				if err != nil {
					return nil, err
				}
				return NewBook(title, pages), nil
			}
		}
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return NewBook(title, plainTextPages(string(data))), nil
}

func plainTextPages(text string) []Page {
	var pages []Page
	for _, chunk := range strings.Split(text, pageBreak) {
		chunk = strings.TrimSpace(chunk)
		title, body, _ := strings.Cut(chunk, "\n")
		pages = append(pages, Page{
			Title: strings.TrimSpace(title),
			Body:  strings.TrimSpace(body),
		})
	}
	return pages
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}
