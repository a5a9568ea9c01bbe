// Package content resolves absolute page numbers to displayable page content.
package content

import "fmt"

// Page is the content shown on one side of a spread.
type Page struct {
	Number     int
	Title      string
	Subtitle   string
	ContentKey string
	Body       string
}

// Empty reports whether the page carries no content.
func (p Page) Empty() bool {
	return p.Title == "" && p.Subtitle == "" && p.Body == ""
}

// Resolver looks up the content for an absolute page. The bool is false when
// nothing is registered for the page.
type Resolver interface {
	Resolve(page int) (Page, bool)
}

// ContentKey returns the resource key under which a page's text is stored.
func ContentKey(page int) string {
	return fmt.Sprintf("Page%d_Content", page)
}

// Placeholder returns the blank page rendered when no content exists.
func Placeholder(page int) Page {
	return Page{Number: page, ContentKey: ContentKey(page)}
}

// ResolveOrPlaceholder resolves page through r, falling back to a placeholder.
// A nil resolver always yields placeholders.
func ResolveOrPlaceholder(r Resolver, page int) Page {
	if r == nil {
		return Placeholder(page)
	}
	if p, ok := r.Resolve(page); ok {
		return p
	}
	return Placeholder(page)
}

// Book is an in-memory set of pages keyed by absolute page number.
type Book struct {
	Title string
	pages map[int]Page
}

// NewBook builds a Book from pages numbered consecutively from 1.
func NewBook(title string, pages []Page) *Book {
	b := &Book{Title: title, pages: make(map[int]Page, len(pages))}
	for i, p := range pages {
		p.Number = i + 1
		if p.ContentKey == "" {
			p.ContentKey = ContentKey(p.Number)
		}
		b.pages[p.Number] = p
	}
	return b
}

// Resolve implements Resolver.
func (b *Book) Resolve(page int) (Page, bool) {
	if b == nil {
		return Page{}, false
	}
	p, ok := b.pages[page]
	if !ok || p.Empty() {
		return Page{}, false
	}
	return p, true
}

// Len returns the number of pages in the book.
func (b *Book) Len() int {
	if b == nil {
		return 0
	}
	return len(b.pages)
}
