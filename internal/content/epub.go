package content

import (
	"fmt"
	"io"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"
)

// EPUBFormat implements Format for EPUB files. Each spine document with text
// becomes one page.
type EPUBFormat struct{}

func init() {
	Register(&EPUBFormat{})
}

func (f *EPUBFormat) Name() string         { return "EPUB" }
func (f *EPUBFormat) Extensions() []string { return []string{".epub"} }

// Pages extracts one page per spine document, titled from the NCX when the
// document is listed there.
func (f *EPUBFormat) Pages(filename string) ([]Page, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, fmt.Errorf("no rootfiles found in epub")
	}

	book := rc.Rootfiles[0]
	titles := readNavTitles(filename, book)

	var pages []Page
	for i, ref := range book.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		r, err := ref.Item.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			continue
		}

		text := strings.TrimSpace(extractTextFromHTML(string(data)))
		if text == "" {
			continue
		}

		title := fmt.Sprintf("Section %d", i+1)
		if t, ok := titles.lookup(ref.Item.HREF); ok && t != "" {
			title = t
		}

		pages = append(pages, Page{
			Title:    title,
			Subtitle: book.Title,
			Body:     text,
		})
	}

	return pages, nil
}

// extractTextFromHTML returns the visible text of an HTML document, one
// paragraph per block element.
func extractTextFromHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return ""
	}

	var out strings.Builder
	lineStart := true
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "head") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.Join(strings.Fields(n.Data), " "); t != "" {
				if !lineStart {
					out.WriteString(" ")
				}
				out.WriteString(t)
				lineStart = false
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.Data) && !lineStart {
			out.WriteString("\n")
			lineStart = true
		}
	}
	walk(doc)
	return out.String()
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "li", "br", "section", "blockquote":
		return true
	}
	return false
}
