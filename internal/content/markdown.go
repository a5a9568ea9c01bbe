package content

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// MarkdownFormat implements Format for Markdown files. Every level-one heading
// opens a new page; the first level-two heading inside it is the subtitle.
type MarkdownFormat struct{}

func init() {
	Register(&MarkdownFormat{})
}

func (f *MarkdownFormat) Name() string         { return "Markdown" }
func (f *MarkdownFormat) Extensions() []string { return []string{".md", ".markdown"} }

// headerRegex matches markdown headers (# to ######)
var headerRegex = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// Pages splits a Markdown file into pages.
func (f *MarkdownFormat) Pages(filename string) ([]Page, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var pages []Page
	var current *Page
	var body []string

	flush := func() {
		if current == nil {
			return
		}
		current.Body = strings.TrimSpace(strings.Join(body, "\n"))
		pages = append(pages, *current)
		body = nil
	}

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()

		if match := headerRegex.FindStringSubmatch(line); match != nil {
			title := strings.TrimSpace(match[2])
			switch {
			case len(match[1]) == 1:
				flush()
				current = &Page{Title: title}
				continue
			case len(match[1]) == 2 && current != nil && current.Subtitle == "":
				current.Subtitle = title
				continue
			}
		}

		if current == nil {
			if strings.TrimSpace(line) == "" {
				continue
			}
			// Text before the first heading is an untitled page.
			current = &Page{}
		}
		body = append(body, line)
	}
	flush()

	return pages, scanner.Err()
}
