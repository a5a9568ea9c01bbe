package content

import (
	"os"
	"testing"
)

func TestExtractTextFromHTML(t *testing.T) {
	htmlContent := `
	<html>
		<head><title>Test</title><style>p { color: red }</style></head>
		<body>
			<h1>Chapter 1</h1>
			<p>This is the <b>first</b> paragraph.</p>
			<p>
				This is the second paragraph
				with a newline.
			</p>
			<div>Some <span>nested</span> text.</div>
		</body>
	</html>
	`

	want := "Chapter 1\nThis is the first paragraph.\nThis is the second paragraph with a newline.\nSome nested text.\n"
	if got := extractTextFromHTML(htmlContent); got != want {
		t.Errorf("extractTextFromHTML() = %q, want %q", got, want)
	}
}

func TestNavTitles(t *testing.T) {
	titles := make(navTitles)
	titles.add("text/ch01.xhtml", "Chapter One")
	titles.add("text/ch01.xhtml#sec2", "Section Two")
	titles.add("ch02.xhtml#start", "Chapter Two")

	tests := []struct {
		href string
		want string
		ok   bool
	}{
		{"text/ch01.xhtml", "Chapter One", true},
		{"ch01.xhtml", "Chapter One", true},
		{"OEBPS/ch02.xhtml", "Chapter Two", true},
		{"ch03.xhtml", "", false},
	}

	for _, tt := range tests {
		got, ok := titles.lookup(tt.href)
		if got != tt.want || ok != tt.ok {
			t.Errorf("lookup(%q) = %q, %v; want %q, %v", tt.href, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEPUBPages(t *testing.T) {
	// Skip if SherlockHolmes.epub doesn't exist
	epubPath := "../../SherlockHolmes.epub"
	if _, err := os.Stat(epubPath); os.IsNotExist(err) {
		t.Skip("SherlockHolmes.epub not found, skipping test")
	}

	pages, err := (&EPUBFormat{}).Pages(epubPath)
	if err != nil {
		t.Fatalf("Pages failed: %v", err)
	}
	if len(pages) == 0 {
		t.Error("Expected non-empty pages")
	}
	for i, p := range pages {
		t.Logf("%d. %s (%d chars)", i+1, p.Title, len(p.Body))
	}
}
