package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMarkdownPages(t *testing.T) {
	tmpDir := t.TempDir()
	mdFile := filepath.Join(tmpDir, "book.md")

	text := `# Inhalt
Contents of the book.

# Familie
## Wortschatz
Die Mutter, der Vater.

### Übung
Fill in the gaps.

# Arbeit
Body without subtitle.
`
	if err := os.WriteFile(mdFile, []byte(text), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	book, err := Load(mdFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if book.Len() != 3 {
		t.Fatalf("Expected 3 pages, got %d", book.Len())
	}
	if book.Title != "book" {
		t.Errorf("Title = %q, want book", book.Title)
	}

	p, ok := book.Resolve(2)
	if !ok {
		t.Fatal("page 2 should resolve")
	}
	if p.Title != "Familie" || p.Subtitle != "Wortschatz" {
		t.Errorf("page 2 = %q / %q", p.Title, p.Subtitle)
	}
	if !strings.Contains(p.Body, "### Übung") || !strings.Contains(p.Body, "Die Mutter") {
		t.Errorf("page 2 body = %q", p.Body)
	}
	if p.ContentKey != "Page2_Content" {
		t.Errorf("ContentKey = %q", p.ContentKey)
	}

	if p, _ := book.Resolve(3); p.Subtitle != "" {
		t.Errorf("page 3 subtitle = %q, want empty", p.Subtitle)
	}
	if _, ok := book.Resolve(4); ok {
		t.Error("page 4 should not resolve")
	}
}

func TestPlainTextPages(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "book.txt")
	os.WriteFile(path, []byte("First\nbody one\fSecond\nbody two\f\fFourth\n"), 0644)

	book, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if book.Len() != 4 {
		t.Fatalf("Expected 4 pages, got %d", book.Len())
	}
	if p, _ := book.Resolve(2); p.Title != "Second" || p.Body != "body two" {
		t.Errorf("page 2 = %+v", p)
	}
	if _, ok := book.Resolve(3); ok {
		t.Error("blank page 3 should not resolve")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error")
	}
}

func TestResolveOrPlaceholder(t *testing.T) {
	book := NewBook("b", []Page{{Title: "One"}})

	if p := ResolveOrPlaceholder(book, 1); p.Title != "One" {
		t.Errorf("page 1 title = %q", p.Title)
	}

	p := ResolveOrPlaceholder(book, 7)
	if !p.Empty() || p.Number != 7 || p.ContentKey != "Page7_Content" {
		t.Errorf("placeholder = %+v", p)
	}

	if p := ResolveOrPlaceholder(nil, 3); !p.Empty() || p.Number != 3 {
		t.Errorf("nil resolver placeholder = %+v", p)
	}
}

func TestSupportedFormats(t *testing.T) {
	formats := SupportedFormats()
	var sawEPUB, sawMarkdown bool
	for _, f := range formats {
		switch f {
		case "EPUB (.epub)":
			sawEPUB = true
		case "Markdown (.md, .markdown)":
			sawMarkdown = true
		}
	}
	if !sawEPUB || !sawMarkdown {
		t.Errorf("formats = %v", formats)
	}
}
