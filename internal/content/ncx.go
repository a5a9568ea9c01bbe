package content

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
)

const ncxMediaType = "application/x-dtbncx+xml"

var errNoNCX = errors.New("no NCX file found in EPUB")

type ncxDocument struct {
	Points []ncxPoint `xml:"navMap>navPoint"`
}

type ncxPoint struct {
	Label    string     `xml:"navLabel>text"`
	Src      ncxSrc     `xml:"content"`
	Children []ncxPoint `xml:"navPoint"`
}

type ncxSrc struct {
	Href string `xml:"src,attr"`
}

// navTitles maps spine document names to their NCX labels. The first label
// seen for a document wins, so a chapter keeps its own title rather than that
// of a nested section.
type navTitles map[string]string

func (t navTitles) add(href, title string) {
	doc, _, _ := strings.Cut(href, "#")
	for _, k := range []string{href, doc, path.Base(doc)} {
		if _, ok := t[k]; !ok {
			t[k] = title
		}
	}
}

// lookup finds the title for a spine item href.
func (t navTitles) lookup(href string) (string, bool) {
	if title, ok := t[href]; ok {
		return title, true
	}
	title, ok := t[path.Base(href)]
	return title, ok
}

// readNavTitles parses the EPUB's NCX. A missing or malformed NCX yields an
// empty map.
func readNavTitles(filename string, book *epub.Rootfile) navTitles {
	titles := make(navTitles)

	data, err := readNCX(filename, book)
	if err != nil {
		return titles
	}
	var doc ncxDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return titles
	}

	var walk func([]ncxPoint)
	walk = func(points []ncxPoint) {
		for _, p := range points {
			titles.add(p.Src.Href, strings.TrimSpace(p.Label))
			walk(p.Children)
		}
	}
	walk(doc.Points)
	return titles
}

func readNCX(filename string, book *epub.Rootfile) ([]byte, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	name := ""
	for _, item := range book.Manifest.Items {
		if item.MediaType == ncxMediaType {
			name = item.HREF
			break
		}
	}

	for _, f := range zr.File {
		matched := name != "" && (f.Name == name || path.Base(f.Name) == path.Base(name))
		if name == "" {
			matched = strings.HasSuffix(strings.ToLower(f.Name), ".ncx")
		}
		if !matched {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, errNoNCX
}
