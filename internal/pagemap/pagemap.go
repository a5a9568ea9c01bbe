// Package pagemap converts between absolute book pages, parts, and topics.
//
// It is the only place that knows the book's page layout. Windows, topic
// buttons, and the session store all route page arithmetic through here so
// that offsets cannot drift apart between callers.
package pagemap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Absolute page range of the book.
const (
	MinPage = 1
	MaxPage = 164
)

// Parts are numbered 1..Parts.
const Parts = 4

// ContentsPage is the left page of the table-of-contents spread.
const ContentsPage = MinPage

// ErrPageOutOfRange is returned by ParsePage for input outside MinPage..MaxPage.
var ErrPageOutOfRange = errors.New("page out of range")

type partLayout struct {
	start     int // first absolute page of the part
	end       int // last absolute page of the part
	firstLeft int // first page of topic 1
	span      int // pages per topic
}

var layouts = [Parts + 1]partLayout{
	{},
	{start: 1, end: 56, firstLeft: 3, span: 3}, // pages 1-2 hold the contents spread
	{start: 57, end: 110, firstLeft: 57, span: 3},
	{start: 111, end: 146, firstLeft: 111, span: 4},
	{start: 147, end: 164, firstLeft: 147, span: 3},
}

func layout(part int) (partLayout, bool) {
	if part < 1 || part > Parts {
		return partLayout{}, false
	}
	return layouts[part], true
}

// PartOf returns the part an absolute page belongs to.
func PartOf(page int) int {
	switch {
	case page <= layouts[1].end:
		return 1
	case page <= layouts[2].end:
		return 2
	case page <= layouts[3].end:
		return 3
	}
	return 4
}

// PartRange returns the first and last absolute page of a part. Unknown parts
// cover the whole book.
func PartRange(part int) (start, end int) {
	l, ok := layout(part)
	if !ok {
		return MinPage, MaxPage
	}
	return l.start, l.end
}

// PagesPerTopic returns how many pages a topic of the part spans.
func PagesPerTopic(part int) int {
	l, ok := layout(part)
	if !ok {
		return 0
	}
	return l.span
}

// TopicCount returns the number of topics in a part.
func TopicCount(part int) int {
	l, ok := layout(part)
	if !ok {
		return 0
	}
	return (l.end - l.firstLeft + 1) / l.span
}

// ClampToValidLeftPage clamps page into the book and forces it onto a left
// (odd) page.
func ClampToValidLeftPage(page int) int {
	if page < MinPage {
		page = MinPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if page%2 == 0 {
		page--
	}
	if page < MinPage {
		page = MinPage
	}
	return page
}

// Spread returns the facing pages for any page of the book.
func Spread(page int) (left, right int) {
	left = ClampToValidLeftPage(page)
	return left, left + 1
}

// LeftPageForTopic returns the left page on which a topic starts. The topic
// is clamped into 1..TopicCount(part); an unknown part yields MinPage.
func LeftPageForTopic(part, topic int) int {
	l, ok := layout(part)
	if !ok {
		return MinPage
	}
	if n := TopicCount(part); topic > n {
		topic = n
	}
	if topic < 1 {
		topic = 1
	}
	return ClampToValidLeftPage(l.firstLeft + (topic-1)*l.span)
}

// TopicForLeftPage returns the topic of part shown on leftPage. The second
// result is false when the page is outside the part or before its first
// topic (the contents spread of part 1).
//
// Odd-normalization can move a topic's start back by one page, which puts it
// inside the previous topic's span, so the division result is corrected
// against LeftPageForTopic.
func TopicForLeftPage(part, leftPage int) (int, bool) {
	l, ok := layout(part)
	if !ok {
		return 0, false
	}
	leftPage = ClampToValidLeftPage(leftPage)
	if leftPage < l.start || leftPage > l.end || leftPage < LeftPageForTopic(part, 1) {
		return 0, false
	}

	n := TopicCount(part)
	topic := (leftPage-l.firstLeft)/l.span + 1
	if topic > n {
		topic = n
	}
	if topic < 1 {
		topic = 1
	}
	for topic < n && LeftPageForTopic(part, topic+1) <= leftPage {
		topic++
	}
	for topic > 1 && LeftPageForTopic(part, topic) > leftPage {
		topic--
	}
	return topic, true
}

// TopicPageRangeLabel renders the page span of a topic, e.g. "Pages 111-114".
func TopicPageRangeLabel(part, topic int, prefix string) string {
	if prefix == "" {
		prefix = "Pages"
	}
	left := LeftPageForTopic(part, topic)
	right := left + PagesPerTopic(part) - 1

	start, end := PartRange(part)
	if left < start {
		left = start
	}
	if right > end {
		right = end
	}
	return fmt.Sprintf("%s %d-%d", prefix, left, right)
}

// Topic describes one topic button of a part.
type Topic struct {
	Part     int
	Number   int
	LeftPage int
	Label    string
}

// Topics lists every topic of a part in order.
func Topics(part int) []Topic {
	n := TopicCount(part)
	out := make([]Topic, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, Topic{
			Part:     part,
			Number:   i,
			LeftPage: LeftPageForTopic(part, i),
			Label:    TopicPageRangeLabel(part, i, "Pages"),
		})
	}
	return out
}

// ParsePage parses user input from a "go to page" prompt and returns the
// left page of the requested spread.
func ParsePage(input string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("parse page %q: %w", input, err)
	}
	if n < MinPage || n > MaxPage {
		return 0, fmt.Errorf("page %d: %w", n, ErrPageOutOfRange)
	}
	return ClampToValidLeftPage(n), nil
}
