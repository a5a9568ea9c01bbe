package pagemap

import (
	"errors"
	"testing"
)

func TestPartOf(t *testing.T) {
	tests := []struct {
		page int
		part int
	}{
		{1, 1},
		{56, 1},
		{57, 2},
		{110, 2},
		{111, 3},
		{146, 3},
		{147, 4},
		{164, 4},
		{-3, 1},
		{500, 4},
	}

	for _, tt := range tests {
		if got := PartOf(tt.page); got != tt.part {
			t.Errorf("PartOf(%d) = %d, want %d", tt.page, got, tt.part)
		}
	}
}

func TestPartOfMonotonic(t *testing.T) {
	var breaks []int
	prev := PartOf(MinPage)
	for p := MinPage + 1; p <= MaxPage; p++ {
		cur := PartOf(p)
		if cur < prev {
			t.Fatalf("PartOf decreased at page %d: %d -> %d", p, prev, cur)
		}
		if cur != prev {
			breaks = append(breaks, p-1)
		}
		prev = cur
	}

	want := []int{56, 110, 146}
	if len(breaks) != len(want) {
		t.Fatalf("breakpoints = %v, want %v", breaks, want)
	}
	for i := range want {
		if breaks[i] != want[i] {
			t.Errorf("breakpoint %d = %d, want %d", i, breaks[i], want[i])
		}
	}
}

func TestClampToValidLeftPage(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{1, 1},
		{2, 1},
		{3, 3},
		{0, 1},
		{-10, 1},
		{164, 163},
		{165, 163},
		{1000, 163},
		{58, 57},
	}

	for _, tt := range tests {
		if got := ClampToValidLeftPage(tt.in); got != tt.want {
			t.Errorf("ClampToValidLeftPage(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestClampToValidLeftPageIdempotent(t *testing.T) {
	for p := -20; p <= MaxPage+20; p++ {
		once := ClampToValidLeftPage(p)
		if twice := ClampToValidLeftPage(once); twice != once {
			t.Errorf("ClampToValidLeftPage not idempotent at %d: %d then %d", p, once, twice)
		}
		if once%2 == 0 || once < MinPage || once > MaxPage {
			t.Errorf("ClampToValidLeftPage(%d) = %d is not a valid left page", p, once)
		}
	}
}

func TestTopicCounts(t *testing.T) {
	want := map[int]int{1: 18, 2: 18, 3: 9, 4: 6}
	for part, n := range want {
		if got := TopicCount(part); got != n {
			t.Errorf("TopicCount(%d) = %d, want %d", part, got, n)
		}
	}
	if got := TopicCount(7); got != 0 {
		t.Errorf("TopicCount(7) = %d, want 0", got)
	}
}

func TestLeftPageForTopic(t *testing.T) {
	tests := []struct {
		name        string
		part, topic int
		want        int
	}{
		{"part 1 first topic skips contents", 1, 1, 3},
		{"part 1 even start normalized", 1, 2, 5},
		{"part 2 first topic", 2, 1, 57},
		{"part 3 uses four page topics", 3, 2, 115},
		{"part 4 first topic", 4, 1, 147},
		{"topic below one clamps", 2, -4, 57},
		{"topic beyond count clamps", 3, 40, 143},
		{"unknown part", 9, 1, MinPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LeftPageForTopic(tt.part, tt.topic); got != tt.want {
				t.Errorf("LeftPageForTopic(%d, %d) = %d, want %d", tt.part, tt.topic, got, tt.want)
			}
		})
	}
}

func TestTopicRoundTrip(t *testing.T) {
	for part := 1; part <= Parts; part++ {
		start, end := PartRange(part)
		for topic := 1; topic <= TopicCount(part)+5; topic++ {
			left := LeftPageForTopic(part, topic)
			if left%2 == 0 {
				t.Errorf("part %d topic %d: left page %d is even", part, topic, left)
			}
			if left < start || left > end {
				t.Errorf("part %d topic %d: left page %d outside [%d,%d]", part, topic, left, start, end)
			}
			if topic > TopicCount(part) {
				continue
			}
			got, ok := TopicForLeftPage(part, left)
			if !ok || got != topic {
				t.Errorf("TopicForLeftPage(%d, %d) = %d, %v; want %d", part, left, got, ok, topic)
			}
		}
	}
}

func TestTopicForLeftPageNotFound(t *testing.T) {
	tests := []struct {
		name       string
		part, page int
	}{
		{"page in another part", 1, 57},
		{"contents spread", 1, 1},
		{"unknown part", 0, 3},
		{"before part 3", 3, 109},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := TopicForLeftPage(tt.part, tt.page); ok {
				t.Errorf("TopicForLeftPage(%d, %d) = %d, want not found", tt.part, tt.page, got)
			}
		})
	}
}

func TestTopicForMidTopicPage(t *testing.T) {
	// Page 7 is the middle of topic 2 of part 1 (pages 6-8, shown from 5).
	got, ok := TopicForLeftPage(1, 7)
	if !ok || got != 2 {
		t.Errorf("TopicForLeftPage(1, 7) = %d, %v; want 2", got, ok)
	}
}

func TestTopicPageRangeLabel(t *testing.T) {
	if got := TopicPageRangeLabel(3, 1, "Pages"); got != "Pages 111-114" {
		t.Errorf("got %q", got)
	}
	if got := TopicPageRangeLabel(4, 6, ""); got != "Pages 161-163" {
		t.Errorf("got %q", got)
	}
}

func TestTopics(t *testing.T) {
	topics := Topics(2)
	if len(topics) != 18 {
		t.Fatalf("len(Topics(2)) = %d, want 18", len(topics))
	}
	if topics[0].LeftPage != 57 || topics[0].Number != 1 {
		t.Errorf("first topic = %+v", topics[0])
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{" 58 ", 57, false},
		{"164", 163, false},
		{"0", 0, true},
		{"165", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		got, err := ParsePage(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParsePage(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePage(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePage(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}

	if _, err := ParsePage("200"); !errors.Is(err, ErrPageOutOfRange) {
		t.Errorf("ParsePage(200) err = %v, want ErrPageOutOfRange", err)
	}
}
