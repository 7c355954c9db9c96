package transcription

import (
	"errors"
	"strings"
	"testing"
	"time"

	"jamesfarrell.me/clipstudio/internal/parts"
	"jamesfarrell.me/clipstudio/internal/storage/models"
)

func testParts() []parts.VideoPart {
	return []parts.VideoPart{
		{Index: 0, StartTime: 0, EndTime: 30, Duration: 30},
		{Index: 1, StartTime: 30, EndTime: 65, Duration: 35},
	}
}

func TestToGlobal(t *testing.T) {
	segs := []Segment{
		{Start: 0, End: 5, Text: " first "},
		{Start: 33, End: 40, Text: "runs past the part"},
		{Start: 10, End: 12, Text: "   "},
	}
	got, err := ToGlobal(testParts(), 1, segs)
	if err != nil {
		t.Fatalf("ToGlobal() error = %v", err)
	}
	want := []Segment{
		{Start: 30, End: 35, Text: "first"},
		{Start: 63, End: 65, Text: "runs past the part"},
	}
	if len(got) != len(want) {
		t.Fatalf("ToGlobal() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ToGlobal()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestToGlobalSingleResource(t *testing.T) {
	got, err := ToGlobal(nil, 0, []Segment{{Start: 100, End: 104, Text: "x"}})
	if err != nil || len(got) != 1 || got[0].Start != 100 {
		t.Errorf("ToGlobal(nil) = %+v, %v", got, err)
	}
}

func TestToGlobalBadPart(t *testing.T) {
	if _, err := ToGlobal(testParts(), 5, nil); !errors.Is(err, parts.ErrNoSuchPart) {
		t.Errorf("ToGlobal() error = %v, want ErrNoSuchPart", err)
	}
}

func TestMergeOrdersAcrossParts(t *testing.T) {
	merged := Merge([][]Segment{
		{{Start: 30, End: 31, Text: "b"}},
		{{Start: 0, End: 1, Text: "a"}, {Start: 40, End: 41, Text: "c"}},
	})
	var texts []string
	for _, s := range merged {
		texts = append(texts, s.Text)
	}
	if strings.Join(texts, "") != "abc" {
		t.Errorf("Merge() order = %v", texts)
	}
}

func TestChunkCues(t *testing.T) {
	var cues []models.Cue
	for i := 0; i < 40; i++ {
		cues = append(cues, models.Cue{
			Number: i + 1,
			Start:  time.Duration(i) * time.Second,
			End:    time.Duration(i+1) * time.Second,
			Text:   strings.Repeat("word ", 10),
		})
	}
	chunks := ChunkCues(cues)
	if len(chunks) < 2 {
		t.Fatalf("ChunkCues() produced %d chunks", len(chunks))
	}
	if chunks[0].StartTime != 0 {
		t.Errorf("first chunk starts at %v", chunks[0].StartTime)
	}
	if last := chunks[len(chunks)-1]; last.EndTime != 40*time.Second {
		t.Errorf("last chunk ends at %v", last.EndTime)
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].StartTime >= chunks[i-1].EndTime {
			t.Errorf("chunk %d does not overlap its predecessor", i)
		}
		if chunks[i].StartTime <= chunks[i-1].StartTime {
			t.Errorf("chunk %d does not advance", i)
		}
	}
	if got := ChunkCues(nil); len(got) != 0 {
		t.Errorf("ChunkCues(nil) = %+v", got)
	}
}
