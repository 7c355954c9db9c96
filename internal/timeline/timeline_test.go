package timeline

import (
	"math"
	"testing"
)

func TestPixelToTime(t *testing.T) {
	tests := []struct {
		name                string
		px, width, duration float64
		want                float64
	}{
		{"left edge", 0, 800, 120, 0},
		{"right edge", 800, 800, 120, 120},
		{"middle", 400, 800, 120, 60},
		{"left of track", -30, 800, 120, 0},
		{"right of track", 900, 800, 120, 120},
		{"zero width", 10, 0, 120, 0},
		{"zero duration", 10, 800, 0, 0},
		{"nan offset", math.NaN(), 800, 120, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PixelToTime(tt.px, tt.width, tt.duration); got != tt.want {
				t.Errorf("PixelToTime(%v, %v, %v) = %v, want %v", tt.px, tt.width, tt.duration, got, tt.want)
			}
		})
	}
}

func TestPixelToTimeMonotonic(t *testing.T) {
	prev := PixelToTime(-50, 640, 93.7)
	for px := -49.0; px <= 700; px++ {
		got := PixelToTime(px, 640, 93.7)
		if got < prev {
			t.Fatalf("PixelToTime(%v) = %v < PixelToTime(%v) = %v", px, got, px-1, prev)
		}
		prev = got
	}
}

func TestTimeToPercent(t *testing.T) {
	tests := []struct {
		name        string
		t, duration float64
		want        float64
	}{
		{"start", 0, 200, 0},
		{"quarter", 50, 200, 25},
		{"end", 200, 200, 100},
		{"past end", 300, 200, 100},
		{"negative", -5, 200, 0},
		{"zero duration", 42, 0, 0},
		{"negative duration", 42, -1, 0},
		{"nan", math.NaN(), 200, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TimeToPercent(tt.t, tt.duration); got != tt.want {
				t.Errorf("TimeToPercent(%v, %v) = %v, want %v", tt.t, tt.duration, got, tt.want)
			}
		})
	}
}

func TestLayoutClipsOverlap(t *testing.T) {
	clips := []Clip{
		{ID: "b", StartTime: 5, EndTime: 15},
		{ID: "a", StartTime: 0, EndTime: 10},
	}
	layouts := LayoutClips(clips, 100)
	if len(layouts) != 2 {
		t.Fatalf("LayoutClips() returned %d layouts, want 2", len(layouts))
	}
	z := map[string]int{}
	for _, l := range layouts {
		z[l.Clip.ID] = l.ZOrder
		if l.WidthPercent < MinClipWidthPercent {
			t.Errorf("clip %s width %v below floor", l.Clip.ID, l.WidthPercent)
		}
	}
	if z["b"] <= z["a"] {
		t.Errorf("later clip b has zOrder %d, a has %d", z["b"], z["a"])
	}
	if layouts[0].LeftPercent != 0 || layouts[0].WidthPercent != 10 {
		t.Errorf("clip a layout = %+v", layouts[0])
	}
	if layouts[1].LeftPercent != 5 || layouts[1].WidthPercent != 10 {
		t.Errorf("clip b layout = %+v", layouts[1])
	}
}

func TestLayoutClipsTieBreakAndFloor(t *testing.T) {
	clips := []Clip{
		{ID: "z", StartTime: 10, EndTime: 10.01, Status: "weird"},
		{ID: "m", StartTime: 10, EndTime: 20, Status: StatusReady},
		{ID: "tail", StartTime: 999.9, EndTime: 1000},
	}
	layouts := LayoutClips(clips, 1000)
	if layouts[0].Clip.ID != "m" || layouts[1].Clip.ID != "z" {
		t.Fatalf("tie not broken by id: %s, %s", layouts[0].Clip.ID, layouts[1].Clip.ID)
	}
	if layouts[1].WidthPercent != MinClipWidthPercent {
		t.Errorf("short clip width = %v, want floor", layouts[1].WidthPercent)
	}
	if layouts[1].Clip.Status != StatusPending {
		t.Errorf("unknown status = %q, want pending", layouts[1].Clip.Status)
	}
	tail := layouts[2]
	if tail.LeftPercent+tail.WidthPercent > 100 {
		t.Errorf("tail clip overflows track: %+v", tail)
	}
}

func TestLayoutClipsZeroDuration(t *testing.T) {
	layouts := LayoutClips([]Clip{{ID: "a", StartTime: 1, EndTime: 2}}, 0)
	if len(layouts) != 1 {
		t.Fatal("clip dropped for zero duration")
	}
	if layouts[0].LeftPercent != 0 || layouts[0].WidthPercent != MinClipWidthPercent {
		t.Errorf("layout = %+v", layouts[0])
	}
}

func TestHitTest(t *testing.T) {
	layouts := LayoutClips([]Clip{
		{ID: "a", StartTime: 0, EndTime: 10},
		{ID: "b", StartTime: 5, EndTime: 15},
	}, 100)

	tests := []struct {
		name   string
		px     float64
		wantID string
		wantOK bool
	}{
		{"only a", 20, "a", true},
		{"overlap picks top", 70, "b", true},
		{"only b", 140, "b", true},
		{"empty track", 500, "", false},
		{"off track", -5, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := HitTest(layouts, tt.px, 1000)
			if ok != tt.wantOK || got.Clip.ID != tt.wantID {
				t.Errorf("HitTest(%v) = %q, %v; want %q, %v", tt.px, got.Clip.ID, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	for in, want := range map[string]ClipStatus{
		"ready":      StatusReady,
		"PROCESSING": StatusProcessing,
		"error":      StatusError,
		"":           StatusPending,
		"unknown":    StatusPending,
	} {
		if got := ParseStatus(in); got != want {
			t.Errorf("ParseStatus(%q) = %q, want %q", in, got, want)
		}
	}
}
