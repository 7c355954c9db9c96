package parts

import (
	"errors"
	"math"
	"testing"
)

func sampleParts() []VideoPart {
	return Normalize([]RawPart{
		{StartTime: floatp(30), EndTime: floatp(65), MediaID: "b"},
		{StartTime: floatp(0), EndTime: floatp(30), MediaID: "a"},
		{StartTime: floatp(65), EndTime: floatp(77.5), MediaID: "c"},
	}, quietLogger())
}

func TestLocate(t *testing.T) {
	parts := sampleParts()
	tests := []struct {
		name       string
		time       float64
		wantOK     bool
		wantPart   int
		wantOffset float64
	}{
		{"start of first", 0, true, 0, 0},
		{"inside first", 12, true, 0, 12},
		{"boundary belongs to next", 30, true, 1, 0},
		{"inside second", 64.5, true, 1, 34.5},
		{"inside last", 70, true, 2, 5},
		{"before first", -0.1, false, 0, 0},
		{"at end", 77.5, false, 0, 0},
		{"after end", 100, false, 0, 0},
		{"nan", math.NaN(), false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Locate(parts, tt.time)
			if ok != tt.wantOK {
				t.Fatalf("Locate(%v) ok = %v, want %v", tt.time, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.PartIndex != tt.wantPart || got.OffsetTime != tt.wantOffset {
				t.Errorf("Locate(%v) = %+v, want part %d offset %v", tt.time, got, tt.wantPart, tt.wantOffset)
			}
		})
	}
}

func TestLocateGap(t *testing.T) {
	parts := Normalize([]RawPart{raw(0, 10), raw(20, 30)}, quietLogger())
	if _, ok := Locate(parts, 15); ok {
		t.Error("Locate() found a part inside a gap")
	}
	if loc, ok := Locate(parts, 20); !ok || loc.PartIndex != 1 {
		t.Errorf("Locate(20) = %+v, %v", loc, ok)
	}
}

func TestLocateEmpty(t *testing.T) {
	for _, tm := range []float64{-1, 0, 1, 1e9} {
		if _, ok := Locate(nil, tm); ok {
			t.Errorf("Locate(nil, %v) found a part", tm)
		}
	}
}

func TestLocateCoversRange(t *testing.T) {
	parts := sampleParts()
	for tm := 0.0; tm < TotalDuration(parts); tm += 0.25 {
		loc, ok := Locate(parts, tm)
		if !ok {
			t.Fatalf("Locate(%v) not found", tm)
		}
		p := parts[loc.PartIndex]
		if !p.Contains(tm) {
			t.Fatalf("Locate(%v) returned part %d [%v,%v)", tm, loc.PartIndex, p.StartTime, p.EndTime)
		}
		if loc.OffsetTime < 0 || loc.OffsetTime >= p.Duration {
			t.Fatalf("Locate(%v) offset %v outside [0,%v)", tm, loc.OffsetTime, p.Duration)
		}
		back, err := MapPartOffsetToGlobalTime(parts, loc.PartIndex, loc.OffsetTime)
		if err != nil || back != tm {
			t.Fatalf("round trip of %v = %v, %v", tm, back, err)
		}
	}
}

func TestLocateRoundTripDecimalTimes(t *testing.T) {
	parts := Normalize([]RawPart{raw(0.1, 3.3), raw(3.3, 7.77)}, quietLogger())
	const eps = 1e-9
	for i := 0; i < 1000; i++ {
		tm := 0.1 + float64(i)*0.0076
		loc, ok := Locate(parts, tm)
		if !ok {
			t.Fatalf("Locate(%v) not found", tm)
		}
		back, err := MapPartOffsetToGlobalTime(parts, loc.PartIndex, loc.OffsetTime)
		if err != nil || math.Abs(back-tm) > eps {
			t.Fatalf("round trip of %v = %v, %v", tm, back, err)
		}
	}
}

func TestMapPartOffsetToGlobalTime(t *testing.T) {
	parts := sampleParts()
	got, err := MapPartOffsetToGlobalTime(parts, 1, 5)
	if err != nil || got != 35 {
		t.Errorf("MapPartOffsetToGlobalTime(1, 5) = %v, %v", got, err)
	}
	for _, idx := range []int{-1, 3} {
		if _, err := MapPartOffsetToGlobalTime(parts, idx, 0); !errors.Is(err, ErrNoSuchPart) {
			t.Errorf("MapPartOffsetToGlobalTime(%d) error = %v, want ErrNoSuchPart", idx, err)
		}
	}
}

func TestSplitRange(t *testing.T) {
	parts := sampleParts()
	tests := []struct {
		name       string
		start, end float64
		want       []PartRange
	}{
		{
			name:  "inside one part",
			start: 5,
			end:   10,
			want:  []PartRange{{PartIndex: 0, MediaID: "a", StartOffset: 5, EndOffset: 10}},
		},
		{
			name:  "spans three parts",
			start: 20,
			end:   70,
			want:  []PartRange{
				{PartIndex: 0, MediaID: "a", StartOffset: 20, EndOffset: 30},
				{PartIndex: 1, MediaID: "b", StartOffset: 0, EndOffset: 35},
				{PartIndex: 2, MediaID: "c", StartOffset: 0, EndOffset: 5},
			},
		},
		{
			name:  "ends on boundary",
			start: 10,
			end:   30,
			want:  []PartRange{{PartIndex: 0, MediaID: "a", StartOffset: 10, EndOffset: 30}},
		},
		{
			name:  "past the end is clipped",
			start: 70,
			end:   200,
			want:  []PartRange{{PartIndex: 2, MediaID: "c", StartOffset: 5, EndOffset: 12.5}},
		},
		{name: "empty interval", start: 10, end: 10, want: nil},
		{name: "outside", start: 100, end: 200, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitRange(parts, tt.start, tt.end)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitRange() = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("SplitRange()[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
