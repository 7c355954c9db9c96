package parts

import (
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func intp(i int) *int { return &i }

func floatp(f float64) *float64 { return &f }

func raw(start, end float64) RawPart {
	return RawPart{StartTime: floatp(start), EndTime: floatp(end)}
}

func TestNormalize(t *testing.T) {
	x := 12.5
	tests := []struct {
		name      string
		raw       []RawPart
		wantStart []float64
		wantMedia []string
	}{
		{
			name: "out of order with partIndex",
			raw: []RawPart{
				{PartIndex: intp(2), StartTime: floatp(65), EndTime: floatp(65 + x), CloudinaryPublicID: "c"},
				{PartIndex: intp(0), StartTime: floatp(0), EndTime: floatp(30), CloudinaryPublicID: "a"},
				{PartIndex: intp(1), StartTime: floatp(30), EndTime: floatp(65), CloudinaryPublicID: "b"},
			},
			wantStart: []float64{0, 30, 65},
			wantMedia: []string{"a", "b", "c"},
		},
		{
			name: "duplicate and missing indices",
			raw: []RawPart{
				{Index: intp(0), StartTime: floatp(10), EndTime: floatp(20), MediaID: "b"},
				{StartTime: floatp(20), EndTime: floatp(30), MediaID: "c"},
				{Index: intp(0), StartTime: floatp(0), EndTime: floatp(10), MediaID: "a"},
			},
			wantStart: []float64{0, 10, 20},
			wantMedia: []string{"a", "b", "c"},
		},
		{
			name: "malformed records dropped",
			raw: []RawPart{
				{StartTime: floatp(0), EndTime: floatp(10), MediaID: "a"},
				{StartTime: nil, EndTime: floatp(20), MediaID: "missing"},
				{StartTime: floatp(math.NaN()), EndTime: floatp(20), MediaID: "nan"},
				{StartTime: floatp(20), EndTime: floatp(20), MediaID: "empty"},
				{StartTime: floatp(30), EndTime: floatp(25), MediaID: "reversed"},
				{StartTime: floatp(10), EndTime: floatp(math.Inf(1)), MediaID: "inf"},
				{StartTime: floatp(10), EndTime: floatp(20), MediaID: "b"},
			},
			wantStart: []float64{0, 10},
			wantMedia: []string{"a", "b"},
		},
		{
			name: "overlapping record dropped",
			raw: []RawPart{
				{StartTime: floatp(0), EndTime: floatp(10), MediaID: "a"},
				{StartTime: floatp(5), EndTime: floatp(15), MediaID: "overlap"},
				{StartTime: floatp(10), EndTime: floatp(20), MediaID: "b"},
			},
			wantStart: []float64{0, 10},
			wantMedia: []string{"a", "b"},
		},
		{
			name:      "empty",
			raw:       nil,
			wantStart: nil,
			wantMedia: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw, quietLogger())
			if len(got) != len(tt.wantStart) {
				t.Fatalf("Normalize() returned %d parts, want %d", len(got), len(tt.wantStart))
			}
			for i, p := range got {
				if p.Index != i {
					t.Errorf("parts[%d].Index = %d", i, p.Index)
				}
				if p.StartTime != tt.wantStart[i] {
					t.Errorf("parts[%d].StartTime = %v, want %v", i, p.StartTime, tt.wantStart[i])
				}
				if p.MediaID != tt.wantMedia[i] {
					t.Errorf("parts[%d].MediaID = %q, want %q", i, p.MediaID, tt.wantMedia[i])
				}
				if i > 0 && got[i-1].EndTime > p.StartTime {
					t.Errorf("parts[%d] overlaps parts[%d]", i, i-1)
				}
			}
		})
	}
}

func TestNormalizeDuration(t *testing.T) {
	got := Normalize([]RawPart{
		{StartTime: floatp(0), EndTime: floatp(10)},
		{StartTime: floatp(10), EndTime: floatp(20), Duration: floatp(9)},
	}, quietLogger())
	if got[0].Duration != 10 {
		t.Errorf("derived duration = %v, want 10", got[0].Duration)
	}
	if got[1].Duration != 9 {
		t.Errorf("supplied duration = %v, want 9 (kept as supplied)", got[1].Duration)
	}
}

func TestRawPartReportedIndex(t *testing.T) {
	tests := []struct {
		name string
		raw  RawPart
		want int
	}{
		{"index", RawPart{Index: intp(3), PartIndex: intp(5)}, 3},
		{"partIndex", RawPart{PartIndex: intp(5)}, 5},
		{"position", RawPart{}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.raw.ReportedIndex(7); got != tt.want {
				t.Errorf("ReportedIndex() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTotalDuration(t *testing.T) {
	if got := TotalDuration(nil); got != 0 {
		t.Errorf("TotalDuration(nil) = %v", got)
	}
	parts := Normalize([]RawPart{raw(0, 30), raw(30, 65)}, quietLogger())
	if got := TotalDuration(parts); got != 65 {
		t.Errorf("TotalDuration() = %v, want 65", got)
	}
}
