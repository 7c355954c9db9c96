package transcription

import (
	"testing"
	"time"

	"jamesfarrell.me/clipstudio/internal/storage/models"
)

func TestParseVTT(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []models.Cue
		wantErr bool
	}{
		{
			name: "two cues",
			content: `WEBVTT

00:00:01.000 --> 00:00:04.000
Welcome back to the channel

00:00:04.100 --> 00:00:08.000
Today we cut the intro`,
			want: []models.Cue{
				{Number: 1, Start: time.Second, End: 4 * time.Second, Text: "Welcome back to the channel"},
				{Number: 2, Start: 4100 * time.Millisecond, End: 8 * time.Second, Text: "Today we cut the intro"},
			},
		},
		{
			name: "cue text spanning lines is joined",
			content: `WEBVTT

00:00:01.000 --> 00:00:04.000
Welcome back
to the channel`,
			want: []models.Cue{
				{Number: 1, Start: time.Second, End: 4 * time.Second, Text: "Welcome back to the channel"},
			},
		},
		{
			name:    "identifiers settings and CRLF",
			content: "WEBVTT\r\n\r\nintro\r\n00:00:01.000 --> 00:00:04.000 align:start\r\nFirst\r\n\r\n2\r\n01:00.000 --> 01:02.500\r\nSecond",
			want: []models.Cue{
				{Number: 1, Start: time.Second, End: 4 * time.Second, Text: "First"},
				{Number: 2, Start: time.Minute, End: time.Minute + 2500*time.Millisecond, Text: "Second"},
			},
		},
		{
			name:    "escaped newlines from a JSON string",
			content: `"WEBVTT\n\n00:00:00.000 --> 00:00:02.000\nHi"`,
			want: []models.Cue{
				{Number: 1, Start: 0, End: 2 * time.Second, Text: "Hi"},
			},
		},
		{
			name:    "header only",
			content: "WEBVTT\n\n",
			want:    []models.Cue{},
		},
		{
			name:    "missing header",
			content: "00:00:01.000 --> 00:00:04.000\nno header",
			wantErr: true,
		},
		{
			name:    "bad start timestamp",
			content: "WEBVTT\n\n0:01.000 --> 00:00:04.000\ntext",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cues, err := ParseVTT(tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVTT() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(cues) != len(tt.want) {
				t.Fatalf("ParseVTT() got %d cues, want %d: %+v", len(cues), len(tt.want), cues)
			}
			for i := range cues {
				if cues[i] != tt.want[i] {
					t.Errorf("cue %d = %+v, want %+v", i, cues[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseVTTTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "00:00:00.000", want: 0},
		{in: "00:00:00.500", want: 500 * time.Millisecond},
		{in: "01:23:45.678", want: time.Hour + 23*time.Minute + 45*time.Second + 678*time.Millisecond},
		{in: "02:03.250", want: 2*time.Minute + 3*time.Second + 250*time.Millisecond},
		{in: "100:00:00.000", want: 100 * time.Hour},
		{in: "1:23:45.678", wantErr: true},
		{in: "00:00:01", wantErr: true},
		{in: "00:00:01.5", wantErr: true},
		{in: "aa:00:01.000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseVTTTimestamp(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseVTTTimestamp(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseVTTTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatVTTRoundTrip(t *testing.T) {
	segs := []Segment{
		{Start: 0, End: 4.25, Text: "Hello there"},
		{Start: 3661.5, End: 3663, Text: "an hour in"},
	}
	content := FormatVTT(ToCues(segs))

	cues, err := ParseVTT(content)
	if err != nil {
		t.Fatalf("ParseVTT(FormatVTT()) error = %v\n%s", err, content)
	}
	if len(cues) != 2 {
		t.Fatalf("got %d cues, want 2", len(cues))
	}
	if cues[1].Start != time.Hour+time.Minute+1500*time.Millisecond || cues[1].Text != "an hour in" {
		t.Errorf("cue = %+v", cues[1])
	}
	if cues[0].End != 4250*time.Millisecond {
		t.Errorf("cue end = %v", cues[0].End)
	}
}
