package parts

import (
	"errors"
	"testing"
)

func TestResolverPlaybackURL(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		part    VideoPart
		want    string
		wantErr error
	}{
		{
			name:   "configured origin",
			origin: "res.cloudinary.com/demo",
			part:   VideoPart{MediaID: "videos/abc_part1"},
			want:   "https://res.cloudinary.com/demo/video/upload/f_auto,q_auto/videos/abc_part1",
		},
		{
			name:   "origin with scheme and slash",
			origin: "https://cdn.example.com/",
			part:   VideoPart{MediaID: "abc"},
			want:   "https://cdn.example.com/video/upload/f_auto,q_auto/abc",
		},
		{
			name: "falls back to secure url",
			part: VideoPart{MediaID: "abc", SecureURL: "https://direct.example.com/abc.mp4"},
			want: "https://direct.example.com/abc.mp4",
		},
		{
			name:    "no origin and no url",
			part:    VideoPart{MediaID: "abc"},
			wantErr: ErrNoDeliveryOrigin,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewResolver(tt.origin).PlaybackURL(tt.part)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("PlaybackURL() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("PlaybackURL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("PlaybackURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolverTrimURL(t *testing.T) {
	r := NewResolver("res.cloudinary.com/demo")
	got, err := r.TrimURL("abc", 1.5, 9)
	if err != nil {
		t.Fatal(err)
	}
	want := "https://res.cloudinary.com/demo/video/upload/so_1.50,eo_9.00/f_auto,q_auto/abc"
	if got != want {
		t.Errorf("TrimURL() = %q, want %q", got, want)
	}
	if _, err := r.TrimURL("abc", 5, 5); err == nil {
		t.Error("TrimURL() accepted an empty range")
	}
	if _, err := NewResolver("").TrimURL("abc", 0, 1); !errors.Is(err, ErrNoDeliveryOrigin) {
		t.Errorf("TrimURL() without origin error = %v", err)
	}
}
