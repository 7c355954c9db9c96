// Package timeline maps between pixel positions on a rendered timeline track,
// playback time, and clip markers. Every function is pure.
package timeline

import (
	"math"
	"sort"
	"strings"
)

// MinClipWidthPercent keeps very short clips wide enough to see and click.
const MinClipWidthPercent = 1.0

// ClipStatus is the export state of a clip.
type ClipStatus string

const (
	StatusPending    ClipStatus = "pending"
	StatusProcessing ClipStatus = "processing"
	StatusReady      ClipStatus = "ready"
	StatusError      ClipStatus = "error"
)

// ParseStatus maps unknown or empty values to StatusPending.
func ParseStatus(s string) ClipStatus {
	switch st := ClipStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusReady, StatusProcessing, StatusError, StatusPending:
		return st
	default:
		return StatusPending
	}
}

// Clip is an interval of the original video's global timeline.
type Clip struct {
	ID        string     `json:"id"`
	StartTime float64    `json:"startTime"`
	EndTime   float64    `json:"endTime"`
	Name      string     `json:"name"`
	Status    ClipStatus `json:"status"`
}

// ClipLayout is where a clip is drawn on the track. Higher ZOrder is drawn on top.
type ClipLayout struct {
	Clip         Clip    `json:"clip"`
	LeftPercent  float64 `json:"leftPercent"`
	WidthPercent float64 `json:"widthPercent"`
	ZOrder       int     `json:"zOrder"`
}

// PixelToTime converts a click offset on a track of width pixels into a time
// clamped to [0, duration].
func PixelToTime(px, width, duration float64) float64 {
	if !(width > 0) || !(duration > 0) || math.IsNaN(px) {
		return 0
	}
	return clamp(px/width*duration, 0, duration)
}

// TimeToPercent converts t into a position in [0, 100] along the track.
// A non-positive duration yields 0.
func TimeToPercent(t, duration float64) float64 {
	if !(duration > 0) || math.IsNaN(t) {
		return 0
	}
	return clamp(t*100/duration, 0, 100)
}

// LayoutClips positions every clip on the track. Clips are ordered by start
// time, then id, and stacked in that order so later-starting clips render
// above earlier ones.
func LayoutClips(clips []Clip, duration float64) []ClipLayout {
	sorted := make([]Clip, len(clips))
	copy(sorted, clips)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].StartTime != sorted[j].StartTime {
			return sorted[i].StartTime < sorted[j].StartTime
		}
		return sorted[i].ID < sorted[j].ID
	})

	layouts := make([]ClipLayout, len(sorted))
	for i, c := range sorted {
		c.Status = ParseStatus(string(c.Status))
		left := TimeToPercent(c.StartTime, duration)
		width := math.Max(TimeToPercent(c.EndTime, duration)-left, MinClipWidthPercent)
		if left+width > 100 {
			left = math.Max(100-width, 0)
		}
		layouts[i] = ClipLayout{
			Clip:         c,
			LeftPercent:  left,
			WidthPercent: width,
			ZOrder:       i,
		}
	}
	return layouts
}

// HitTest returns the topmost clip drawn under the pixel px of a track width
// pixels wide. A hit must be handled as a selection, not as a seek.
func HitTest(layouts []ClipLayout, px, width float64) (ClipLayout, bool) {
	if !(width > 0) || math.IsNaN(px) || px < 0 || px > width {
		return ClipLayout{}, false
	}
	at := px / width * 100

	var (
		best  ClipLayout
		found bool
	)
	for _, l := range layouts {
		if at < l.LeftPercent || at > l.LeftPercent+l.WidthPercent {
			continue
		}
		if !found || l.ZOrder > best.ZOrder {
			best, found = l, true
		}
	}
	return best, found
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
