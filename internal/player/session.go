// Package player keeps per-viewer playback sessions: it turns element time
// updates, seeks and timeline clicks into global time, part offsets and
// delivery URLs.
package player

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"jamesfarrell.me/clipstudio/internal/parts"
	"jamesfarrell.me/clipstudio/internal/timeline"
)

var (
	ErrUnknownClip = errors.New("unknown clip")
	ErrInvalidMark = errors.New("clip end must be after its start")
)

// SeekTarget tells the player element where to move. For chunked videos the
// element loads URL and seeks to Offset within part PartIndex; otherwise
// PartIndex is -1 and Offset equals Time.
type SeekTarget struct {
	Time      float64 `json:"time"`
	PartIndex int     `json:"partIndex"`
	Offset    float64 `json:"offset"`
	URL       string  `json:"url,omitempty"`
}

// State is a snapshot of a session after an event.
type State struct {
	SessionID       string                `json:"sessionId"`
	VideoID         string                `json:"videoId"`
	Duration        float64               `json:"duration"`
	Chunked         bool                  `json:"chunked"`
	CurrentTime     float64               `json:"currentTime"`
	Location        *parts.Location       `json:"location,omitempty"`
	PlayheadPercent float64               `json:"playheadPercent"`
	Seek            *SeekTarget           `json:"seek,omitempty"`
	SelectedClipID  string                `json:"selectedClipId,omitempty"`
	MarkStart       *float64              `json:"markStart,omitempty"`
	MarkEnd         *float64              `json:"markEnd,omitempty"`
	Candidate       *timeline.Clip        `json:"candidate,omitempty"`
	Clips           []timeline.ClipLayout `json:"clips"`
}

// Session is one viewer's playback of one video. All methods are safe for
// concurrent use and cheap enough to call on every timeupdate tick.
type Session struct {
	id       string
	videoID  string
	mediaID  string
	fallback float64
	deps     *Manager
	log      logrus.FieldLogger

	mu        sync.Mutex
	parts     []parts.VideoPart
	duration  float64
	clips     []timeline.Clip
	layout    []timeline.ClipLayout
	current   float64
	part      int
	selected  string
	markStart *float64
	markEnd   *float64
	lastUsed  time.Time
}

func (s *Session) ID() string      { return s.id }
func (s *Session) VideoID() string { return s.videoID }

// reset installs a fresh part list and clip set. Callers hold s.mu.
func (s *Session) reset(list []parts.VideoPart, clips []timeline.Clip) {
	s.parts = list
	s.duration = s.fallback
	if total := parts.TotalDuration(list); total > 0 {
		s.duration = total
	}
	s.clips = clips
	s.layout = timeline.LayoutClips(clips, s.duration)
	s.part = -1
	if loc, ok := parts.Locate(s.parts, s.current); ok {
		s.part = loc.PartIndex
	}
	if s.selected != "" && !s.hasClip(s.selected) {
		s.selected = ""
	}
}

func (s *Session) hasClip(id string) bool {
	for _, c := range s.clips {
		if c.ID == id {
			return true
		}
	}
	return false
}

// State returns the current snapshot without changing anything.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(nil)
}

// TimeUpdate records playback progress reported by a chunked player element
// as an offset within partIndex. The offset must lie in [0, duration] of
// that part.
func (s *Session) TimeUpdate(partIndex int, offset float64) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := parts.MapPartOffsetToGlobalTime(s.parts, partIndex, offset)
	if err != nil {
		return State{}, err
	}
	p := s.parts[partIndex]
	if !finite(offset) || offset < 0 || offset > math.Max(p.Duration, p.EndTime-p.StartTime) {
		return State{}, fmt.Errorf("%w: offset %v outside part %d", ErrBadEvent, offset, partIndex)
	}
	s.current = s.clampTime(t)
	// an offset at the very end of a part is the start of the next one
	if loc, ok := parts.Locate(s.parts, s.current); ok {
		partIndex = loc.PartIndex
	}
	s.enterPart(partIndex)
	return s.snapshot(nil), nil
}

// TimeUpdateGlobal records playback progress of a single-resource element.
func (s *Session) TimeUpdateGlobal(t float64) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !finite(t) {
		return State{}, fmt.Errorf("%w: invalid time %v", ErrBadEvent, t)
	}
	s.current = s.clampTime(t)
	if loc, ok := parts.Locate(s.parts, s.current); ok {
		s.enterPart(loc.PartIndex)
	}
	return s.snapshot(nil), nil
}

// Seek moves playback to global time t.
func (s *Session) Seek(t float64) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !finite(t) {
		return State{}, fmt.Errorf("%w: invalid seek time %v", ErrBadEvent, t)
	}
	target := s.seek(s.clampTime(t))
	return s.snapshot(&target), nil
}

// Click handles a click on the timeline track. A click on a rendered clip
// selects it and does not seek; anywhere else seeks to the clicked time.
func (s *Session) Click(px, width float64) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if hit, ok := timeline.HitTest(s.layout, px, width); ok {
		s.selected = hit.Clip.ID
		return s.snapshot(nil), nil
	}
	target := s.seek(timeline.PixelToTime(px, width, s.duration))
	return s.snapshot(&target), nil
}

// SelectClip marks clipID as the selected clip. An empty id clears the
// selection.
func (s *Session) SelectClip(clipID string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if clipID != "" && !s.hasClip(clipID) {
		return State{}, fmt.Errorf("clip %s: %w", clipID, ErrUnknownClip)
	}
	s.selected = clipID
	return s.snapshot(nil), nil
}

// MarkStart captures the current time as the start of a new clip. An end
// mark at or before it is cleared.
func (s *Session) MarkStart() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.current
	s.markStart = &t
	if s.markEnd != nil && *s.markEnd <= t {
		s.markEnd = nil
	}
	return s.snapshot(nil)
}

// MarkEnd captures the current time as the end of a new clip.
func (s *Session) MarkEnd() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.current
	if s.markStart != nil && t <= *s.markStart {
		return State{}, ErrInvalidMark
	}
	s.markEnd = &t
	return s.snapshot(nil), nil
}

// ClearMarks drops both clip boundary marks.
func (s *Session) ClearMarks() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markStart, s.markEnd = nil, nil
	return s.snapshot(nil)
}

func (s *Session) clampTime(t float64) float64 {
	if t < 0 {
		return 0
	}
	if s.duration > 0 && t > s.duration {
		return s.duration
	}
	return t
}

// seek resolves a global time into a target for the element. Times inside a
// gap move to the start of the next part; times at or after the end pin to
// the end of the last part.
func (s *Session) seek(t float64) SeekTarget {
	s.current = t
	if len(s.parts) == 0 {
		target := SeekTarget{Time: t, PartIndex: -1, Offset: t}
		if s.mediaID != "" {
			if u, err := s.deps.resolver.MediaURL(s.mediaID); err == nil {
				target.URL = u
			}
		}
		return target
	}

	loc, ok := parts.Locate(s.parts, t)
	if !ok {
		loc = s.nearest(t)
		s.current = s.parts[loc.PartIndex].StartTime + loc.OffsetTime
	}
	target := SeekTarget{Time: s.current, PartIndex: loc.PartIndex, Offset: loc.OffsetTime}
	u, err := s.deps.resolver.PlaybackURL(s.parts[loc.PartIndex])
	if err != nil {
		s.log.WithError(err).WithField("part", loc.PartIndex).Warn("no playback url for part")
	}
	target.URL = u
	s.enterPart(loc.PartIndex)
	return target
}

func (s *Session) nearest(t float64) parts.Location {
	for i, p := range s.parts {
		if p.StartTime >= t {
			return parts.Location{PartIndex: i}
		}
	}
	last := len(s.parts) - 1
	return parts.Location{PartIndex: last, OffsetTime: s.parts[last].EndTime - s.parts[last].StartTime}
}

// enterPart records the part being played and warms the next one when it
// changes.
func (s *Session) enterPart(i int) {
	if i == s.part {
		return
	}
	s.part = i
	if s.deps.prefetcher != nil {
		s.deps.prefetcher.PrefetchNext(s.parts, i)
	}
}

func (s *Session) snapshot(seek *SeekTarget) State {
	st := State{
		SessionID:       s.id,
		VideoID:         s.videoID,
		Duration:        s.duration,
		Chunked:         len(s.parts) > 0,
		CurrentTime:     s.current,
		PlayheadPercent: timeline.TimeToPercent(s.current, s.duration),
		Seek:            seek,
		SelectedClipID:  s.selected,
		MarkStart:       s.markStart,
		MarkEnd:         s.markEnd,
		Clips:           s.layout,
	}
	if loc, ok := parts.Locate(s.parts, s.current); ok {
		st.Location = &loc
	}
	if s.markStart != nil && s.markEnd != nil {
		st.Candidate = &timeline.Clip{
			StartTime: *s.markStart,
			EndTime:   *s.markEnd,
			Status:    timeline.StatusPending,
		}
	}
	return st
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
