package player

import (
	"errors"
	"fmt"
)

type EventType string

const (
	EventTimeUpdate EventType = "timeupdate"
	EventSeek       EventType = "seek"
	EventClick      EventType = "click"
	EventSelectClip EventType = "selectClip"
	EventMarkStart  EventType = "markStart"
	EventMarkEnd    EventType = "markEnd"
	EventClearMarks EventType = "clearMarks"
	EventState      EventType = "state"
)

// Event is a player UI event as sent by the browser.
type Event struct {
	Type      EventType `json:"type"`
	PartIndex *int      `json:"partIndex,omitempty"`
	Offset    *float64  `json:"offset,omitempty"`
	Time      *float64  `json:"time,omitempty"`
	X         float64   `json:"x,omitempty"`
	Width     float64   `json:"width,omitempty"`
	ClipID    string    `json:"clipId,omitempty"`
}

var ErrBadEvent = errors.New("malformed player event")

// Apply dispatches ev to the matching session method.
func (s *Session) Apply(ev Event) (State, error) {
	switch ev.Type {
	case EventTimeUpdate:
		switch {
		case ev.PartIndex != nil && ev.Offset != nil:
			return s.TimeUpdate(*ev.PartIndex, *ev.Offset)
		case ev.Time != nil:
			return s.TimeUpdateGlobal(*ev.Time)
		}
		return State{}, fmt.Errorf("%w: timeupdate needs partIndex and offset, or time", ErrBadEvent)
	case EventSeek:
		if ev.Time == nil {
			return State{}, fmt.Errorf("%w: seek needs time", ErrBadEvent)
		}
		return s.Seek(*ev.Time)
	case EventClick:
		return s.Click(ev.X, ev.Width)
	case EventSelectClip:
		return s.SelectClip(ev.ClipID)
	case EventMarkStart:
		return s.MarkStart(), nil
	case EventMarkEnd:
		return s.MarkEnd()
	case EventClearMarks:
		return s.ClearMarks(), nil
	case EventState:
		return s.State(), nil
	}
	return State{}, fmt.Errorf("%w: unknown type %q", ErrBadEvent, ev.Type)
}
