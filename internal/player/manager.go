package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"jamesfarrell.me/clipstudio/internal/parts"
	"jamesfarrell.me/clipstudio/internal/storage/models"
	"jamesfarrell.me/clipstudio/internal/timeline"
)

const defaultIdleTTL = 30 * time.Minute

type PartSource interface {
	Parts(ctx context.Context, videoID string) []parts.VideoPart
}

type ClipSource interface {
	ListByVideo(ctx context.Context, videoID string) ([]models.Clip, error)
}

type Prefetcher interface {
	PrefetchNext(list []parts.VideoPart, current int)
}

// Media identifies the video a session plays. MediaID and Duration are used
// only when the video has no parts.
type Media struct {
	VideoID  string
	MediaID  string
	Duration float64
}

// Manager owns the playback sessions of one process. Sessions unused for
// longer than the idle TTL are dropped.
type Manager struct {
	parts      PartSource
	clips      ClipSource
	resolver   *parts.Resolver
	prefetcher Prefetcher
	ttl        time.Duration
	log        logrus.FieldLogger
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(partSource PartSource, clips ClipSource, resolver *parts.Resolver, prefetcher Prefetcher, ttl time.Duration, log logrus.FieldLogger) *Manager {
	if ttl <= 0 {
		ttl = defaultIdleTTL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		parts:      partSource,
		clips:      clips,
		resolver:   resolver,
		prefetcher: prefetcher,
		ttl:        ttl,
		log:        log,
		now:        time.Now,
		sessions:   make(map[string]*Session),
	}
}

// Create starts a session positioned at the beginning of media.
func (m *Manager) Create(ctx context.Context, media Media) (*Session, error) {
	if media.VideoID == "" {
		return nil, fmt.Errorf("video id is required")
	}
	clips, err := m.loadClips(ctx, media.VideoID)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:       uuid.NewString(),
		videoID:  media.VideoID,
		mediaID:  media.MediaID,
		fallback: media.Duration,
		deps:     m,
		log:      m.log.WithField("video", media.VideoID),
	}
	s.reset(m.parts.Parts(ctx, media.VideoID), clips)
	if loc, ok := parts.Locate(s.parts, 0); ok {
		s.part = -1
		s.enterPart(loc.PartIndex)
	}
	s.lastUsed = m.now()

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	s.log.WithFields(logrus.Fields{"session": s.id, "parts": len(s.parts)}).Info("Player session created")
	return s, nil
}

// Get returns a live session and marks it used.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	now := m.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.lastUsed) > m.ttl {
		delete(m.sessions, id)
		return nil, false
	}
	s.lastUsed = now
	return s, true
}

// Close ends a session.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// CloseVideo drops every session playing videoID and returns how many were
// closed.
func (m *Manager) CloseVideo(videoID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	closed := 0
	for id, s := range m.sessions {
		if s.videoID == videoID {
			delete(m.sessions, id)
			closed++
		}
	}
	return closed
}

// Len returns the number of sessions held, expired or not.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := now.Sub(s.lastUsed)
		s.mu.Unlock()
		if idle > m.ttl {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.log.WithField("removed", n).Debug("Expired player sessions")
			}
		}
	}
}

// Reload refreshes the parts and clips of every session playing videoID.
// Call it after the video's parts or clips change.
func (m *Manager) Reload(ctx context.Context, videoID string) error {
	m.mu.Lock()
	var affected []*Session
	for _, s := range m.sessions {
		if s.videoID == videoID {
			affected = append(affected, s)
		}
	}
	m.mu.Unlock()
	if len(affected) == 0 {
		return nil
	}

	clips, err := m.loadClips(ctx, videoID)
	if err != nil {
		return err
	}
	list := m.parts.Parts(ctx, videoID)
	for _, s := range affected {
		s.mu.Lock()
		s.reset(list, clips)
		s.mu.Unlock()
	}
	return nil
}

func (m *Manager) loadClips(ctx context.Context, videoID string) ([]timeline.Clip, error) {
	if m.clips == nil {
		return nil, nil
	}
	stored, err := m.clips.ListByVideo(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to load clips: %w", err)
	}
	clips := make([]timeline.Clip, len(stored))
	for i, c := range stored {
		clips[i] = c.Timeline()
	}
	return clips, nil
}
