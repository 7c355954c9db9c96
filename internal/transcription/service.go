package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"jamesfarrell.me/clipstudio/internal/parts"
	"jamesfarrell.me/clipstudio/internal/storage/models"
)

// NewVideoChannel is the Postgres NOTIFY channel announcing new videos.
const NewVideoChannel = "new_video"

// Transcriber turns media into timed segments.
type Transcriber interface {
	Transcribe(ctx context.Context, name string, r io.Reader) ([]Segment, error)
}

// Embedder computes embeddings for search chunks.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Store persists transcripts and pipeline status.
type Store interface {
	GetByURL(ctx context.Context, videoURL string) (*models.Video, error)
	UpdateVideoStatus(ctx context.Context, videoID, status string) error
	SaveFullTranscription(ctx context.Context, videoID, transcription string) error
	SaveChunks(ctx context.Context, videoID string, chunks []models.Chunk) error
}

// PartSource returns the normalized parts of a video.
type PartSource interface {
	Parts(ctx context.Context, videoID string) []parts.VideoPart
}

type Service struct {
	store       Store
	parts       PartSource
	resolver    *parts.Resolver
	transcriber Transcriber
	embedder    Embedder
	client      *http.Client
	workers     int
	log         logrus.FieldLogger
}

func NewService(store Store, partSource PartSource, resolver *parts.Resolver, transcriber Transcriber, embedder Embedder, workers int, log logrus.FieldLogger) *Service {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		store:       store,
		parts:       partSource,
		resolver:    resolver,
		transcriber: transcriber,
		embedder:    embedder,
		client:      &http.Client{Timeout: 10 * time.Minute},
		workers:     workers,
		log:         log,
	}
}

// ListenForNewVideos processes every video announced on NewVideoChannel
// until ctx is cancelled.
func (s *Service) ListenForNewVideos(ctx context.Context, dbURL string) error {
	listener := pq.NewListener(dbURL, 10*time.Second, time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				s.log.WithError(err).Warn("Listen error")
			}
		})
	defer listener.Close()

	if err := listener.Listen(NewVideoChannel); err != nil {
		return fmt.Errorf("listen error: %w", err)
	}
	s.log.WithField("channel", NewVideoChannel).Info("Listening for new videos...")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-listener.Notify:
			if n == nil {
				// connection was re-established; notifications may have been lost
				s.log.Warn("Received nil notification")
				continue
			}
			if err := s.processVideoNotification(ctx, n.Extra); err != nil {
				s.log.WithError(err).Error("Error processing video")
			} else {
				s.log.Info("Successfully processed video notification")
			}
		case <-time.After(time.Minute):
			go func() {
				if err := listener.Ping(); err != nil {
					s.log.WithError(err).Warn("Ping error")
				}
			}()
		}
	}
}

func (s *Service) processVideoNotification(ctx context.Context, notification string) error {
	var video models.Video
	if err := json.Unmarshal([]byte(notification), &video); err != nil {
		return fmt.Errorf("json parse error: %w", err)
	}
	if video.ID == "" {
		return errors.New("notification without video id")
	}
	return s.ProcessVideo(ctx, video)
}

// ProcessVideo transcribes a video part by part, stores the merged
// transcript in global time and, for searchable videos, indexes it.
func (s *Service) ProcessVideo(ctx context.Context, video models.Video) error {
	log := s.log.WithField("video", video.ID)
	log.WithField("url", video.VideoURL).Info("Processing video")

	var transcript string
	existing, err := s.store.GetByURL(ctx, video.VideoURL)
	if err == nil && existing.Transcription != nil && existing.ID != video.ID {
		log.Info("Found existing transcription for video URL")
		transcript = *existing.Transcription
		if err := s.store.SaveFullTranscription(ctx, video.ID, transcript); err != nil {
			return fmt.Errorf("failed to save transcription: %w", err)
		}
	} else {
		if err := s.store.UpdateVideoStatus(ctx, video.ID, models.VideoProcessing); err != nil {
			return fmt.Errorf("failed to update status to processing: %w", err)
		}
		transcript, err = s.transcribe(ctx, video)
		if err != nil {
			s.markFailed(ctx, video.ID)
			return fmt.Errorf("transcription error: %w", err)
		}
		if err := s.store.SaveFullTranscription(ctx, video.ID, transcript); err != nil {
			return fmt.Errorf("failed to save transcription: %w", err)
		}
	}

	if err := s.store.UpdateVideoStatus(ctx, video.ID, models.VideoTranscribed); err != nil {
		return fmt.Errorf("failed to update status to transcribed: %w", err)
	}
	if !video.IsSearchable {
		return s.store.UpdateVideoStatus(ctx, video.ID, models.VideoCompleted)
	}
	return s.Reindex(ctx, video.ID, transcript)
}

// Reindex rebuilds the search chunks of a video from its stored WebVTT
// transcript and marks the video completed.
func (s *Service) Reindex(ctx context.Context, videoID, transcript string) error {
	cues, err := ParseVTT(transcript)
	if err != nil {
		return fmt.Errorf("failed to parse VTT: %w", err)
	}
	chunks := ChunkCues(cues)
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to generate embeddings: %w", err)
		}
		for i := range chunks {
			chunks[i].Embedding = vectors[i]
		}
	}
	if err := s.store.SaveChunks(ctx, videoID, chunks); err != nil {
		return fmt.Errorf("failed to save chunks: %w", err)
	}
	s.log.WithFields(logrus.Fields{"video": videoID, "chunks": len(chunks)}).Info("Indexed transcript")
	return s.store.UpdateVideoStatus(ctx, videoID, models.VideoCompleted)
}

type source struct {
	partIndex int
	name      string
	url       string
}

func (s *Service) sources(ctx context.Context, video models.Video) ([]parts.VideoPart, []source, error) {
	list := s.parts.Parts(ctx, video.ID)
	if len(list) == 0 {
		u := video.VideoURL
		if video.MediaID != nil && *video.MediaID != "" {
			if mu, err := s.resolver.MediaURL(*video.MediaID); err == nil {
				u = mu
			}
		}
		if u == "" {
			return nil, nil, errors.New("video has neither parts nor a media url")
		}
		return nil, []source{{partIndex: 0, name: video.ID + ".mp4", url: u}}, nil
	}

	srcs := make([]source, len(list))
	for i, p := range list {
		u, err := s.resolver.PlaybackURL(p)
		if err != nil {
			return nil, nil, fmt.Errorf("part %d: %w", i, err)
		}
		srcs[i] = source{partIndex: i, name: fmt.Sprintf("%s_part%d.mp4", video.ID, i), url: u}
	}
	return list, srcs, nil
}

func (s *Service) transcribe(ctx context.Context, video models.Video) (string, error) {
	list, srcs, err := s.sources(ctx, video)
	if err != nil {
		return "", err
	}

	perPart := make([][]Segment, len(srcs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, src := range srcs {
		g.Go(func() error {
			segs, err := s.transcribeSource(gctx, src)
			if err != nil {
				return fmt.Errorf("part %d: %w", src.partIndex, err)
			}
			global, err := ToGlobal(list, src.partIndex, segs)
			if err != nil {
				return err
			}
			perPart[i] = global
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	merged := Merge(perPart)
	s.log.WithFields(logrus.Fields{
		"video":    video.ID,
		"parts":    len(srcs),
		"segments": len(merged),
	}).Info("Transcription received")
	return FormatVTT(ToCues(merged)), nil
}

func (s *Service) transcribeSource(ctx context.Context, src source) ([]Segment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code downloading media: %d", resp.StatusCode)
	}
	return s.transcriber.Transcribe(ctx, src.name, resp.Body)
}

func (s *Service) markFailed(ctx context.Context, videoID string) {
	if err := s.store.UpdateVideoStatus(ctx, videoID, models.VideoFailed); err != nil {
		s.log.WithError(err).WithField("video", videoID).Error("failed to mark video failed")
	}
}
