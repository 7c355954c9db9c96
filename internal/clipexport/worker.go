package clipexport

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"jamesfarrell.me/clipstudio/internal/parts"
	"jamesfarrell.me/clipstudio/internal/storage/models"
	"jamesfarrell.me/clipstudio/internal/timeline"
)

type ClipStore interface {
	Get(ctx context.Context, id string) (*models.Clip, error)
	UpdateStatus(ctx context.Context, id string, status timeline.ClipStatus, urls []string) error
}

type VideoStore interface {
	Get(ctx context.Context, id string) (*models.Video, error)
}

type PartSource interface {
	Parts(ctx context.Context, videoID string) []parts.VideoPart
}

// Worker processes clip export jobs.
type Worker struct {
	clips    ClipStore
	videos   VideoStore
	parts    PartSource
	resolver *parts.Resolver
	log      logrus.FieldLogger
}

func NewWorker(clips ClipStore, videos VideoStore, partSource PartSource, resolver *parts.Resolver, log logrus.FieldLogger) *Worker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Worker{clips: clips, videos: videos, parts: partSource, resolver: resolver, log: log}
}

// Run handles deliveries until the channel closes or ctx is cancelled.
// Jobs are acknowledged once the clip status reflects the outcome;
// undecodable messages are rejected without requeue.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			w.log.WithField("bytes", len(d.Body)).Debug("Received clip export job")

			var job models.ClipExportJob
			if err := json.Unmarshal(d.Body, &job); err != nil || job.ClipID == "" {
				w.log.WithError(err).Warn("rejecting malformed clip export job")
				if err := d.Reject(false); err != nil {
					w.log.WithError(err).Error("failed to reject delivery")
				}
				continue
			}

			if err := w.Handle(ctx, job); err != nil {
				w.log.WithError(err).WithField("clip", job.ClipID).Error("clip export failed")
			}
			if err := d.Ack(false); err != nil {
				w.log.WithError(err).Error("failed to ack delivery")
			}
		}
	}
}

// Handle exports one clip and records the result on the clip. A failed
// export leaves the clip in the error state.
func (w *Worker) Handle(ctx context.Context, job models.ClipExportJob) error {
	log := w.log.WithFields(logrus.Fields{"job": job.JobID, "clip": job.ClipID})

	clip, err := w.clips.Get(ctx, job.ClipID)
	if err != nil {
		return fmt.Errorf("failed to load clip: %w", err)
	}

	pieces, err := w.plan(ctx, clip)
	if err != nil {
		if uerr := w.clips.UpdateStatus(ctx, clip.ID, timeline.StatusError, nil); uerr != nil {
			log.WithError(uerr).Error("failed to mark clip as errored")
		}
		return err
	}

	if err := w.clips.UpdateStatus(ctx, clip.ID, timeline.StatusReady, URLs(pieces)); err != nil {
		return fmt.Errorf("failed to store export urls: %w", err)
	}
	log.WithField("pieces", len(pieces)).Info("Clip exported")
	return nil
}

func (w *Worker) plan(ctx context.Context, clip *models.Clip) ([]Piece, error) {
	video, err := w.videos.Get(ctx, clip.VideoID)
	if err != nil {
		return nil, fmt.Errorf("failed to load video: %w", err)
	}
	var mediaID string
	if video.MediaID != nil {
		mediaID = *video.MediaID
	}
	return Plan(*clip, w.parts.Parts(ctx, clip.VideoID), mediaID, w.resolver)
}
