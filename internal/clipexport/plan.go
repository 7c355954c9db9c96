// Package clipexport turns stored clips into delivery URLs of the trimmed
// media, one URL per part the clip spans.
package clipexport

import (
	"errors"
	"fmt"

	"jamesfarrell.me/clipstudio/internal/parts"
	"jamesfarrell.me/clipstudio/internal/storage/models"
)

// ErrEmptyClip is returned when a clip covers no stored media.
var ErrEmptyClip = errors.New("clip covers no media")

// Piece is the part of a clip served from one stored blob.
type Piece struct {
	parts.PartRange
	URL string `json:"url"`
}

// Plan cuts clip into per-part pieces with trim URLs. Videos without parts
// are trimmed from their single media blob, identified by mediaID.
func Plan(clip models.Clip, list []parts.VideoPart, mediaID string, resolver *parts.Resolver) ([]Piece, error) {
	if !(clip.StartTime < clip.EndTime) {
		return nil, fmt.Errorf("clip %s: %w", clip.ID, ErrEmptyClip)
	}

	var ranges []parts.PartRange
	if len(list) == 0 {
		if mediaID == "" {
			return nil, fmt.Errorf("clip %s: video has no parts and no media id", clip.ID)
		}
		ranges = []parts.PartRange{{
			PartIndex:   0,
			MediaID:     mediaID,
			StartOffset: clip.StartTime,
			EndOffset:   clip.EndTime,
		}}
	} else {
		ranges = parts.SplitRange(list, clip.StartTime, clip.EndTime)
	}
	if len(ranges) == 0 {
		return nil, fmt.Errorf("clip %s: %w", clip.ID, ErrEmptyClip)
	}

	pieces := make([]Piece, len(ranges))
	for i, r := range ranges {
		u, err := resolver.TrimURL(r.MediaID, r.StartOffset, r.EndOffset)
		if err != nil {
			return nil, fmt.Errorf("clip %s part %d: %w", clip.ID, r.PartIndex, err)
		}
		pieces[i] = Piece{PartRange: r, URL: u}
	}
	return pieces, nil
}

// URLs returns the URLs of pieces in playback order.
func URLs(pieces []Piece) []string {
	urls := make([]string, len(pieces))
	for i, p := range pieces {
		urls[i] = p.URL
	}
	return urls
}
