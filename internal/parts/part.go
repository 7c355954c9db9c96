// Package parts indexes the stored segments ("parts") of a chunked video and
// resolves global playback time to the part that owns it.
package parts

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

// durationTolerance is how far a supplied duration may drift from
// EndTime-StartTime before it is reported.
const durationTolerance = 0.05

// VideoPart is one contiguous stored segment of an original video.
// Times are seconds in the original video's timeline.
type VideoPart struct {
	Index     int     `json:"index"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Duration  float64 `json:"duration"`
	MediaID   string  `json:"mediaId"`
	Size      int64   `json:"size"`
	SecureURL string  `json:"secureUrl,omitempty"`
}

// Contains reports whether t falls in the half-open range [StartTime, EndTime).
func (p VideoPart) Contains(t float64) bool {
	return t >= p.StartTime && t < p.EndTime
}

// RawPart is a part record as reported by the parts service. Upstream is
// inconsistent about field names, so both spellings are accepted.
type RawPart struct {
	Index              *int     `json:"index,omitempty"`
	PartIndex          *int     `json:"partIndex,omitempty"`
	StartTime          *float64 `json:"startTime"`
	EndTime            *float64 `json:"endTime"`
	Duration           *float64 `json:"duration,omitempty"`
	CloudinaryPublicID string   `json:"cloudinaryPublicId,omitempty"`
	MediaID            string   `json:"mediaId,omitempty"`
	Size               int64    `json:"size"`
	SecureURL          string   `json:"secure_url,omitempty"`
}

// ReportedIndex returns the index the record claims, falling back to its
// position in the upstream array.
func (r RawPart) ReportedIndex(position int) int {
	switch {
	case r.Index != nil:
		return *r.Index
	case r.PartIndex != nil:
		return *r.PartIndex
	default:
		return position
	}
}

// Media returns the stored media identifier under either spelling.
func (r RawPart) Media() string {
	if r.MediaID != "" {
		return r.MediaID
	}
	return r.CloudinaryPublicID
}

// FromPart converts a normalized part back into its wire form.
func FromPart(p VideoPart) RawPart {
	idx, start, end, dur := p.Index, p.StartTime, p.EndTime, p.Duration
	return RawPart{
		Index:     &idx,
		StartTime: &start,
		EndTime:   &end,
		Duration:  &dur,
		MediaID:   p.MediaID,
		Size:      p.Size,
		SecureURL: p.SecureURL,
	}
}

type candidate struct {
	reported int
	part     VideoPart
}

// Normalize turns raw records into a sorted, contiguous, non-overlapping part
// list with parts[i].Index == i. Malformed and overlapping records are
// dropped and logged. log may be nil.
func Normalize(raw []RawPart, log logrus.FieldLogger) []VideoPart {
	if log == nil {
		log = logrus.StandardLogger()
	}

	candidates := make([]candidate, 0, len(raw))
	for i, r := range raw {
		reported := r.ReportedIndex(i)
		if r.StartTime == nil || r.EndTime == nil {
			log.WithField("part", reported).Warn("dropping part record with missing start or end time")
			continue
		}
		start, end := *r.StartTime, *r.EndTime
		if !finite(start) || !finite(end) || start < 0 || start >= end {
			log.WithFields(logrus.Fields{
				"part":  reported,
				"start": start,
				"end":   end,
			}).Warn("dropping part record with invalid time range")
			continue
		}

		duration := end - start
		if r.Duration != nil && finite(*r.Duration) {
			duration = *r.Duration
			if math.Abs(duration-(end-start)) > durationTolerance {
				log.WithFields(logrus.Fields{
					"part":     reported,
					"duration": duration,
					"range":    end - start,
				}).Warn("part duration does not match its time range")
			}
		}

		candidates = append(candidates, candidate{
			reported: reported,
			part: VideoPart{
				StartTime: start,
				EndTime:   end,
				Duration:  duration,
				MediaID:   r.Media(),
				Size:      r.Size,
				SecureURL: r.SecureURL,
			},
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].part.StartTime != candidates[j].part.StartTime {
			return candidates[i].part.StartTime < candidates[j].part.StartTime
		}
		return candidates[i].reported < candidates[j].reported
	})

	parts := make([]VideoPart, 0, len(candidates))
	for _, c := range candidates {
		if n := len(parts); n > 0 && c.part.StartTime < parts[n-1].EndTime {
			log.WithFields(logrus.Fields{
				"part":        c.reported,
				"start":       c.part.StartTime,
				"previousEnd": parts[n-1].EndTime,
			}).Warn("dropping part record overlapping the previous part")
			continue
		}
		c.part.Index = len(parts)
		parts = append(parts, c.part)
	}
	return parts
}

// TotalDuration is the end of the last part, or 0 for an empty list.
func TotalDuration(parts []VideoPart) float64 {
	if len(parts) == 0 {
		return 0
	}
	return parts[len(parts)-1].EndTime
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
