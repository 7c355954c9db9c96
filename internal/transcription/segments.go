package transcription

import (
	"math"
	"sort"
	"strings"
	"time"

	"jamesfarrell.me/clipstudio/internal/parts"
	"jamesfarrell.me/clipstudio/internal/storage/models"
)

// maxChunkChars is roughly how much transcript text goes into one search chunk.
const maxChunkChars = 500

// Segment is a transcribed stretch of speech. Whisper reports times relative
// to the submitted media; ToGlobal moves them onto the original timeline.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// ToGlobal shifts segments transcribed from part partIndex into global time.
// Segments are clamped to the part's range; empty ones are dropped.
func ToGlobal(list []parts.VideoPart, partIndex int, segs []Segment) ([]Segment, error) {
	// with no parts the video is a single resource and offsets are already global
	base, limit := 0.0, math.Inf(1)
	if len(list) > 0 || partIndex != 0 {
		var err error
		if base, err = parts.MapPartOffsetToGlobalTime(list, partIndex, 0); err != nil {
			return nil, err
		}
		limit = list[partIndex].EndTime
	}

	out := make([]Segment, 0, len(segs))
	for _, s := range segs {
		start := math.Min(base+math.Max(s.Start, 0), limit)
		end := math.Min(base+s.End, limit)
		text := strings.TrimSpace(s.Text)
		if end <= start || text == "" {
			continue
		}
		out = append(out, Segment{Start: start, End: end, Text: text})
	}
	return out, nil
}

// Merge flattens per-part segment lists into one list ordered by start time.
func Merge(perPart [][]Segment) []Segment {
	var all []Segment
	for _, segs := range perPart {
		all = append(all, segs...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Start < all[j].Start })
	return all
}

// ToCues converts global segments into numbered transcript cues.
func ToCues(segs []Segment) []models.Cue {
	cues := make([]models.Cue, len(segs))
	for i, s := range segs {
		cues[i] = models.Cue{
			Number: i + 1,
			Start:  seconds(s.Start),
			End:    seconds(s.End),
			Text:   s.Text,
		}
	}
	return cues
}

// ChunkCues groups consecutive cues into search chunks of about
// maxChunkChars, each starting with the last two cues of the previous chunk
// so phrases cut at a boundary stay searchable.
func ChunkCues(cues []models.Cue) []models.Chunk {
	var chunks []models.Chunk
	start := 0
	var b strings.Builder
	for i, cue := range cues {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(cue.Text)

		if i == len(cues)-1 || b.Len() > maxChunkChars {
			chunks = append(chunks, models.Chunk{
				Text:      strings.TrimSpace(b.String()),
				StartTime: cues[start].Start,
				EndTime:   cue.End,
			})
			b.Reset()
			if i < len(cues)-1 {
				start = max(start+1, i-1)
				for j := start; j <= i; j++ {
					if b.Len() > 0 {
						b.WriteString(" ")
					}
					b.WriteString(cues[j].Text)
				}
			}
		}
	}
	return chunks
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
