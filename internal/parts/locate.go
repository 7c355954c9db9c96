package parts

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNoSuchPart is returned when a part index is outside the part list.
var ErrNoSuchPart = errors.New("no such part")

// Location is a position inside a single part.
type Location struct {
	PartIndex  int     `json:"partIndex"`
	OffsetTime float64 `json:"offsetTime"`
}

// Locate finds the part whose [StartTime, EndTime) range contains t.
// parts must be normalized. It runs in O(log n) and never panics; the
// boolean is false before the first part, at or after the last end, inside a
// gap, for NaN and for an empty list.
func Locate(parts []VideoPart, t float64) (Location, bool) {
	if len(parts) == 0 || math.IsNaN(t) {
		return Location{}, false
	}
	// first part that ends after t
	i := sort.Search(len(parts), func(i int) bool { return parts[i].EndTime > t })
	if i == len(parts) || !parts[i].Contains(t) {
		return Location{}, false
	}
	return Location{PartIndex: i, OffsetTime: t - parts[i].StartTime}, true
}

// MapGlobalTimeToPart converts a global time into a part and in-part offset.
func MapGlobalTimeToPart(parts []VideoPart, t float64) (Location, bool) {
	return Locate(parts, t)
}

// MapPartOffsetToGlobalTime converts an offset within part partIndex back into
// global time. Feeding it the result of Locate(t) returns t up to
// floating-point rounding; it is exact when times are multiples of a power
// of two, such as quarter seconds.
func MapPartOffsetToGlobalTime(parts []VideoPart, partIndex int, offset float64) (float64, error) {
	if partIndex < 0 || partIndex >= len(parts) {
		return 0, fmt.Errorf("part %d of %d: %w", partIndex, len(parts), ErrNoSuchPart)
	}
	return parts[partIndex].StartTime + offset, nil
}

// PartRange is the piece of a global interval that falls inside one part,
// expressed as offsets within that part.
type PartRange struct {
	PartIndex   int     `json:"partIndex"`
	MediaID     string  `json:"mediaId"`
	StartOffset float64 `json:"startOffset"`
	EndOffset   float64 `json:"endOffset"`
}

// SplitRange cuts the global interval [start, end) into per-part pieces, in
// part order. Portions that fall outside every part are skipped.
func SplitRange(parts []VideoPart, start, end float64) []PartRange {
	if len(parts) == 0 || !(start < end) {
		return nil
	}
	first := sort.Search(len(parts), func(i int) bool { return parts[i].EndTime > start })

	var ranges []PartRange
	for i := first; i < len(parts) && parts[i].StartTime < end; i++ {
		p := parts[i]
		lo := math.Max(start, p.StartTime)
		hi := math.Min(end, p.EndTime)
		if lo >= hi {
			continue
		}
		ranges = append(ranges, PartRange{
			PartIndex:   p.Index,
			MediaID:     p.MediaID,
			StartOffset: lo - p.StartTime,
			EndOffset:   hi - p.StartTime,
		})
	}
	return ranges
}
