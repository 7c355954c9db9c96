package transcription

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"jamesfarrell.me/clipstudio/internal/storage/models"
)

const vttHeader = "WEBVTT"

// ParseVTT parses WebVTT content into cues
func ParseVTT(content string) ([]models.Cue, error) {
	// Trim any quotes from the content
	content = strings.Trim(content, "\"")

	// Convert literal \n to actual newlines if needed
	if strings.Contains(content, "\\n") {
		content = strings.ReplaceAll(content, "\\n", "\n")
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")

	if !strings.HasPrefix(content, vttHeader+"\n\n") {
		return nil, fmt.Errorf("invalid VTT format: missing WEBVTT header")
	}
	content = strings.TrimPrefix(content, vttHeader+"\n\n")

	cues := []models.Cue{}
	for _, block := range strings.Split(content, "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		// optional cue identifier line
		if len(lines) > 1 && !strings.Contains(lines[0], "-->") {
			lines = lines[1:]
		}
		if len(lines) < 2 {
			continue
		}

		timestamps := strings.Split(lines[0], " --> ")
		if len(timestamps) != 2 {
			continue
		}

		start, err := parseVTTTimestamp(strings.TrimSpace(timestamps[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid start timestamp: %w", err)
		}

		// cue settings may follow the end timestamp
		endField := strings.Fields(timestamps[1])
		if len(endField) == 0 {
			return nil, fmt.Errorf("invalid end timestamp: empty")
		}
		end, err := parseVTTTimestamp(endField[0])
		if err != nil {
			return nil, fmt.Errorf("invalid end timestamp: %w", err)
		}

		cues = append(cues, models.Cue{
			Number: len(cues) + 1,
			Start:  start,
			End:    end,
			Text:   strings.Join(lines[1:], " "),
		})
	}

	return cues, nil
}

// FormatVTT renders cues as a WebVTT document.
func FormatVTT(cues []models.Cue) string {
	var b strings.Builder
	b.WriteString(vttHeader + "\n\n")
	for i, c := range cues {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s --> %s\n%s\n", formatVTTTimestamp(c.Start), formatVTTTimestamp(c.End), c.Text)
	}
	return b.String()
}

func formatVTTTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d.%03d", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

func parseVTTTimestamp(timestamp string) (time.Duration, error) {
	// Validate format (HH:MM:SS.mmm or MM:SS.mmm)
	if !strings.Contains(timestamp, ".") {
		return 0, fmt.Errorf("invalid timestamp format: missing milliseconds")
	}

	parts := strings.Split(timestamp, ":")
	if len(parts) == 2 {
		parts = append([]string{"00"}, parts...)
	}
	if len(parts) != 3 || len(parts[0]) < 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid timestamp format: expected HH:MM:SS.mmm")
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hours: %w", err)
	}

	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes: %w", err)
	}

	secondParts := strings.Split(parts[2], ".")
	if len(secondParts) != 2 || len(secondParts[1]) != 3 {
		return 0, fmt.Errorf("invalid seconds format: expected SS.mmm")
	}

	seconds, err := strconv.Atoi(secondParts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid seconds: %w", err)
	}

	milliseconds, err := strconv.Atoi(secondParts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid milliseconds: %w", err)
	}

	duration := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(milliseconds)*time.Millisecond

	return duration, nil
}
