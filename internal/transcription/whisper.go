package transcription

import (
	"context"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

// Whisper transcribes media with OpenAI's transcription endpoint.
type Whisper struct {
	api   *openai.Client
	model string
}

func NewWhisper(apiKey, model string) *Whisper {
	return NewWhisperWithConfig(openai.DefaultConfig(apiKey), model)
}

func NewWhisperWithConfig(cfg openai.ClientConfig, model string) *Whisper {
	if model == "" {
		model = openai.Whisper1
	}
	return &Whisper{api: openai.NewClientWithConfig(cfg), model: model}
}

// Transcribe uploads media read from r under the file name name and returns
// its segments with times relative to the start of the media.
func (w *Whisper) Transcribe(ctx context.Context, name string, r io.Reader) ([]Segment, error) {
	resp, err := w.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: name,
		Reader:   r,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("whisper transcription failed: %w", err)
	}

	if len(resp.Segments) == 0 {
		if resp.Text == "" {
			return nil, nil
		}
		return []Segment{{Start: 0, End: resp.Duration, Text: resp.Text}}, nil
	}

	segs := make([]Segment, len(resp.Segments))
	for i, s := range resp.Segments {
		segs[i] = Segment{Start: s.Start, End: s.End, Text: s.Text}
	}
	return segs, nil
}
