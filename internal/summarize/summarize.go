// Package summarize turns a transcript into a structured summary using an
// LLM backend.
package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// DefaultMaxChunkTokens is roughly where transcripts start to be split.
const DefaultMaxChunkTokens = 100000

// Summarizer produces the raw summary text for a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, title, transcript string) (string, error)
}

// Service renders prompts, chunks long transcripts and calls the model.
type Service struct {
	model          Model
	prompts        *Prompts
	maxChunkTokens int
	logger         *slog.Logger
}

// Options tunes a Service. Zero values take the defaults.
type Options struct {
	Prompts        *Prompts
	MaxChunkTokens int
	Logger         *slog.Logger
}

func NewService(model Model, opts Options) *Service {
	s := &Service{
		model:          model,
		prompts:        opts.Prompts,
		maxChunkTokens: opts.MaxChunkTokens,
		logger:         opts.Logger,
	}
	if s.prompts == nil {
		s.prompts = DefaultPrompts()
	}
	if s.maxChunkTokens <= 0 {
		s.maxChunkTokens = DefaultMaxChunkTokens
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Summarize returns the model's summary. Transcripts longer than the chunk
// budget are summarised piecewise first and the notes combined.
func (s *Service) Summarize(ctx context.Context, title, transcript string) (string, error) {
	chunks := chunkTranscript(transcript, s.maxChunkTokens)

	text := chunks[0]
	if len(chunks) > 1 {
		notes := make([]string, 0, len(chunks))
		for i, chunk := range chunks {
			s.logger.Debug("summarizing chunk",
				slog.Int("chunk", i+1),
				slog.Int("chunks", len(chunks)))

			prompt, err := s.prompts.renderPartial(partialParams{Part: i + 1, Total: len(chunks), Transcript: chunk})
			if err != nil {
				return "", fmt.Errorf("render prompt: %w", err)
			}
			note, err := s.model.Complete(ctx, s.prompts.System, prompt)
			if err != nil {
				return "", fmt.Errorf("failed to summarize chunk %d: %w", i+1, err)
			}
			notes = append(notes, note)
		}
		text = strings.Join(notes, "\n\n---\n\n")
	}

	prompt, err := s.prompts.renderSummary(summaryParams{Title: title, Transcript: text})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	summary, err := s.model.Complete(ctx, s.prompts.System, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to summarize: %w", err)
	}
	return summary, nil
}

// chunkTranscript splits text into pieces of at most maxTokens, estimating
// four characters per token. Splits fall on word boundaries.
func chunkTranscript(text string, maxTokens int) []string {
	maxChars := maxTokens * 4
	if len(text) <= maxChars {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len() > 0 && current.Len()+len(word)+1 > maxChars {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	if len(chunks) == 0 {
		return []string{""}
	}
	return chunks
}
