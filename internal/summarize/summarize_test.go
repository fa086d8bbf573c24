package summarize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeModel records prompts and replies with canned text.
type fakeModel struct {
	prompts []string
	reply   func(user string) string
	err     error
}

func (f *fakeModel) Complete(ctx context.Context, system, user string) (string, error) {
	f.prompts = append(f.prompts, user)
	if f.err != nil {
		return "", f.err
	}
	return f.reply(user), nil
}

func TestSummarizeSingleChunk(t *testing.T) {
	m := &fakeModel{reply: func(string) string { return `{"overview":"short"}` }}
	s := NewService(m, Options{})

	got, err := s.Summarize(context.Background(), "My Video", "hello world")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != `{"overview":"short"}` {
		t.Errorf("Summarize() = %q", got)
	}
	if len(m.prompts) != 1 {
		t.Fatalf("model called %d times, want 1", len(m.prompts))
	}
	for _, want := range []string{`"hello world"`, "Video title: My Video", `"keyPoints"`} {
		if !strings.Contains(m.prompts[0], want) {
			t.Errorf("prompt missing %q:\n%s", want, m.prompts[0])
		}
	}
}

func TestSummarizeChunked(t *testing.T) {
	m := &fakeModel{reply: func(user string) string {
		if strings.Contains(user, "Summarize part") {
			return "notes"
		}
		return "final"
	}}
	// 10 tokens -> 40 characters per chunk.
	s := NewService(m, Options{MaxChunkTokens: 10})

	transcript := strings.Repeat("word ", 30)
	got, err := s.Summarize(context.Background(), "", transcript)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != "final" {
		t.Errorf("Summarize() = %q, want final", got)
	}
	if len(m.prompts) < 3 {
		t.Fatalf("model called %d times, want partial calls plus a final call", len(m.prompts))
	}
	last := m.prompts[len(m.prompts)-1]
	if !strings.Contains(last, "notes\n\n---\n\nnotes") {
		t.Errorf("final prompt does not combine chunk notes:\n%s", last)
	}
}

func TestSummarizeModelError(t *testing.T) {
	boom := errors.New("429 from provider")
	s := NewService(&fakeModel{err: boom}, Options{})

	_, err := s.Summarize(context.Background(), "", "text")
	if !errors.Is(err, boom) {
		t.Errorf("Summarize() error = %v, want %v", err, boom)
	}
}

func TestChunkTranscript(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		maxTokens int
		wantLen   int
	}{
		{"short text", "hello world", 100, 1},
		{"exact fit", strings.Repeat("a", 40), 10, 1},
		{"splits on words", strings.Repeat("abcd ", 20), 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := chunkTranscript(tt.text, tt.maxTokens)
			if len(chunks) != tt.wantLen {
				t.Errorf("chunkTranscript() returned %d chunks, want %d", len(chunks), tt.wantLen)
			}
			for _, c := range chunks {
				if len(c) > tt.maxTokens*4 {
					t.Errorf("chunk of %d chars exceeds %d", len(c), tt.maxTokens*4)
				}
			}
		})
	}
}

func TestLoadPrompts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	content := "summary: |\n  Custom summary for {{.Transcript}}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPrompts(path)
	if err != nil {
		t.Fatalf("LoadPrompts() error = %v", err)
	}
	got, err := p.renderSummary(summaryParams{Transcript: "abc"})
	if err != nil {
		t.Fatalf("renderSummary() error = %v", err)
	}
	if strings.TrimSpace(got) != "Custom summary for abc" {
		t.Errorf("renderSummary() = %q", got)
	}
	if p.System != DefaultPrompts().System {
		t.Error("System prompt should fall back to the built-in one")
	}
}

func TestNewModelRequiresKey(t *testing.T) {
	if _, err := NewModel(context.Background(), ModelConfig{Backend: BackendOpenAI}); err == nil {
		t.Error("NewModel() error = nil, want error for missing key")
	}
	if _, err := NewModel(context.Background(), ModelConfig{Backend: "mystery", APIKey: "k"}); err == nil {
		t.Error("NewModel() error = nil, want error for unknown backend")
	}
}
