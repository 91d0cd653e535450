package postprocessors

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/postprocessors/chunker"
	"github.com/custodia-labs/ragchat/internal/postprocessors/cleaner"
)

type mockFilter struct {
	name string
	fn   func(string) string
	err  error
}

func (m *mockFilter) Name() string {
	return m.name
}

func (m *mockFilter) Filter(_ context.Context, text string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.fn(text), nil
}

func newChunker(t *testing.T, size, overlap int) *chunker.Processor {
	t.Helper()
	p, err := chunker.New(chunker.WithChunkSize(size), chunker.WithOverlap(overlap))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestPipeline_Add(t *testing.T) {
	p := NewPipeline(newChunker(t, 10, 0))
	if p.Len() != 0 {
		t.Errorf("expected 0 filters, got %d", p.Len())
	}
	p.Add(&mockFilter{name: "noop", fn: func(s string) string { return s }})
	if p.Len() != 1 {
		t.Errorf("expected 1 filter, got %d", p.Len())
	}
}

func TestPipeline_Process_NoSplitter(t *testing.T) {
	_, err := NewPipeline(nil).Process(context.Background(), "text")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPipeline_Process_FiltersRunInOrder(t *testing.T) {
	p := NewPipeline(newChunker(t, 100, 0),
		&mockFilter{name: "upper", fn: strings.ToUpper},
		&mockFilter{name: "suffix", fn: func(s string) string { return s + "!" }},
	)

	chunks, err := p.Process(context.Background(), "dhaka")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text != "DHAKA!" {
		t.Errorf("unexpected chunks: %+v", chunks)
	}
}

func TestPipeline_Process_FilterError(t *testing.T) {
	boom := errors.New("boom")
	p := NewPipeline(newChunker(t, 100, 0), &mockFilter{name: "broken", err: boom})

	_, err := p.Process(context.Background(), "text")
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped boom error, got %v", err)
	}
	if !strings.Contains(err.Error(), "filter broken") {
		t.Errorf("expected filter name in error, got %v", err)
	}
}

func TestPipeline_Process_CleanThenChunk(t *testing.T) {
	p := NewPipeline(newChunker(t, 512, 128), cleaner.New(domain.DefaultBlocklist()))
	raw := "HSC 26\nDhaka is the capital of Bangladesh.\n\nপৃষ্ঠা\nIt has a population of over 8 million.\n"

	chunks, err := p.Process(context.Background(), raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Dhaka is the capital of Bangladesh.\nIt has a population of over 8 million."
	if len(chunks) != 1 || chunks[0].Text != want {
		t.Errorf("unexpected chunks: %+v", chunks)
	}
}

func TestPipeline_FilterThenSplit(t *testing.T) {
	p := NewPipeline(newChunker(t, 100, 0), cleaner.New([]string{"HSC 26"}))

	cleaned, err := p.Filter(context.Background(), "HSC 26\n  Dhaka  \n\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleaned != "Dhaka" {
		t.Errorf("expected cleaned text %q, got %q", "Dhaka", cleaned)
	}

	chunks, err := p.Split(cleaned)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text != "Dhaka" {
		t.Errorf("unexpected chunks: %+v", chunks)
	}
}

func TestPipeline_Split_NoSplitter(t *testing.T) {
	_, err := NewPipeline(nil).Split("text")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
