// Package postprocessors turns raw source text into index chunks.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// TextFilter transforms text before it is chunked.
type TextFilter interface {
	// Name identifies the filter in errors.
	Name() string

	// Filter returns the transformed text.
	Filter(ctx context.Context, text string) (string, error)
}

// Splitter cuts filtered text into chunks.
type Splitter interface {
	Name() string
	Split(text string) []domain.Chunk
}

// Pipeline runs filters in order and then splits the result.
type Pipeline struct {
	filters  []TextFilter
	splitter Splitter
}

// NewPipeline creates a processing pipeline.
// Filters are executed in the order provided.
func NewPipeline(splitter Splitter, filters ...TextFilter) *Pipeline {
	return &Pipeline{
		filters:  filters,
		splitter: splitter,
	}
}

// Process runs the text through all filters, then the splitter.
func (p *Pipeline) Process(ctx context.Context, text string) ([]domain.Chunk, error) {
	if p.splitter == nil {
		return nil, fmt.Errorf("%w: pipeline has no splitter", domain.ErrInvalidInput)
	}
	text, err := p.Filter(ctx, text)
	if err != nil {
		return nil, err
	}
	return p.Split(text)
}

// Filter runs the text through all filters in order.
func (p *Pipeline) Filter(ctx context.Context, text string) (string, error) {
	for _, f := range p.filters {
		var err error
		text, err = f.Filter(ctx, text)
		if err != nil {
			return "", fmt.Errorf("filter %s: %w", f.Name(), err)
		}
	}
	return text, nil
}

// Split cuts already filtered text into chunks.
func (p *Pipeline) Split(text string) ([]domain.Chunk, error) {
	if p.splitter == nil {
		return nil, fmt.Errorf("%w: pipeline has no splitter", domain.ErrInvalidInput)
	}
	return p.splitter.Split(text), nil
}

// Add appends a filter to the pipeline.
func (p *Pipeline) Add(f TextFilter) {
	p.filters = append(p.filters, f)
}

// Len returns the number of filters in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.filters)
}
