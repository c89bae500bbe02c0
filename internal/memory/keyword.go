package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/google/uuid"
)

// KeywordProvider keeps memories in an in-memory bleve index and ranks them
// with BM25 scoring. Nothing is persisted.
type KeywordProvider struct {
	mu    sync.RWMutex
	index bleve.Index
	texts map[string]string
	bytes int64
}

// NewKeywordProvider creates an empty keyword index.
func NewKeywordProvider() (*KeywordProvider, error) {
	indexMapping := bleve.NewIndexMapping()
	index, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create keyword index: %w", err)
	}
	return &KeywordProvider{index: index, texts: make(map[string]string)}, nil
}

// Close releases the index.
func (p *KeywordProvider) Close() error {
	return p.index.Close()
}

func (p *KeywordProvider) Add(_ context.Context, text string) (string, error) {
	id := uuid.NewString()
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.index.Index(id, map[string]any{"text": text}); err != nil {
		return "", fmt.Errorf("failed to index memory: %w", err)
	}
	p.texts[id] = text
	p.bytes += int64(len(text))
	return id, nil
}

func (p *KeywordProvider) Get(ctx context.Context, query string) ([]string, error) {
	return p.GetRelevant(ctx, query, 1)
}

func (p *KeywordProvider) Clear(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	batch := p.index.NewBatch()
	for id := range p.texts {
		batch.Delete(id)
	}
	if err := p.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to clear keyword index: %w", err)
	}
	p.texts = make(map[string]string)
	p.bytes = 0
	return nil
}

func (p *KeywordProvider) GetRelevant(_ context.Context, query string, k int) ([]string, error) {
	if k <= 0 {
		k = DefaultRelevantCount
	}
	q := bleve.NewMatchQuery(query)
	q.SetField("text")
	req := bleve.NewSearchRequest(q)
	req.Size = k

	p.mu.RLock()
	defer p.mu.RUnlock()
	res, err := p.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	out := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if text, ok := p.texts[hit.ID]; ok {
			out = append(out, text)
		}
	}
	return out, nil
}

func (p *KeywordProvider) GetStats(context.Context) (Stats, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Stats{Backend: "keyword", Entries: len(p.texts), Bytes: p.bytes}, nil
}
