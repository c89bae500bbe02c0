package memory

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
)

// Backend names accepted by New.
const (
	BackendSQLite  = "sqlite"
	BackendKeyword = "keyword"
	BackendNone    = "none"
)

// Embedder names accepted by New.
const (
	EmbedderOpenAI = "openai"
	EmbedderNone   = "none"
)

// Options selects and configures a provider.
type Options struct {
	Backend        string
	Dir            string // directory holding sqlite files
	Embedder       string
	OpenAIKey      string
	OpenAIBaseURL  string
	EmbeddingModel string
}

// New constructs the provider named by opts.Backend. The returned closer
// releases backend resources and is never nil.
func New(ctx context.Context, opts Options) (Provider, io.Closer, error) {
	switch opts.Backend {
	case "", BackendNone:
		return NoMemory{}, nopCloser{}, nil
	case BackendKeyword:
		p, err := NewKeywordProvider()
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	case BackendSQLite:
		emb, err := newEmbedder(opts)
		if err != nil {
			return nil, nil, err
		}
		dir := opts.Dir
		if dir == "" {
			dir = "."
		}
		p, err := NewSQLiteProvider(ctx, filepath.Join(dir, "memory.db"), emb)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	default:
		return nil, nil, fmt.Errorf("unknown memory backend: %s (supported: sqlite, keyword, none)", opts.Backend)
	}
}

func newEmbedder(opts Options) (Embedder, error) {
	switch opts.Embedder {
	case "", EmbedderNone:
		return NewNoOpEmbedder(0), nil
	case EmbedderOpenAI:
		if opts.OpenAIKey == "" {
			return nil, fmt.Errorf("openai embedder requires an API key")
		}
		return NewOpenAIEmbedder(opts.OpenAIKey, opts.EmbeddingModel, opts.OpenAIBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s (supported: openai, none)", opts.Embedder)
	}
}

// NoMemory discards everything.
type NoMemory struct{}

func (NoMemory) Add(context.Context, string) (string, error)                { return "", nil }
func (NoMemory) Get(context.Context, string) ([]string, error)              { return nil, nil }
func (NoMemory) Clear(context.Context) error                                { return nil }
func (NoMemory) GetRelevant(context.Context, string, int) ([]string, error) { return nil, nil }
func (NoMemory) GetStats(context.Context) (Stats, error)                    { return Stats{Backend: BackendNone}, nil }

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
