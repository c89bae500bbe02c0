package memory

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// NoOpEmbedder returns zero vectors. Providers fall back to keyword overlap
// when vectors carry no signal.
type NoOpEmbedder struct {
	dimension int
}

// NewNoOpEmbedder creates a no-op embedder.
func NewNoOpEmbedder(dimension int) *NoOpEmbedder {
	if dimension <= 0 {
		dimension = 8
	}
	return &NoOpEmbedder{dimension: dimension}
}

func (e *NoOpEmbedder) Embed(context.Context, string) ([]float32, error) {
	return make([]float32, e.dimension), nil
}

func (e *NoOpEmbedder) Dimension() int { return e.dimension }

// OpenAIEmbedder uses the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
}

// embeddingDimensions lists models whose vectors are not 1536 wide.
var embeddingDimensions = map[string]int{
	"text-embedding-3-large": 3072,
}

// NewOpenAIEmbedder creates an OpenAI embedder. The dimension is fixed by
// the model name: "text-embedding-3-large" is 3072, everything else 1536.
func NewOpenAIEmbedder(apiKey, model, baseURL string) *OpenAIEmbedder {
	if model == "" {
		model = "text-embedding-3-small"
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	dimension, ok := embeddingDimensions[model]
	if !ok {
		dimension = 1536
	}
	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		dimension: dimension,
	}
}

// Embed generates an embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return resp.Data[0].Embedding, nil
}

func (e *OpenAIEmbedder) Dimension() int { return e.dimension }

// encodeVector encodes a float32 vector as little-endian bytes.
func encodeVector(vector []float32) []byte {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, vector); err != nil {
		panic(fmt.Sprintf("failed to encode vector: %v", err))
	}
	return buf.Bytes()
}

// decodeVector is the inverse of encodeVector.
func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector length: %d", len(data))
	}
	vector := make([]float32, len(data)/4)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, vector); err != nil {
		return nil, err
	}
	return vector, nil
}

// cosine returns the cosine similarity of a and b, and false when either
// vector has zero norm or the lengths differ.
func cosine(a, b []float32) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}
