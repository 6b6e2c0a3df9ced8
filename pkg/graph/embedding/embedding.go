package embedding

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/athapong/docgraph-mcp/pkg/graph/metrics"
	"github.com/pkg/errors"
	"github.com/pkoukk/tiktoken-go"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// Embedder turns texts into vectors of a fixed size.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Client is the subset of *openai.Client used for embeddings.
type Client interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// DefaultModel is used when no model is configured.
const DefaultModel = "text-embedding-3-small"

// Vector sizes of commonly used OpenAI compatible models
var modelDimensions = map[openai.EmbeddingModel]int{
	openai.AdaEmbeddingV2:  1536,
	openai.SmallEmbedding3: 1536,
	openai.LargeEmbedding3: 3072,
	"baai/bge-base-en":     768,
	"baai/bge-large-en":    1024,
	"codesmart.embedding":  1536,
}

// ModelDimensions returns the vector size of a known model.
func ModelDimensions(model string) (int, error) {
	if dims, ok := modelDimensions[openai.EmbeddingModel(model)]; ok {
		return dims, nil
	}

	known := make([]string, 0, len(modelDimensions))
	for m := range modelDimensions {
		known = append(known, string(m))
	}
	sort.Strings(known)
	return 0, fmt.Errorf("unsupported embedding model: %s. Supported models: %s", model, strings.Join(known, ", "))
}

type Options struct {
	Model string
	// Dimensions overrides the model's vector size; required for unknown models.
	Dimensions int
	// MaxTokens truncates each input to this many cl100k_base tokens; 0 disables truncation.
	MaxTokens int
	// BatchSize caps the inputs per request.
	BatchSize int
	Logger    *logrus.Logger
}

// OpenAIEmbedder embeds texts through an OpenAI compatible API.
type OpenAIEmbedder struct {
	client    Client
	model     openai.EmbeddingModel
	dims      int
	maxTokens int
	batchSize int
	encoding  *tiktoken.Tiktoken
	logger    *logrus.Logger
}

func NewOpenAIEmbedder(client Client, opts Options) (*OpenAIEmbedder, error) {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}

	dims := opts.Dimensions
	if dims <= 0 {
		var err error
		if dims, err = ModelDimensions(opts.Model); err != nil {
			return nil, err
		}
	}

	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
		opts.Logger.SetFormatter(&logrus.JSONFormatter{})
	}

	e := &OpenAIEmbedder{
		client:    client,
		model:     openai.EmbeddingModel(opts.Model),
		dims:      dims,
		maxTokens: opts.MaxTokens,
		batchSize: opts.BatchSize,
		logger:    opts.Logger,
	}

	if opts.MaxTokens > 0 {
		encoding, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, errors.Wrap(err, "failed to get encoding")
		}
		e.encoding = encoding
	}
	return e, nil
}

func (e *OpenAIEmbedder) Dimensions() int {
	return e.dims
}

// Embed returns one vector per text, in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))

		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			metrics.EmbeddingRequests.WithLabelValues("error").Inc()
			return nil, err
		}
		metrics.EmbeddingRequests.WithLabelValues("success").Inc()
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	inputs := make([]string, len(texts))
	for i, text := range texts {
		inputs[i] = e.truncate(text)
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: inputs,
		Model: e.model,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate embeddings")
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		if len(d.Embedding) != e.dims {
			return nil, fmt.Errorf("model %s returned %d dimensions, expected %d", e.model, len(d.Embedding), e.dims)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

func (e *OpenAIEmbedder) truncate(text string) string {
	if e.encoding == nil {
		return text
	}

	tokens := e.encoding.Encode(text, nil, nil)
	if len(tokens) <= e.maxTokens {
		return text
	}

	metrics.TruncatedInputs.Inc()
	e.logger.WithFields(logrus.Fields{
		"tokens": len(tokens),
		"limit":  e.maxTokens,
	}).Debug("Truncating embedding input")
	return e.encoding.Decode(tokens[:e.maxTokens])
}
