// Package scoring adapts external similarity scoring behind a port. The
// default implementation embeds both texts and reports cosine similarity
// mapped into [0,1]
package scoring

import (
	"context"
	"errors"
	"math"
	"net"
	"time"

	"github.com/sashabaranov/go-openai"

	perr "leveler/internal/platform/errors"
	"leveler/internal/platform/logger"
)

// Scorer reports semantic similarity between two texts in [0,1]
type Scorer interface {
	Score(ctx context.Context, a, b string) (float64, error)
}

const (
	defaultTimeout = 10 * time.Second
	defaultModel   = string(openai.SmallEmbedding3)
)

// Options configures the embedding-backed scorer
type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Model   string
}

// Embeddings implements Scorer over an embedding endpoint
type Embeddings struct {
	client *openai.Client
	opts   Options
	log    logger.Logger
}

// NewEmbeddings creates a scorer with sane defaults
func NewEmbeddings(o Options) *Embeddings {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Model == "" {
		o.Model = defaultModel
	}
	cfg := openai.DefaultConfig(o.APIKey)
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
	}
	return &Embeddings{
		client: openai.NewClientWithConfig(cfg),
		opts:   o,
		log:    *logger.Named("scoring"),
	}
}

// Score embeds both texts in one request and returns cosine similarity
// rescaled from [-1,1] to [0,1]
func (e *Embeddings) Score(ctx context.Context, a, b string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.opts.Model),
		Input: []string{a, b},
	})
	if err != nil {
		return 0, classifyErr(err)
	}
	if len(resp.Data) != 2 {
		return 0, perr.Upstreamf("scoring returned %d embeddings, want 2", len(resp.Data))
	}

	cos, err := Cosine(resp.Data[0].Embedding, resp.Data[1].Embedding)
	if err != nil {
		return 0, err
	}
	return (cos + 1) / 2, nil
}

// Cosine computes cosine similarity between two equal-length vectors
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, perr.Upstreamf("scoring vectors mismatched: %d vs %d", len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, perr.Upstreamf("scoring produced zero vector")
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

func classifyErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 429:
			return perr.TooManyRequestsf("scoring rate limited: %s", apiErr.Message)
		case apiErr.HTTPStatusCode >= 500:
			return perr.Unavailablef("scoring upstream %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		default:
			return perr.Upstreamf("scoring failed %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return perr.Unavailablef("scoring timed out")
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return perr.Unavailablef("scoring network error: %v", netErr)
	}
	return perr.Wrapf(err, perr.ErrorCodeUnknown, "scoring failed")
}
