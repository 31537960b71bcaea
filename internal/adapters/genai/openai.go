package genai

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	perr "leveler/internal/platform/errors"
	"leveler/internal/platform/logger"
)

const (
	defaultTimeout       = 45 * time.Second
	defaultModelStandard = "gpt-4o-mini"
	defaultModelStrong   = "gpt-4o"
)

// Options configures the OpenAI-backed generator
type Options struct {
	APIKey  string
	BaseURL string // optional, for proxies or compatible endpoints
	Timeout time.Duration

	// Models by escalation hint; empty values use package defaults
	ModelStandard string
	ModelStrong   string
}

// OpenAI implements Generator over chat completions
type OpenAI struct {
	client *openai.Client
	opts   Options
	log    logger.Logger
	now    func() time.Time
}

// NewOpenAI creates a generator client with sane defaults
func NewOpenAI(o Options) *OpenAI {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.ModelStandard == "" {
		o.ModelStandard = defaultModelStandard
	}
	if o.ModelStrong == "" {
		o.ModelStrong = defaultModelStrong
	}
	cfg := openai.DefaultConfig(o.APIKey)
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		opts:   o,
		log:    *logger.Named("genai"),
		now:    time.Now,
	}
}

func (g *OpenAI) model(hint string) string {
	if hint == "strong" {
		return g.opts.ModelStrong
	}
	return g.opts.ModelStandard
}

// Generate issues one chat completion for the attempt described by p.
// One call per invocation; transient handling is the caller's concern
func (g *OpenAI) Generate(ctx context.Context, text string, p Params) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	model := g.model(p.ModelHint)
	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: p.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(text, p)},
		},
	}

	start := g.now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	elapsed := g.now().Sub(start)

	if err != nil {
		g.log.Debug().Err(err).Str("model", model).Str("params", describeParams(p)).
			Dur("elapsed", elapsed).Msg("generation call failed")
		return Result{Model: model, Latency: elapsed}, classifyErr(err)
	}

	if len(resp.Choices) == 0 {
		return Result{Model: model, Latency: elapsed}, perr.Upstreamf("generation returned no choices")
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return Result{Model: model, Latency: elapsed}, perr.Upstreamf("generation returned empty text")
	}

	return Result{
		Text:             out,
		Model:            model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		Latency:          elapsed,
	}, nil
}

// classifyErr maps provider failures onto the platform error taxonomy.
// Rate limits and 5xx/transport faults are retryable; 4xx responses are
// upstream faults that retrying the same request cannot fix
func classifyErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 429:
			return perr.TooManyRequestsf("generation rate limited: %s", apiErr.Message)
		case apiErr.HTTPStatusCode >= 500:
			return perr.Unavailablef("generation upstream %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		default:
			return perr.Upstreamf("generation failed %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == 429 {
			return perr.TooManyRequestsf("generation rate limited")
		}
		if reqErr.HTTPStatusCode >= 500 {
			return perr.Unavailablef("generation upstream %d", reqErr.HTTPStatusCode)
		}
		return perr.Upstreamf("generation request failed %d", reqErr.HTTPStatusCode)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return perr.Unavailablef("generation timed out")
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return perr.Unavailablef("generation network error: %v", netErr)
	}

	return perr.Wrapf(err, perr.ErrorCodeUnknown, "generation failed")
}
