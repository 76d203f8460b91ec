package coach

import (
	"context"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/MrWong99/elocute/internal/analysis"
)

// DefaultMaxTokens caps the length of generated feedback.
const DefaultMaxTokens = 300

// OpenAI is a [Coach] backed by an OpenAI-compatible chat completions API.
type OpenAI struct {
	client    oai.Client
	model     string
	maxTokens int64
}

// Compile-time interface check.
var _ Coach = (*OpenAI)(nil)

type config struct {
	baseURL    string
	timeout    time.Duration
	maxTokens  int
	maxRetries int
}

// Option configures an [OpenAI] coach.
type Option func(*config)

// WithBaseURL points the client at a compatible server, such as a local
// model runner.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithMaxTokens overrides [DefaultMaxTokens].
func WithMaxTokens(n int) Option {
	return func(c *config) { c.maxTokens = n }
}

// WithMaxRetries sets how often a failed request is retried.
func WithMaxRetries(n int) Option {
	return func(c *config) { c.maxRetries = n }
}

// NewOpenAI constructs an OpenAI coach.
func NewOpenAI(apiKey, model string, opts ...Option) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("coach: api key must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("coach: model must not be empty")
	}

	cfg := &config{maxTokens: DefaultMaxTokens, maxRetries: -1}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}
	if cfg.maxRetries >= 0 {
		reqOpts = append(reqOpts, option.WithMaxRetries(cfg.maxRetries))
	}

	return &OpenAI{
		client:    oai.NewClient(reqOpts...),
		model:     model,
		maxTokens: int64(cfg.maxTokens),
	}, nil
}

// Feedback implements [Coach].
func (o *OpenAI) Feedback(ctx context.Context, res analysis.Result) (string, error) {
	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(SystemPrompt),
			oai.UserMessage(Prompt(res)),
		},
	}
	if o.maxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(o.maxTokens)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("coach: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("coach: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
