package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/teemow/calhighlight/internal/instrumentation"
	"github.com/teemow/calhighlight/internal/logging"
)

// Defaults for model calls.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = float32(0.7)
)

var (
	// ErrEmptyResponse is returned when the model returns no choices.
	ErrEmptyResponse = errors.New("model returned no choices")

	// ErrRefused is returned when the model declines to produce output.
	ErrRefused = errors.New("model refused the request")
)

// Completer is the subset of *openai.Client used here.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config selects the model endpoint.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
}

// NewOpenAIClient builds an *openai.Client for cfg. An empty BaseURL keeps
// the library default.
func NewOpenAIClient(cfg Config) *openai.Client {
	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(conf)
}

// Client issues model calls with a fixed model and temperature.
type Client struct {
	completer   Completer
	model       string
	temperature float32
	metrics     *instrumentation.Metrics
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(c *Client) { c.temperature = t }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client around completer.
func New(completer Completer, opts ...Option) *Client {
	c := &Client{
		completer:   completer,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Structured asks the model for a JSON object matching schema and decodes
// it into out. Output that does not decode is an error; semantic checks are
// left to the caller.
func (c *Client) Structured(ctx context.Context, name string, schema jsonschema.Definition, messages []openai.ChatCompletionMessage, out any) error {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Schema: &schema,
				Strict: true,
			},
		},
	}

	msg, err := c.complete(ctx, instrumentation.LLMOperationStructured, req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(msg.Content), out); err != nil {
		return fmt.Errorf("failed to decode %s output: %w", name, err)
	}
	return nil
}

// Chat sends messages with the given tools available and returns the
// assistant message, which may carry tool calls instead of content.
func (c *Client) Chat(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionMessage, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		Tools:       tools,
	}
	return c.complete(ctx, instrumentation.LLMOperationChat, req)
}

func (c *Client) complete(ctx context.Context, operation string, req openai.ChatCompletionRequest) (openai.ChatCompletionMessage, error) {
	ctx, span := instrumentation.StartModelSpan(ctx, c.model, operation)
	start := time.Now()

	msg, err := c.do(ctx, req)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordLLMRequest(ctx, c.model, operation, status, time.Since(start))
	instrumentation.EndSpan(span, err)

	logger := logging.WithOperation(c.logger, "llm."+operation)
	if err != nil {
		logger.Warn("model call failed", logging.Model(c.model), logging.Err(err))
	} else {
		logger.Debug("model call completed",
			logging.Model(c.model),
			slog.Duration(logging.KeyDuration, time.Since(start)),
			slog.Int("tool_calls", len(msg.ToolCalls)))
	}
	return msg, err
}

func (c *Client) do(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionMessage, error) {
	resp, err := c.completer.CreateChatCompletion(ctx, req)
	if err != nil {
		return openai.ChatCompletionMessage{}, fmt.Errorf("chat completion failed: %w", err)
	}
	c.metrics.RecordLLMTokens(ctx, c.model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, ErrEmptyResponse
	}
	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return openai.ChatCompletionMessage{}, fmt.Errorf("%w: %s", ErrRefused, msg.Refusal)
	}
	return msg, nil
}

// SystemMessage builds a system message.
func SystemMessage(content string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: content}
}

// UserMessage builds a user message.
func UserMessage(content string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: content}
}

// AssistantMessage builds an assistant message.
func AssistantMessage(content string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}
}

// ToolMessage builds the result message for one tool call.
func ToolMessage(callID, content string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleTool, Content: content, ToolCallID: callID}
}
