package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// LLMClient defines the supported client behaviours. The AI trader engine
// (pkg/aitrader) depends only on this interface so tests can substitute a
// fake without touching OpenRouter.
type LLMClient interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	ChatStructured(ctx context.Context, req *ChatRequest, target interface{}) (interface{}, error)
	GetConfig() *Config
	Close() error
}

// Client talks to any OpenAI-compatible chat-completions endpoint (OpenRouter
// in production) via the openai-go SDK.
type Client struct {
	config       *Config
	openaiClient *openai.Client
	logger       Logger
	retryHandler *RetryHandler
	httpClient   *http.Client
}

// ClientOption configures optional client behaviour.
type ClientOption func(*clientOptions)

type clientOptions struct {
	logger       Logger
	retry        *RetryHandler
	httpClient   *http.Client
	openaiClient *openai.Client
}

// WithLogger injects a custom logger implementation.
func WithLogger(logger Logger) ClientOption {
	return func(opts *clientOptions) { opts.logger = logger }
}

// WithRetryHandler injects a custom retry handler.
func WithRetryHandler(handler *RetryHandler) ClientOption {
	return func(opts *clientOptions) { opts.retry = handler }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *clientOptions) { opts.httpClient = client }
}

// WithOpenAIClient injects a pre-configured OpenAI client (primarily for testing).
func WithOpenAIClient(client *openai.Client) ClientOption {
	return func(opts *clientOptions) { opts.openaiClient = client }
}

// NewClient constructs a new LLM client using the provided configuration.
func NewClient(cfg *Config, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("llm: config cannot be nil")
	}

	clientCfg := cfg.Clone()
	if err := clientCfg.Validate(); err != nil {
		return nil, err
	}

	optState := clientOptions{}
	for _, opt := range opts {
		opt(&optState)
	}

	logger := optState.logger
	if logger == nil {
		logger = NewLogger(clientCfg.LogLevel)
	}

	retryHandler := optState.retry
	if retryHandler == nil {
		retryHandler = NewRetryHandler(RetryConfig{MaxRetries: clientCfg.MaxRetries})
	}

	oaClient := optState.openaiClient
	if oaClient == nil {
		oaOpts := []option.RequestOption{
			option.WithAPIKey(clientCfg.APIKey),
			option.WithBaseURL(clientCfg.BaseURL),
		}
		if clientCfg.Timeout > 0 {
			oaOpts = append(oaOpts, option.WithRequestTimeout(clientCfg.Timeout))
		}
		if optState.httpClient != nil {
			oaOpts = append(oaOpts, option.WithHTTPClient(optState.httpClient))
		}
		clientVal := openai.NewClient(oaOpts...)
		oaClient = &clientVal
	}

	return &Client{
		config:       clientCfg,
		openaiClient: oaClient,
		logger:       logger,
		retryHandler: retryHandler,
		httpClient:   optState.httpClient,
	}, nil
}

// Chat performs a single synchronous completion request. The caller is
// responsible for the deadline; this call itself never retries on context
// errors.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if req == nil {
		return nil, errors.New("llm: request cannot be nil")
	}
	params, modelID, err := c.buildChatParams(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	c.logger.Info(ctx, "llm chat request", Fields{
		"model":    modelID,
		"messages": len(req.Messages),
	})

	var completion *openai.ChatCompletion
	err = c.retryHandler.Do(ctx, func() error {
		resp, callErr := c.openaiClient.Chat.Completions.New(ctx, params)
		if callErr != nil {
			c.logger.Error(ctx, fmt.Errorf("chat completion failed: %w", callErr), Fields{"model": modelID})
			return callErr
		}
		completion = resp
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := convertCompletion(completion)
	respText := ""
	if len(result.Choices) > 0 {
		respText = strings.TrimSpace(result.Choices[0].Message.Content)
	}
	c.logger.Info(ctx, "llm chat success", Fields{
		"model":             modelID,
		"duration_ms":       time.Since(start).Milliseconds(),
		"prompt_tokens":     result.Usage.PromptTokens,
		"completion_tokens": result.Usage.CompletionTokens,
		"response":          respText,
	})
	return result, nil
}

// ChatStructured enforces structured output using JSON schema and decodes the
// result into target.
func (c *Client) ChatStructured(ctx context.Context, req *ChatRequest, target interface{}) (interface{}, error) {
	if target == nil {
		return nil, errors.New("llm: structured target cannot be nil")
	}
	value := reflect.ValueOf(target)
	if value.Kind() != reflect.Ptr || value.IsNil() {
		return nil, errors.New("llm: structured target must be a pointer")
	}

	schema, err := GenerateSchema(target)
	if err != nil {
		return nil, err
	}

	strict := true
	structuredReq := *req
	structuredReq.ResponseFormat = &ResponseFormat{
		Type:        "json_schema",
		Name:        deriveSchemaName(value),
		Schema:      schema,
		Description: "Structured response",
		Strict:      &strict,
	}

	resp, err := c.Chat(ctx, &structuredReq)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("llm: empty structured response")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := ParseStructured(content, target); err != nil {
		c.logger.Error(ctx, fmt.Errorf("parse structured response: %w", err), Fields{"model": resp.Model})
		return nil, err
	}
	return target, nil
}

// GetConfig returns an immutable copy of the client configuration.
func (c *Client) GetConfig() *Config { return c.config.Clone() }

// Close releases resources associated with the client.
func (c *Client) Close() error {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
	return nil
}

func (c *Client) buildChatParams(req *ChatRequest) (openai.ChatCompletionNewParams, string, error) {
	if len(req.Messages) == 0 {
		return openai.ChatCompletionNewParams{}, "", errors.New("llm: request requires at least one message")
	}

	modelAlias := strings.TrimSpace(req.Model)
	if modelAlias == "" {
		modelAlias = c.config.DefaultModel
	}
	modelCfg, ok := c.config.Model(modelAlias)
	if !ok {
		modelCfg = ModelConfig{ModelName: modelAlias}
	}
	modelID := modelAlias
	if modelCfg.ModelName != "" {
		modelID = modelCfg.ModelName
	}

	messageParams, err := buildMessageParams(req.Messages)
	if err != nil {
		return openai.ChatCompletionNewParams{}, "", err
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(modelID),
		Messages: messageParams,
	}

	if rf, ok, err := toResponseFormatParam(req.ResponseFormat); err != nil {
		return openai.ChatCompletionNewParams{}, "", err
	} else if ok {
		params.ResponseFormat = rf
	}

	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	} else if modelCfg.Temperature != nil {
		params.Temperature = openai.Float(*modelCfg.Temperature)
	}
	if req.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*req.MaxTokens))
	} else if modelCfg.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*modelCfg.MaxTokens))
	}
	if req.TopP != nil {
		params.TopP = openai.Float(*req.TopP)
	} else if modelCfg.TopP != nil {
		params.TopP = openai.Float(*modelCfg.TopP)
	}

	return params, modelID, nil
}

func buildMessageParams(msgs []Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch strings.ToLower(m.Role) {
		case "system":
			result = append(result, openai.SystemMessage(m.Content))
		case "assistant":
			result = append(result, openai.ChatCompletionMessageParamOfAssistant(m.Content))
		default:
			result = append(result, openai.UserMessage(m.Content))
		}
	}
	return result, nil
}

func toResponseFormatParam(format *ResponseFormat) (openai.ChatCompletionNewParamsResponseFormatUnion, bool, error) {
	var empty openai.ChatCompletionNewParamsResponseFormatUnion
	if format == nil || strings.EqualFold(format.Type, "text") || format.Type == "" {
		return empty, false, nil
	}

	switch strings.ToLower(format.Type) {
	case "json_object":
		val := shared.NewResponseFormatJSONObjectParam()
		return openai.ChatCompletionNewParamsResponseFormatUnion{OfJSONObject: &val}, true, nil
	case "json_schema":
		schema, ok := format.Schema.(map[string]interface{})
		if !ok {
			return empty, false, fmt.Errorf("llm: json_schema requires map schema")
		}
		name := format.Name
		if name == "" {
			name = "structured_output"
		}
		jsonSchema := shared.ResponseFormatJSONSchemaJSONSchemaParam{
			Name:   name,
			Schema: schema,
		}
		if format.Strict != nil {
			jsonSchema.Strict = openai.Bool(*format.Strict)
		}
		if desc := strings.TrimSpace(format.Description); desc != "" {
			jsonSchema.Description = openai.String(desc)
		}
		val := shared.ResponseFormatJSONSchemaParam{JSONSchema: jsonSchema}
		val.Type = val.Type.Default()
		return openai.ChatCompletionNewParamsResponseFormatUnion{OfJSONSchema: &val}, true, nil
	default:
		return empty, false, fmt.Errorf("llm: unsupported response format %q", format.Type)
	}
}

func convertCompletion(resp *openai.ChatCompletion) *ChatResponse {
	if resp == nil {
		return nil
	}
	result := &ChatResponse{
		ID:      resp.ID,
		Model:   resp.Model,
		Created: resp.Created,
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
		Fingerprint: resp.SystemFingerprint,
	}
	for _, choice := range resp.Choices {
		result.Choices = append(result.Choices, Choice{
			Index:        int(choice.Index),
			Message:      Message{Role: string(choice.Message.Role), Content: choice.Message.Content},
			FinishReason: choice.FinishReason,
		})
	}
	return result
}

func deriveSchemaName(val reflect.Value) string {
	t := val.Type()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return strings.ToLower(t.Name())
}
