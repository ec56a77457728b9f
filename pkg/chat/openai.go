package chat

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/openai/openai-go/shared"
)

// OpenAIConfig configures the OpenAI-compatible client. BaseURL redirects the
// same wire protocol at Ollama or Gemini endpoints.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

type openaiCompletions interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
	NewStreaming(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) *ssestream.Stream[openai.ChatCompletionChunk]
}

// OpenAIClient speaks the chat-completions protocol through openai-go.
type OpenAIClient struct {
	completions openaiCompletions
}

// NewOpenAIClient builds a client for any OpenAI-compatible endpoint.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	client := openai.NewClient(opts...)
	return &OpenAIClient{completions: &client.Chat.Completions}
}

// Complete issues a non-streaming completion.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Completion, error) {
	params, opts := buildOpenAIParams(req)

	completion, err := c.completions.New(ctx, params, opts...)
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}

	msg := completion.Choices[0].Message
	out := Message{
		Role:    RoleAssistant,
		Content: msg.Content,
	}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:   tc.ID,
			Type: string(tc.Type),
			Function: FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}

	return &Completion{Message: out}, nil
}

// Stream opens a streaming completion. The first fragment error surfaces as
// the returned error so callers can distinguish rejection from mid-stream
// failure.
func (c *OpenAIClient) Stream(ctx context.Context, req Request) (DeltaStream, error) {
	params, opts := buildOpenAIParams(req)

	stream := c.completions.NewStreaming(ctx, params, opts...)
	if err := stream.Err(); err != nil {
		return nil, err
	}
	return &openaiDeltaStream{stream: stream}, nil
}

type openaiDeltaStream struct {
	stream  *ssestream.Stream[openai.ChatCompletionChunk]
	current Delta
}

func (s *openaiDeltaStream) Next() bool {
	for s.stream.Next() {
		chunk := s.stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}

		d := chunk.Choices[0].Delta
		delta := Delta{
			Role:    d.Role,
			Content: d.Content,
		}
		for _, tc := range d.ToolCalls {
			delta.ToolCalls = append(delta.ToolCalls, DeltaToolCall{
				Index: int(tc.Index),
				ID:    tc.ID,
				Type:  string(tc.Type),
				Function: FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}

		s.current = delta
		return true
	}
	return false
}

func (s *openaiDeltaStream) Current() Delta { return s.current }
func (s *openaiDeltaStream) Err() error { return s.stream.Err() }
func (s *openaiDeltaStream) Close() error { return s.stream.Close() }

func buildOpenAIParams(req Request) (openai.ChatCompletionNewParams, []option.RequestOption) {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: convertMessagesToOpenAI(req.Messages),
	}

	for _, t := range req.Tools {
		tool := openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:       t.Name,
				Parameters: shared.FunctionParameters(t.Parameters),
			},
		}
		if t.Description != "" {
			tool.Function.Description = openai.Opt(t.Description)
		}
		params.Tools = append(params.Tools, tool)
	}

	if req.ToolChoice != "" {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.Opt(req.ToolChoice),
		}
	}
	if req.ParallelToolCalls != nil {
		params.ParallelToolCalls = openai.Bool(*req.ParallelToolCalls)
	}

	var opts []option.RequestOption
	for key, value := range req.Extra {
		opts = append(opts, option.WithJSONSet(key, value))
	}

	return params, opts
}

func convertMessagesToOpenAI(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			out = append(out, buildOpenAIAssistantMessage(msg))
		case RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

func buildOpenAIAssistantMessage(msg Message) openai.ChatCompletionMessageParamUnion {
	assistant := openai.ChatCompletionAssistantMessageParam{}
	if msg.Content != "" {
		assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.String(msg.Content),
		}
	}
	for _, call := range msg.ToolCalls {
		assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
			ID: call.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}
