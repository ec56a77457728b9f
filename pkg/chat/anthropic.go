package chat

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

// Anthropic requires an explicit output cap on every request.
const anthropicDefaultMaxTokens = 4096

// AnthropicConfig configures the Anthropic messages-API client.
type AnthropicConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

type anthropicMessages interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
	NewStreaming(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) *ssestream.Stream[anthropic.MessageStreamEventUnion]
}

// AnthropicClient speaks the Anthropic messages protocol and translates it
// into the neutral chat types.
type AnthropicClient struct {
	messages anthropicMessages
}

// NewAnthropicClient builds an Anthropic-backed client.
func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	client := anthropic.NewClient(opts...)
	return &AnthropicClient{messages: &client.Messages}
}

// Complete issues a non-streaming completion.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (*Completion, error) {
	params, opts := buildAnthropicParams(req)

	msg, err := c.messages.New(ctx, params, opts...)
	if err != nil {
		return nil, err
	}

	out := Message{Role: RoleAssistant}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			out.Content += block.Text
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:   block.ID,
				Type: "function",
				Function: FunctionCall{
					Name:      block.Name,
					Arguments: string(block.Input),
				},
			})
		}
	}

	return &Completion{Message: out}, nil
}

// Stream opens a streaming completion; message events are translated into
// indexed Delta fragments.
func (c *AnthropicClient) Stream(ctx context.Context, req Request) (DeltaStream, error) {
	params, opts := buildAnthropicParams(req)

	stream := c.messages.NewStreaming(ctx, params, opts...)
	if err := stream.Err(); err != nil {
		return nil, err
	}
	return &anthropicDeltaStream{stream: stream}, nil
}

type anthropicDeltaStream struct {
	stream  *ssestream.Stream[anthropic.MessageStreamEventUnion]
	current Delta
}

func (s *anthropicDeltaStream) Next() bool {
	for s.stream.Next() {
		event := s.stream.Current()

		switch ev := event.AsAny().(type) {
		case anthropic.MessageStartEvent:
			s.current = Delta{Role: RoleAssistant}
			return true

		case anthropic.ContentBlockStartEvent:
			if ev.ContentBlock.Type != "tool_use" {
				continue
			}
			s.current = Delta{ToolCalls: []DeltaToolCall{{
				Index: int(ev.Index),
				ID:    ev.ContentBlock.ID,
				Type:  "function",
				Function: FunctionCall{
					Name: ev.ContentBlock.Name,
				},
			}}}
			return true

		case anthropic.ContentBlockDeltaEvent:
			switch ev.Delta.Type {
			case "text_delta":
				s.current = Delta{Content: ev.Delta.Text}
				return true
			case "input_json_delta":
				s.current = Delta{ToolCalls: []DeltaToolCall{{
					Index: int(ev.Index),
					Function: FunctionCall{
						Arguments: ev.Delta.PartialJSON,
					},
				}}}
				return true
			}
		}
	}
	return false
}

func (s *anthropicDeltaStream) Current() Delta { return s.current }
func (s *anthropicDeltaStream) Err() error { return s.stream.Err() }
func (s *anthropicDeltaStream) Close() error { return s.stream.Close() }

func buildAnthropicParams(req Request) (anthropic.MessageNewParams, []option.RequestOption) {
	system, messages := convertMessagesToAnthropic(req.Messages)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: anthropicDefaultMaxTokens,
		Messages:  messages,
	}
	if len(system) > 0 {
		params.System = system
	}

	for _, t := range req.Tools {
		tool := anthropic.ToolParam{
			Name:        t.Name,
			InputSchema: anthropicInputSchema(t.Parameters),
		}
		if t.Description != "" {
			tool.Description = anthropic.String(t.Description)
		}
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: &tool})
	}

	switch req.ToolChoice {
	case "auto":
		params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
	case "required":
		params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}
	case "none":
		params.ToolChoice = anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
	}

	var opts []option.RequestOption
	for key, value := range req.Extra {
		opts = append(opts, option.WithJSONSet(key, value))
	}

	return params, opts
}

func convertMessagesToAnthropic(msgs []Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var system []anthropic.TextBlockParam
	var out []anthropic.MessageParam

	for _, msg := range msgs {
		switch msg.Role {
		case RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, json.RawMessage(call.Function.Arguments), call.Function.Name))
			}
			if len(blocks) == 0 {
				continue
			}
			out = append(out, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleAssistant,
				Content: blocks,
			})
		case RoleTool:
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false),
			))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	return system, out
}

func anthropicInputSchema(params map[string]any) anthropic.ToolInputSchemaParam {
	if len(params) == 0 {
		return anthropic.ToolInputSchemaParam{Type: "object"}
	}

	var schema anthropic.ToolInputSchemaParam
	data, err := json.Marshal(params)
	if err == nil {
		err = json.Unmarshal(data, &schema)
	}
	if err != nil {
		return anthropic.ToolInputSchemaParam{Type: "object"}
	}
	if schema.Type == "" {
		schema.Type = "object"
	}
	return schema
}
