// Package chat defines the neutral chat-completion wire types and the Client
// capability the orchestrator speaks through.
//
// Two transports are provided: an OpenAI-compatible client (openai-go) that
// also serves Ollama and Gemini through their chat-completion endpoints, and
// an Anthropic client (anthropic-sdk-go) whose stream events are translated
// into the same indexed Delta fragments.
//
// Invariants:
//   - Client implementations never mutate the Request they are given.
//   - A DeltaStream yields fragments in arrival order; tool-call fragments
//     carry the provider's index so partial calls can be reassembled.
//
// Usage:
//
//	client := chat.NewOpenAIClient(chat.OpenAIConfig{APIKey: key})
//	completion, err := client.Complete(ctx, req)
package chat
