// Package orchestrator runs the multi-turn request/respond/dispatch loop:
// it sends the active agent's instructions, history and tool schemas to the
// configured backend, executes the tool calls the model requests, folds
// context-variable updates and agent handoffs back into the run, and repeats
// until the model answers without tool calls or the turn limit is reached.
//
// Backend divergence is isolated in a dialect: OpenAI, Ollama and Anthropic
// share the tool-role formatting family (dedicated tool-result messages,
// one retry without tools on rejection), while Gemini uses inline assistant
// formatting (JSON-wrapped assistant history, no retry, final-message unwrap
// on the blocking path).
//
// Invariants:
//   - History is append-only; caller inputs are deep-copied at entry.
//   - Tool calls in a batch dispatch in order; context merges and handoffs
//     are last-write-wins.
//   - RunStream's channel is closed by the producer; cancel the context to
//     abandon a stream.
package orchestrator
