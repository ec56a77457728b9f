// Package agent defines the agent entity the orchestrator runs: its
// instructions, tool set and per-agent request knobs, plus the context
// variable map, tool result and run response types shared across turns.
//
// Invariants:
//   - New rejects duplicate tool names at registration.
//   - ContextVars merges are last-write-wins; Merge never mutates operands.
//   - A Result carrying a nil Agent means "no handoff".
package agent
