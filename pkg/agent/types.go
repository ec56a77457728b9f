package agent

import "github.com/hmaulana/kawanan/pkg/chat"

// Result is the normalized return of one tool call. Value is what goes back
// into history; Agent, when non-nil, hands the run off to a new active agent.
type Result struct {
	Value            string
	Agent            *Agent
	ContextVariables ContextVars
}

// Response is the outcome of a run: the messages appended past the caller's
// history, the agent active at termination, and the final context variables.
type Response struct {
	Messages         []chat.Message
	Agent            *Agent
	ContextVariables ContextVars
}
