package schema

import "context"

// Completer is the interface the completion backend must satisfy.
//
// Complete sends the ordered transcript plus a system prompt and returns the
// assistant's reply text. Implementations own their own timeout; a timed-out
// call reports failure like any other error.
type Completer interface {
	Complete(ctx context.Context, turns []Turn, systemPrompt string) (string, error)
	Model() string
}
