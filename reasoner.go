package pacer

import "context"

// Reasoner is the external reasoning provider the predictor and
// aggregator consult. Implementations send a structured prompt and
// return the raw text payload, which is expected — but not guaranteed —
// to contain JSON. Calls may be slow; implementations must honor the
// context. Every error and malformed payload is handled by the caller
// via fallback, never surfaced to the library user.
//
// The reference implementation lives in internal/reasoner and talks to
// an OpenAI-compatible chat completion endpoint.
type Reasoner interface {
	Send(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
