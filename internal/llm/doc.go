// Package llm wraps an OpenAI-compatible chat completion API for the
// assistant features: structured JSON output constrained by a schema, and
// chat turns that may request tool calls.
//
// The Client depends only on the Completer interface, which *openai.Client
// satisfies, so tests substitute a scripted fake.
package llm
