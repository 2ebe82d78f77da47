// Package provider holds the HTTP clients behind the llm adapters: the
// OpenAI chat completions API, the Anthropic text completion API, and a
// local streaming generate endpoint.
package provider
