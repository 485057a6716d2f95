// Package llm provides a chat completion client for OpenAI-compatible
// endpoints such as Gemini's OpenAI surface or OpenRouter.
//
// The translation stage uses Complete to send numbered subtitle batches and
// receive free-text replies. Preflight uses HealthCheck, which issues a tiny
// JSON-mode request to verify the API key and model.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty replies, and network
// timeouts with exponential backoff (base 1s, max 10s). Retry-After headers
// are honoured up to the max delay. Context cancellation aborts retries
// immediately.
package llm
