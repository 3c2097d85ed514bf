// Package llm provides an OpenAI-compatible chat client used as the
// pipeline translator.
//
// # Translation
//
// Client.Translate sends the transcript with a prompt requesting a JSON
// object {"translation": "..."}. An empty translation, or one that equals the
// input after Unicode normalization when the languages differ, is reported
// as a failure rather than passed downstream.
//
// # Configuration
//
// Requires api_key and model, and optionally base_url, referer, title,
// timeout. OpenRouter is the default endpoint.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive JSON response.
// Client.Translate: translate a transcript for the pipeline.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// Requests go through the shared retry policy: HTTP 408/429/5xx, network
// timeouts, and empty completions are retried with exponential backoff (base
// 1s, max 10s, up to 5 attempts by default). Context cancellation aborts
// retries immediately.
package llm
