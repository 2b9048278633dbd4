// Package gemini wraps the genai SDK's generateContent and model lookup calls.
//
// Requests carry ordered multimodal parts (text and inline images). The client
// retries rate limits, timeouts and server errors with exponential backoff;
// callers that must not retry pass WithRetryMaxAttempts(1).
package gemini
