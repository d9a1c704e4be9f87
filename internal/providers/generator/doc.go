// Package generator provides the text streams that feed sessions.
//
// HTTP posts the prompt to an upstream model endpoint and streams the
// response body as patch lines. Calls go through a token bucket limiter and
// a circuit breaker; transient connection failures and 5xx answers are
// retried by go-retryablehttp before the stream starts. Once the body is
// streaming nothing is retried: a failure mid-stream ends the generation as
// errored and the partial tree stays.
//
// Replay streams a recorded trace file, plain or gzip/zstd compressed, for
// demos, tests and the CLI. Demo synthesizes a small deck from the prompt
// so the service works without any upstream.
package generator
