/*
Package tracing provides lightweight request and generation tracing.

Spans carry a trace id, their own id and their parent's, and are logged
through zap by a buffered background collector when submitted. Trace
context travels in X-Trace-ID and X-Span-ID headers: HTTPMiddleware
continues incoming traces and the HTTP generator forwards them upstream.

# Usage

	tracer := tracing.New("jsonrender", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "generation")
	span.SetTag("session_id", id)
	defer tracer.Submit(span)
*/
package tracing
