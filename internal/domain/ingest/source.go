package ingest

import (
	"context"
	"fmt"
	"io"
)

// Source produces raw text chunks. Next blocks until a chunk is available,
// the stream ends (io.EOF) or ctx is done. Any other error is a transport
// failure.
type Source interface {
	Next(ctx context.Context) (string, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context) (string, error)

// Next calls f
func (f SourceFunc) Next(ctx context.Context) (string, error) {
	return f(ctx)
}

// TransportError wraps a failure of the underlying stream
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DefaultReadSize is the chunk size used by ReaderSource
const DefaultReadSize = 4096

// ReaderSource reads chunks from an io.Reader such as an HTTP body.
// Cancellation is observed between reads; readers that must be
// interrupted mid-read should be closed by their owner on cancel.
type ReaderSource struct {
	r       io.Reader
	buf     []byte
	pending error
}

// NewReaderSource wraps r
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r, buf: make([]byte, DefaultReadSize)}
}

// Next returns the next chunk read from the underlying reader
func (s *ReaderSource) Next(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if s.pending != nil {
			return "", s.pending
		}

		n, err := s.r.Read(s.buf)
		if err != nil {
			s.pending = err
		}
		if n > 0 {
			return string(s.buf[:n]), nil
		}
		if err == nil {
			// Zero-byte read without error; try again
			continue
		}
	}
}

// Chunk is one message on a channel-backed source
type Chunk struct {
	Text string
	Err  error
}

// ChanSource reads chunks from a channel. A closed channel ends the
// stream; a chunk carrying Err fails it.
type ChanSource struct {
	ch <-chan Chunk
}

// NewChanSource wraps ch
func NewChanSource(ch <-chan Chunk) *ChanSource {
	return &ChanSource{ch: ch}
}

// Next waits for the next chunk or cancellation
func (s *ChanSource) Next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case chunk, ok := <-s.ch:
		if !ok {
			return "", io.EOF
		}
		if chunk.Err != nil {
			return "", chunk.Err
		}
		return chunk.Text, nil
	}
}

// StringsSource replays a fixed list of chunks
type StringsSource struct {
	chunks []string
	pos    int
}

// NewStringsSource returns a source yielding chunks in order, then io.EOF
func NewStringsSource(chunks ...string) *StringsSource {
	return &StringsSource{chunks: chunks}
}

// Next returns the next chunk
func (s *StringsSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.pos >= len(s.chunks) {
		return "", io.EOF
	}
	chunk := s.chunks[s.pos]
	s.pos++
	return chunk, nil
}
