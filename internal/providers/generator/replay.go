package generator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/ingest"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/session"
)

// Encoding is the detected container of a trace
type Encoding string

const (
	EncodingPlain Encoding = "plain"
	EncodingGzip  Encoding = "gzip"
	EncodingZstd  Encoding = "zstd"
)

// detectBytes is how much of a trace is sniffed for its format
const detectBytes = 3072

// ErrUnsupportedTrace is returned for traces that are neither text nor a
// supported compression format
var ErrUnsupportedTrace = errors.New("unsupported trace format")

// OpenTrace opens a trace file and returns its decoded text stream
func OpenTrace(path string) (io.ReadCloser, Encoding, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open trace: %w", err)
	}

	rc, enc, err := DecodeTrace(file)
	if err != nil {
		file.Close()
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return multiCloser{Reader: rc, closers: []io.Closer{rc, file}}, enc, nil
}

// DecodeTrace sniffs r and unwraps gzip or zstd compression. Closing the
// result does not close r.
func DecodeTrace(r io.Reader) (io.ReadCloser, Encoding, error) {
	br := bufio.NewReaderSize(r, detectBytes)
	head, err := br.Peek(detectBytes)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, "", fmt.Errorf("read trace: %w", err)
	}

	mtype := mimetype.Detect(head)
	switch {
	case mtype.Is("application/gzip"):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, "", fmt.Errorf("gzip: %w", err)
		}
		return gz, EncodingGzip, nil

	case mtype.Is("application/zstd"):
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, "", fmt.Errorf("zstd: %w", err)
		}
		return dec.IOReadCloser(), EncodingZstd, nil

	case isText(mtype):
		return io.NopCloser(br), EncodingPlain, nil

	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedTrace, mtype.String())
	}
}

func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m multiCloser) Close() error {
	var errs []error
	for _, c := range m.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ReplayOption configures a Replay
type ReplayOption func(*Replay)

// WithChunkSize sets how many bytes each chunk carries
func WithChunkSize(n int) ReplayOption {
	return func(r *Replay) {
		if n > 0 {
			r.chunkSize = n
		}
	}
}

// WithDelay pauses between chunks to mimic a live stream
func WithDelay(d time.Duration) ReplayOption {
	return func(r *Replay) {
		r.delay = d
	}
}

// Replay streams a recorded trace file regardless of the prompt
type Replay struct {
	path      string
	chunkSize int
	delay     time.Duration
}

// NewReplay creates a replay generator for path
func NewReplay(path string, opts ...ReplayOption) *Replay {
	r := &Replay{path: path, chunkSize: ingest.DefaultReadSize}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Generate opens the trace
func (r *Replay) Generate(_ context.Context, _ session.Input) (ingest.Source, error) {
	rc, _, err := OpenTrace(r.path)
	if err != nil {
		return nil, err
	}
	return NewPacedSource(rc, r.chunkSize, r.delay), nil
}

const maxEmptyReads = 100

// PacedSource reads fixed-size chunks with an optional pause between them
type PacedSource struct {
	r     io.ReadCloser
	buf   []byte
	delay time.Duration
	first bool
	done  bool
	// pending is the read error that ended the last chunk; reported on the
	// following call
	pending error
}

// NewPacedSource wraps r; it is closed when the stream ends
func NewPacedSource(r io.ReadCloser, chunkSize int, delay time.Duration) *PacedSource {
	if chunkSize <= 0 {
		chunkSize = ingest.DefaultReadSize
	}
	return &PacedSource{r: r, buf: make([]byte, chunkSize), delay: delay, first: true}
}

// Next waits out the delay, then reads one chunk
func (s *PacedSource) Next(ctx context.Context) (string, error) {
	if s.done {
		return "", io.EOF
	}
	if s.delay > 0 && !s.first {
		timer := time.NewTimer(s.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.close()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	s.first = false

	if err := ctx.Err(); err != nil {
		s.close()
		return "", err
	}

	if s.pending != nil {
		err := s.pending
		s.close()
		return "", err
	}

	n, err := s.fill()
	if n > 0 {
		s.pending = err
		return string(s.buf[:n]), nil
	}
	s.close()
	if err == nil {
		return "", io.ErrNoProgress
	}
	return "", err
}

// fill reads until the buffer is full or the reader fails. A clean end of
// stream is io.EOF; decoder failures such as a truncated gzip member pass
// through unchanged.
func (s *PacedSource) fill() (int, error) {
	n, empty := 0, 0
	for n < len(s.buf) {
		m, err := s.r.Read(s.buf[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			if empty++; empty >= maxEmptyReads {
				return n, io.ErrNoProgress
			}
		}
	}
	return n, nil
}

func (s *PacedSource) close() {
	if !s.done {
		s.done = true
		s.r.Close()
	}
}
