package ingest

import "strings"

// DefaultMaxLineBytes bounds a single buffered line
const DefaultMaxLineBytes = 1 << 20

// Line is one complete line cut from the stream
type Line struct {
	Text    string
	Number  int  // 1-based position in the stream
	TooLong bool // content was discarded because it exceeded the limit
}

// LineBuffer accumulates chunks and cuts them into lines on '\n'.
// A trailing '\r' is stripped so CRLF streams behave like LF streams.
type LineBuffer struct {
	pending  strings.Builder
	maxBytes int
	overflow bool
	count    int
}

// NewLineBuffer creates a buffer; maxBytes <= 0 uses DefaultMaxLineBytes
func NewLineBuffer(maxBytes int) *LineBuffer {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxLineBytes
	}
	return &LineBuffer{maxBytes: maxBytes}
}

// Write appends a chunk and returns every line it completed
func (b *LineBuffer) Write(chunk string) []Line {
	var lines []Line
	for {
		idx := strings.IndexByte(chunk, '\n')
		if idx < 0 {
			b.append(chunk)
			return lines
		}
		b.append(chunk[:idx])
		lines = append(lines, b.cut())
		chunk = chunk[idx+1:]
	}
}

// Flush returns the remaining partial line at end of stream, if any
func (b *LineBuffer) Flush() (Line, bool) {
	if b.pending.Len() == 0 && !b.overflow {
		return Line{}, false
	}
	line := b.cut()
	if !line.TooLong && strings.TrimSpace(line.Text) == "" {
		return Line{}, false
	}
	return line, true
}

// Buffered returns the number of bytes waiting for a newline
func (b *LineBuffer) Buffered() int {
	return b.pending.Len()
}

func (b *LineBuffer) append(s string) {
	if b.overflow || s == "" {
		return
	}
	if b.pending.Len()+len(s) > b.maxBytes {
		b.overflow = true
		b.pending.Reset()
		return
	}
	b.pending.WriteString(s)
}

func (b *LineBuffer) cut() Line {
	b.count++
	line := Line{Number: b.count, TooLong: b.overflow}
	if !b.overflow {
		line.Text = strings.TrimSuffix(b.pending.String(), "\r")
	}
	b.pending.Reset()
	b.overflow = false
	return line
}
