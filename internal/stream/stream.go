// Package stream provides the binary transport type handed around by the
// datastore layer. A Stream is a lazy, single-pass producer of byte chunks
// with exactly two terminal states: exhausted (fully consumed) or closed
// (abandoned early). Whichever state is reached first releases the
// underlying resource exactly once.
package stream

import (
	"bytes"
	"io"
)

const readChunkSize = 32 * 1024

// Stream is a sequential producer of byte chunks. It is not safe for
// concurrent use; a consumer either drains it (Collect or Next until io.EOF)
// or abandons it with Close before discarding it.
type Stream struct {
	next    func() ([]byte, error)
	release func() error
	done    bool
}

// New builds a Stream from a chunk producer. The producer returns io.EOF
// when no chunks remain; any other error closes the stream and is surfaced
// to the consumer.
func New(next func() ([]byte, error), opts ...Option) *Stream {
	s := &Stream{next: next}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Option configures a Stream at construction.
type Option func(*Stream)

// WithRelease attaches a resource-release hook invoked exactly once when the
// stream reaches either terminal state.
func WithRelease(fn func() error) Option {
	return func(s *Stream) { s.release = fn }
}

// FromBytes builds a Stream producing the given buffer as a single chunk.
func FromBytes(b []byte) *Stream {
	return FromChunks([][]byte{b})
}

// FromChunks builds a Stream over a fixed sequence of chunks.
func FromChunks(chunks [][]byte) *Stream {
	i := 0
	return New(func() ([]byte, error) {
		if i >= len(chunks) {
			return nil, io.EOF
		}
		c := chunks[i]
		i++
		return c, nil
	})
}

// FromReader builds a Stream over an io.Reader. If the reader also
// implements io.Closer it is closed when the stream terminates.
func FromReader(r io.Reader) *Stream {
	buf := make([]byte, readChunkSize)
	var pending error
	s := New(func() ([]byte, error) {
		if pending != nil {
			return nil, pending
		}
		for {
			n, err := r.Read(buf)
			if n > 0 {
				chunk := append([]byte(nil), buf[:n]...)
				if err != nil {
					pending = err
				}
				return chunk, nil
			}
			if err != nil {
				return nil, err
			}
		}
	})
	if c, ok := r.(io.Closer); ok {
		s.release = c.Close
	}
	return s
}

// FromChannel builds a Stream over an asynchronous chunk source. The stream
// is exhausted when the channel is closed.
func FromChannel(ch <-chan []byte) *Stream {
	return New(func() ([]byte, error) {
		chunk, ok := <-ch
		if !ok {
			return nil, io.EOF
		}
		return chunk, nil
	})
}

// Next returns the next chunk, or io.EOF once the stream is exhausted or has
// been closed. Exhaustion releases the underlying resource; a release
// failure is reported in place of the final io.EOF.
func (s *Stream) Next() ([]byte, error) {
	if s.done {
		return nil, io.EOF
	}
	chunk, err := s.next()
	if err != nil {
		rerr := s.terminate()
		if err == io.EOF && rerr != nil {
			return nil, rerr
		}
		return nil, err
	}
	return chunk, nil
}

// Collect drains the remaining chunks into a single buffer, leaving the
// stream exhausted. On a producer error the stream is closed and the error
// returned.
func (s *Stream) Collect() ([]byte, error) {
	var buf bytes.Buffer
	for {
		chunk, err := s.Next()
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
		buf.Write(chunk)
	}
}

// Close abandons the stream. It is idempotent: the release hook runs at most
// once across Close calls and exhaustion.
func (s *Stream) Close() error {
	return s.terminate()
}

func (s *Stream) terminate() error {
	if s.done {
		return nil
	}
	s.done = true
	if s.release != nil {
		return s.release()
	}
	return nil
}
