package extract

import (
	"iter"

	"github.com/leofalp/antitok/providers/observability"
)

// Stream is the incremental form of Extract. It owns its buffer and resumes
// scanning where the previous Write stopped. A Stream serves one response and
// is not safe for concurrent use.
type Stream struct {
	opts    options
	scanner *scanner
	buf     string
	base    int // bytes dropped from the front of buf so far
}

// NewStream returns an empty Stream configured by opts.
func NewStream(opts ...Option) *Stream {
	o := applyOptions(opts)
	return &Stream{opts: o, scanner: newScanner(o.mode)}
}

// Write appends chunk and returns the records it completed.
func (s *Stream) Write(chunk string) []Record {
	scanned := len(s.buf)
	s.buf += chunk

	var records []Record
	s.scanner.scan(s.buf, scanned, func(start, end int) {
		record, malformed := s.opts.parse(s.buf[start:end+1], s.base+start)
		if malformed == nil {
			records = append(records, record)
		}
	})

	cut := len(s.buf)
	if s.scanner.start >= 0 {
		cut = s.scanner.start
	}
	s.scanner.shift(cut)
	s.buf = s.buf[cut:]
	s.base += cut

	s.opts.countRecords(len(records))
	return records
}

// Remainder returns the unfinished object, if any.
func (s *Stream) Remainder() string {
	return s.buf
}

// FromChunks extracts records from a chunk sequence. An upstream error is
// yielded once and ends the sequence; records already yielded stand.
// A partial object left when the chunks run out is discarded.
func FromChunks(chunks iter.Seq2[string, error], opts ...Option) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		stream := NewStream(opts...)

		for chunk, err := range chunks {
			if err != nil {
				yield(Record{}, err)
				return
			}
			for _, record := range stream.Write(chunk) {
				if !yield(record, nil) {
					return
				}
			}
		}

		if rest := stream.Remainder(); rest != "" {
			if observer := observability.ObserverFromContext(stream.opts.ctx); observer != nil {
				observer.Debug(stream.opts.ctx, "stream ended inside a record",
					observability.Int(observability.AttrExtractRemainder, len(rest)))
			}
		}
	}
}
