package extract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"

	"github.com/leofalp/antitok/internal/utils"
	"github.com/leofalp/antitok/providers/observability"
)

// Mode selects how braces are counted.
type Mode int

const (
	// ModeQuoteAware ignores braces inside JSON string literals.
	ModeQuoteAware Mode = iota

	// ModeCharacter counts every '{' and '}' byte, so a brace inside a string
	// can close a span early. Kept for compatibility with clients that split
	// the stream this way.
	ModeCharacter
)

const maxLoggedSpan = 200

// Result is the outcome of one Extract call.
type Result struct {
	// Records in the order their closing brace appeared.
	Records []Record

	// Remainder is the buffer from the last unmatched '{' on, or "" when
	// every span closed. Feed it back with the next chunk appended.
	Remainder string

	// Malformed lists spans that balanced but did not parse.
	Malformed []MalformedSpan
}

// Option configures Extract, NewStream and FromChunks.
type Option func(*options)

type options struct {
	mode        Mode
	repair      bool
	onMalformed func(MalformedSpan)
	ctx         context.Context
}

// WithMode sets the brace counting mode. The default is ModeQuoteAware.
func WithMode(mode Mode) Option {
	return func(o *options) { o.mode = mode }
}

// WithMalformedHandler registers a callback invoked for every span that is
// dropped.
func WithMalformedHandler(handler func(MalformedSpan)) Option {
	return func(o *options) { o.onMalformed = handler }
}

// WithRepair runs spans that fail to parse through jsonrepair before giving
// up on them. Useful for models that emit single quotes or trailing commas.
func WithRepair() Option {
	return func(o *options) { o.repair = true }
}

// WithContext attaches a context whose observer receives record counts and
// a warning per malformed span.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

func applyOptions(opts []Option) options {
	o := options{mode: ModeQuoteAware, ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ctx == nil {
		o.ctx = context.Background()
	}
	return o
}

// Extract returns every complete object in buffer plus the unfinished tail.
// It keeps no state between calls, so calling it on a buffer that only ever
// grows at the end is safe; prefer Stream to avoid rescanning.
func Extract(buffer string, opts ...Option) Result {
	o := applyOptions(opts)
	s := newScanner(o.mode)

	var result Result
	s.scan(buffer, 0, func(start, end int) {
		record, malformed := o.parse(buffer[start:end+1], start)
		if malformed != nil {
			result.Malformed = append(result.Malformed, *malformed)
			return
		}
		result.Records = append(result.Records, record)
	})
	if s.start >= 0 {
		result.Remainder = buffer[s.start:]
	}

	o.countRecords(len(result.Records))
	return result
}

// parse decodes one balanced span. A failure is reported and returned as a
// MalformedSpan.
func (o *options) parse(span string, offset int) (Record, *MalformedSpan) {
	record, err := decodeSpan(span)
	if err != nil && o.repair {
		if repaired, repairErr := jsonrepair.JSONRepair(span); repairErr == nil {
			if record, repairErr = decodeSpan(repaired); repairErr == nil {
				err = nil
			}
		}
	}
	if err == nil {
		return record, nil
	}

	malformed := &MalformedSpan{
		Offset: offset,
		Text:   span,
		Err:    fmt.Errorf("%w: %w", ErrMalformedRecord, err),
	}
	o.report(*malformed)
	return Record{}, malformed
}

func decodeSpan(span string) (Record, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(span), &fields); err != nil {
		return Record{}, err
	}
	return Record{Raw: json.RawMessage(span), Fields: fields}, nil
}

func (o *options) report(malformed MalformedSpan) {
	if o.onMalformed != nil {
		o.onMalformed(malformed)
	}

	attrs := []observability.Attribute{
		observability.Int(observability.AttrExtractOffset, malformed.Offset),
		observability.String(observability.AttrExtractSpan, utils.TruncateString(malformed.Text, maxLoggedSpan)),
		observability.Error(malformed.Err),
	}
	if span := observability.SpanFromContext(o.ctx); span != nil {
		span.AddEvent(observability.EventExtractMalformed, attrs...)
	}
	if observer := observability.ObserverFromContext(o.ctx); observer != nil {
		observer.Counter(observability.MetricExtractMalformed).Add(o.ctx, 1)
		observer.Warn(o.ctx, "skipping malformed record", attrs...)
	}
}

func (o *options) countRecords(n int) {
	if n == 0 {
		return
	}
	if observer := observability.ObserverFromContext(o.ctx); observer != nil {
		observer.Counter(observability.MetricExtractRecords).Add(o.ctx, int64(n))
	}
}
