package extract

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/leofalp/antitok/providers/observability"
	"github.com/leofalp/antitok/providers/observability/slogobs"
)

func fields(records []Record) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, record := range records {
		out[i] = record.Fields
	}
	return out
}

func TestExtract_SingleObject(t *testing.T) {
	result := Extract(`{"id":"1","title":"A"}`)

	want := []map[string]any{{"id": "1", "title": "A"}}
	if diff := cmp.Diff(want, fields(result.Records)); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	if result.Remainder != "" {
		t.Errorf("expected empty remainder, got %q", result.Remainder)
	}
	if string(result.Records[0].Raw) != `{"id":"1","title":"A"}` {
		t.Errorf("expected raw span preserved, got %s", result.Records[0].Raw)
	}
}

func TestExtract_BackToBackInOrder(t *testing.T) {
	result := Extract("{\"n\":1}{\"n\":2}\n\n  {\"n\":3}")

	if len(result.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(result.Records))
	}
	for i, record := range result.Records {
		if record.Fields["n"] != float64(i+1) {
			t.Errorf("record %d: expected n=%d, got %v", i, i+1, record.Fields["n"])
		}
	}
}

func TestExtract_TruncatedObjectReturnedUnchanged(t *testing.T) {
	buffer := `{"id":"1","tit`
	result := Extract(buffer)

	if len(result.Records) != 0 {
		t.Errorf("expected no records, got %d", len(result.Records))
	}
	if result.Remainder != buffer {
		t.Errorf("expected remainder %q, got %q", buffer, result.Remainder)
	}
}

func TestExtract_StrayTextDropped(t *testing.T) {
	result := Extract(`Here are your facts: {"id":"1"} and more {"id":"2`)

	if len(result.Records) != 1 || result.Records[0].String("id") != "1" {
		t.Errorf("expected one record with id 1, got %+v", result.Records)
	}
	if result.Remainder != `{"id":"2` {
		t.Errorf("expected remainder from last unmatched brace, got %q", result.Remainder)
	}

	if result := Extract("no objects here } at all"); len(result.Records) != 0 || result.Remainder != "" {
		t.Errorf("expected nothing from brace-free text, got %+v", result)
	}
}

func TestExtract_MalformedSpanIsSkipped(t *testing.T) {
	var signals []MalformedSpan
	result := Extract(`{"id":"1"}{bad json}`, WithMalformedHandler(func(m MalformedSpan) {
		signals = append(signals, m)
	}))

	if len(result.Records) != 1 || result.Records[0].String("id") != "1" {
		t.Errorf("expected the valid record, got %+v", result.Records)
	}
	if len(signals) != 1 {
		t.Fatalf("expected one malformed signal, got %d", len(signals))
	}
	if len(result.Malformed) != 1 {
		t.Errorf("expected malformed span in result, got %d", len(result.Malformed))
	}
	if signals[0].Offset != 10 || signals[0].Text != "{bad json}" {
		t.Errorf("expected span {bad json} at offset 10, got %q at %d", signals[0].Text, signals[0].Offset)
	}
	if !errors.Is(signals[0], ErrMalformedRecord) {
		t.Errorf("expected ErrMalformedRecord, got %v", signals[0].Err)
	}
	if result.Remainder != "" {
		t.Errorf("expected empty remainder, got %q", result.Remainder)
	}
}

func TestExtract_MalformedDoesNotStopLaterRecords(t *testing.T) {
	result := Extract(`{nope}{"id":"2"}`)
	if len(result.Records) != 1 || result.Records[0].String("id") != "2" {
		t.Errorf("expected record after malformed span, got %+v", result.Records)
	}
}

func TestExtract_NestedObjects(t *testing.T) {
	result := Extract(`{"id":"1","meta":{"tags":{"a":1}}}`)
	if len(result.Records) != 1 {
		t.Fatalf("expected one record, got %d", len(result.Records))
	}
	meta, ok := result.Records[0].Fields["meta"].(map[string]any)
	if !ok || meta["tags"] == nil {
		t.Errorf("expected nested fields, got %v", result.Records[0].Fields)
	}
}

func TestExtract_BracesInsideStrings(t *testing.T) {
	tests := []struct {
		name          string
		buffer        string
		mode          Mode
		wantRecords   int
		wantMalformed int
		wantRemainder string
	}{
		{"closing brace, quote aware", `{"t":"a } b"}`, ModeQuoteAware, 1, 0, ""},
		{"closing brace, character", `{"t":"a } b"}`, ModeCharacter, 0, 1, ""},
		{"opening brace, quote aware", `{"t":"{"}`, ModeQuoteAware, 1, 0, ""},
		{"opening brace, character", `{"t":"{"}`, ModeCharacter, 0, 0, `{"t":"{"}`},
		{"escaped quote, quote aware", `{"t":"say \"}\" ok"}`, ModeQuoteAware, 1, 0, ""},
		{"escaped backslash, quote aware", `{"t":"dir\\"}{"u":1}`, ModeQuoteAware, 2, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Extract(tt.buffer, WithMode(tt.mode))
			if len(result.Records) != tt.wantRecords {
				t.Errorf("expected %d records, got %d", tt.wantRecords, len(result.Records))
			}
			if len(result.Malformed) != tt.wantMalformed {
				t.Errorf("expected %d malformed spans, got %d", tt.wantMalformed, len(result.Malformed))
			}
			if result.Remainder != tt.wantRemainder {
				t.Errorf("expected remainder %q, got %q", tt.wantRemainder, result.Remainder)
			}
		})
	}
}

func TestExtract_ThreeChunkFeed(t *testing.T) {
	chunks := []string{`{"id":"1","tit`, "le\":\"A\"}\n{\"id\":\"2\"", `,"title":"B"}`}

	var buffer string
	var got []map[string]any
	for _, chunk := range chunks {
		result := Extract(buffer + chunk)
		buffer = result.Remainder
		got = append(got, fields(result.Records)...)
	}

	want := []map[string]any{
		{"id": "1", "title": "A"},
		{"id": "2", "title": "B"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	if buffer != "" {
		t.Errorf("expected empty final remainder, got %q", buffer)
	}
}

func TestExtract_ChunkBoundaryIndependence(t *testing.T) {
	input := "{\"id\":\"1\",\"title\":\"A {x}\"}\n{\"id\":\"2\",\"title\":\"B \\\"q\\\"\"}\n"
	want := fields(Extract(input).Records)
	if len(want) != 2 {
		t.Fatalf("expected 2 records from whole input, got %d", len(want))
	}

	for i := 0; i <= len(input); i++ {
		first := Extract(input[:i])
		second := Extract(first.Remainder + input[i:])

		got := append(fields(first.Records), fields(second.Records)...)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("split at %d (-want +got):\n%s", i, diff)
		}
		if second.Remainder != "" {
			t.Errorf("split at %d: expected empty remainder, got %q", i, second.Remainder)
		}
	}
}

func TestExtract_WithRepair(t *testing.T) {
	buffer := `{'id': '1', title: 'A',}`

	if result := Extract(buffer); len(result.Records) != 0 || len(result.Malformed) != 1 {
		t.Fatalf("expected malformed span without repair, got %+v", result)
	}

	result := Extract(buffer, WithRepair())
	if len(result.Records) != 1 {
		t.Fatalf("expected repaired record, got %+v", result)
	}
	if result.Records[0].String("title") != "A" {
		t.Errorf("expected title A, got %v", result.Records[0].Fields)
	}
}

func TestDecode(t *testing.T) {
	type topic struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}

	result := Extract(`{"id":"1","title":"Octopus","extra":true}`)
	got, err := Decode[topic](result.Records[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(topic{ID: "1", Title: "Octopus"}, got); diff != "" {
		t.Errorf("decode mismatch (-want +got):\n%s", diff)
	}

	if _, err := Decode[[]string](result.Records[0]); err == nil {
		t.Error("expected error decoding an object into a slice")
	}
}

func TestRecord_StringMissingOrWrongType(t *testing.T) {
	record := Extract(`{"n":1}`).Records[0]
	if record.String("n") != "" || record.String("missing") != "" {
		t.Error("expected empty strings for non-string and missing fields")
	}
}

func TestExtract_WithContextReportsToObserver(t *testing.T) {
	var out bytes.Buffer
	observer := slogobs.New(
		slogobs.WithOutput(&out),
		slogobs.WithFormat(slogobs.FormatJSON),
		slogobs.WithLevel(slog.LevelDebug),
	)
	ctx := observability.ContextWithObserver(context.Background(), observer)

	Extract(`{"a":1}{broken}{"b":2}`, WithContext(ctx))

	if got := observer.CounterValue(observability.MetricExtractRecords); got != 2 {
		t.Errorf("expected 2 records counted, got %d", got)
	}
	if got := observer.CounterValue(observability.MetricExtractMalformed); got != 1 {
		t.Errorf("expected 1 malformed counted, got %d", got)
	}
	if !strings.Contains(out.String(), "skipping malformed record") {
		t.Errorf("expected warning in log output, got %s", out.String())
	}
	if !strings.Contains(out.String(), observability.AttrExtractOffset) {
		t.Errorf("expected offset attribute in log output, got %s", out.String())
	}
}
