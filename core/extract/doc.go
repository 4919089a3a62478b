// Package extract pulls complete JSON objects out of a text buffer that is
// still growing, such as the content deltas of a streaming LLM response.
//
// A model asked for "one JSON object per line" rarely delivers chunk
// boundaries that line up with objects. [Extract] scans a buffer for
// brace-balanced spans, parses each one, and hands back the records together
// with the unfinished tail so the caller can append the next chunk to it:
//
//	var buffer string
//	for chunk, err := range stream.Text() {
//		if err != nil {
//			return err
//		}
//		result := extract.Extract(buffer + chunk)
//		buffer = result.Remainder
//		for _, record := range result.Records {
//			show(record)
//		}
//	}
//
// [Stream] does the same without rescanning bytes it has already seen, and
// [FromChunks] adapts it to iter.Seq2. Spans that balance but are not valid
// JSON are dropped and reported through [WithMalformedHandler], the observer
// carried by [WithContext], and Result.Malformed. They never stop the stream.
//
// By default braces inside string literals are ignored. [WithMode] with
// [ModeCharacter] counts every brace character instead.
package extract
