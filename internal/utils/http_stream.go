package utils

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/leofalp/antitok/providers/observability"
)

// maxSSELineSize is the largest single SSE line accepted (1 MB). bufio.Scanner
// defaults to 64 KiB, which long completions can exceed.
const maxSSELineSize = 1 * 1024 * 1024

// DoPostStream posts body as JSON and returns the response with its body still
// open for SSE consumption. The caller owns the body and must close it. On a
// non-2xx status the body is drained (size capped), closed, and folded into
// the returned error.
func DoPostStream(ctx context.Context, client *http.Client, url string, apiKey string, body any, headers ...HeaderOption) (*http.Response, error) {
	span := observability.SpanFromContext(ctx)

	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	req, bodySize, err := newJSONRequest(ctx, url, apiKey, "text/event-stream", body, headers)
	if err != nil {
		return nil, err
	}

	if span != nil {
		span.AddEvent("http.stream_request.prepared",
			observability.String(observability.AttrHTTPMethod, http.MethodPost),
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPRequestBodySize, bodySize),
		)
	}

	requestStart := time.Now()
	response, err := httpClient.Do(req)
	requestDuration := time.Since(requestStart)
	if err != nil {
		if span != nil {
			span.AddEvent("http.stream_request.error",
				observability.Error(err),
				observability.Duration("http.request.duration", requestDuration),
			)
		}
		return response, fmt.Errorf("error sending stream request: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		defer CloseWithLog(response.Body)
		errorBody, readErr := io.ReadAll(io.LimitReader(response.Body, maxResponseBodySize))
		if readErr != nil {
			return response, fmt.Errorf("non-2xx status %d (failed to read body: %v)", response.StatusCode, readErr)
		}
		return response, fmt.Errorf("non-2xx status %d: %s", response.StatusCode, string(errorBody))
	}

	if span != nil {
		span.AddEvent("http.stream_response.started",
			observability.Int(observability.AttrHTTPStatusCode, response.StatusCode),
			observability.Duration("http.request.duration", requestDuration),
		)
	}

	return response, nil
}

// SSEEvent is one dispatched Server-Sent Event. Name is the value of the last
// "event:" field seen before dispatch and is empty for unnamed events.
type SSEEvent struct {
	Name string
	Data string
}

// SSEScanner reads Server-Sent Events from an io.Reader. Comments and unknown
// fields are skipped, consecutive "data:" lines are joined with newlines, and
// the OpenAI style "[DONE]" sentinel ends the stream.
type SSEScanner struct {
	scanner *bufio.Scanner
}

// NewSSEScanner wraps reader. Lines longer than 1 MB make Next return an error
// wrapping bufio.ErrTooLong.
func NewSSEScanner(reader io.Reader) *SSEScanner {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELineSize)
	return &SSEScanner{scanner: scanner}
}

// Next returns the data payload of the next event, or io.EOF at end of stream.
func (sseScanner *SSEScanner) Next() (string, error) {
	event, err := sseScanner.NextEvent()
	return event.Data, err
}

// NextEvent returns the next complete event. Events without any data lines
// are not dispatched. A trailing event that is not followed by a blank line is
// still returned before io.EOF.
func (sseScanner *SSEScanner) NextEvent() (SSEEvent, error) {
	var (
		name      string
		dataLines []string
	)

	for sseScanner.scanner.Scan() {
		line := sseScanner.scanner.Text()

		if line == "" {
			if len(dataLines) > 0 {
				return SSEEvent{Name: name, Data: strings.Join(dataLines, "\n")}, nil
			}
			name = ""
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimSpace(value)

		switch field {
		case "event":
			name = value
		case "data":
			if value == "[DONE]" {
				return SSEEvent{}, io.EOF
			}
			dataLines = append(dataLines, value)
		}
		// id: and retry: are not used by any provider we talk to.
	}

	if err := sseScanner.scanner.Err(); err != nil {
		return SSEEvent{}, fmt.Errorf("SSE scanner error: %w", err)
	}

	if len(dataLines) > 0 {
		return SSEEvent{Name: name, Data: strings.Join(dataLines, "\n")}, nil
	}

	return SSEEvent{}, io.EOF
}
