package observability

// Attribute, span, event and metric names shared by every component so log
// lines and traces can be correlated across packages.

// --- LLM ---

const (
	AttrLLMProvider     = "llm.provider"
	AttrLLMModel        = "llm.model"
	AttrLLMEndpoint     = "llm.endpoint"
	AttrLLMResponseID   = "llm.response.id"
	AttrLLMFinishReason = "llm.finish_reason"
	AttrLLMTemperature  = "llm.temperature"
	AttrLLMStreaming    = "llm.streaming"
	AttrLLMMaxTokens    = "llm.max_tokens" // #nosec G101 -- LLM tokens, not a credential

	AttrLLMTokensPrompt     = "llm.tokens.prompt"     // #nosec G101 -- LLM tokens, not a credential
	AttrLLMTokensCompletion = "llm.tokens.completion" // #nosec G101 -- LLM tokens, not a credential
	AttrLLMTokensTotal      = "llm.tokens.total"      // #nosec G101 -- LLM tokens, not a credential

	// AttrLLMCostUSD is the estimated price of one call.
	AttrLLMCostUSD = "llm.cost.usd"

	AttrRequestMessagesCount = "request.messages_count"
	AttrResponseContent      = "response.content"
)

// --- HTTP (outbound calls and inbound server requests) ---

const (
	AttrHTTPMethod           = "http.method"
	AttrHTTPStatusCode       = "http.status_code"
	AttrHTTPURL              = "http.url"
	AttrHTTPRoute            = "http.route"
	AttrHTTPClientAddr       = "http.client_addr"
	AttrHTTPRequestID        = "http.request_id"
	AttrHTTPRequestBodySize  = "http.request.body.size"
	AttrHTTPResponseBodySize = "http.response.body.size"
)

// --- Record extraction ---

const (
	// AttrExtractOffset is the buffer offset where a malformed span started.
	AttrExtractOffset = "extract.offset"

	// AttrExtractSpan is the (truncated) text of a malformed span.
	AttrExtractSpan = "extract.span"

	// AttrExtractRecords is the number of records produced by a stream.
	AttrExtractRecords = "extract.records"

	// AttrExtractRemainder is the size of the unconsumed tail at stream end.
	AttrExtractRemainder = "extract.remainder"
)

// --- Content service ---

const (
	AttrContentOperation = "content.operation"
	AttrContentLanguage  = "content.language"
	AttrContentTopicID   = "content.topic.id"
	AttrContentTitle     = "content.topic.title"
	AttrContentCount     = "content.count"
	AttrContentSkipped   = "content.skipped"
)

// --- Cache ---

const (
	AttrCacheKey     = "cache.key"
	AttrCacheHit     = "cache.hit"
	AttrCacheBackend = "cache.backend"
)

// --- General ---

const (
	AttrError             = "error"
	AttrErrorType         = "error.type"
	AttrDuration          = "duration"
	AttrStatus            = "status"
	AttrStatusDescription = "status_description"
)

// --- Span names ---

const (
	SpanClientSendMessage = "client.send_message"
	SpanClientStream      = "client.stream"
	SpanContentOperation  = "content.operation"
	SpanHTTPServerRequest = "http.server.request"
)

// --- Event names ---

const (
	EventLLMRequestStart  = "llm.request.start"
	EventLLMRequestEnd    = "llm.request.end"
	EventTokensReceived   = "llm.tokens.received" // #nosec G101 -- LLM tokens, not a credential
	EventExtractMalformed = "extract.malformed"
	EventExtractRecord    = "extract.record"
	EventCacheLookup      = "cache.lookup"
)

// --- Metric names ---

const (
	MetricClientRequestCount     = "antitok.client.request.count"
	MetricClientRequestDuration  = "antitok.client.request.duration"
	MetricClientTokensTotal      = "antitok.client.tokens.total"
	MetricClientTokensPrompt     = "antitok.client.tokens.prompt"
	MetricClientTokensCompletion = "antitok.client.tokens.completion"
	MetricClientCostUSD          = "antitok.client.cost.usd"

	MetricExtractRecords   = "antitok.extract.records"
	MetricExtractMalformed = "antitok.extract.malformed"

	MetricServerRequestCount    = "antitok.server.request.count"
	MetricServerRequestDuration = "antitok.server.request.duration"
	MetricServerRateLimited     = "antitok.server.rate_limited"
)
