// Package cost estimates what a model call costs from its token usage.
//
// Prices are configured per deployment in USD per million tokens; the client
// records the estimate on every completed call when pricing is set.
package cost
