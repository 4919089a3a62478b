package cost

import (
	"fmt"

	"github.com/leofalp/antitok/providers/ai"
)

// ModelCost is the price of one model in USD per million tokens.
//
//	pricing := cost.ModelCost{InputPerMillion: 2.50, OutputPerMillion: 10.00}
//	usd := pricing.Estimate(response.Usage)
type ModelCost struct {
	InputPerMillion  float64 `toml:"input_per_million" json:"input_per_million"`
	OutputPerMillion float64 `toml:"output_per_million" json:"output_per_million"`
}

// IsZero reports whether no price is set.
func (mc ModelCost) IsZero() bool {
	return mc.InputPerMillion == 0 && mc.OutputPerMillion == 0
}

// InputCost prices tokens at the input rate.
func (mc ModelCost) InputCost(tokens int) float64 {
	return float64(tokens) / 1_000_000 * mc.InputPerMillion
}

// OutputCost prices tokens at the output rate.
func (mc ModelCost) OutputCost(tokens int) float64 {
	return float64(tokens) / 1_000_000 * mc.OutputPerMillion
}

// Estimate prices usage. Providers that report only a total are charged at
// the input rate; nil usage costs nothing.
func (mc ModelCost) Estimate(usage *ai.Usage) float64 {
	if usage == nil {
		return 0
	}
	if usage.PromptTokens == 0 && usage.CompletionTokens == 0 {
		return mc.InputCost(usage.TotalTokens)
	}
	return mc.InputCost(usage.PromptTokens) + mc.OutputCost(usage.CompletionTokens)
}

func (mc ModelCost) String() string {
	return fmt.Sprintf("Input: $%.6f/M, Output: $%.6f/M", mc.InputPerMillion, mc.OutputPerMillion)
}
