package domain

import (
	"context"
	"errors"
)

const tokensToPerK = 1000.0

// CallSurcharge is a small fixed per-call fee added on top of usage-based
// pricing, covering fixed per-call overhead.
const CallSurcharge = 0.00000213

// MeteredCostCalculator implements token-based cost calculation with a fixed
// per-call surcharge.
type MeteredCostCalculator struct {
	pricingRegistry PricingRegistry
}

// NewMeteredCostCalculator creates a new cost calculator.
func NewMeteredCostCalculator(registry PricingRegistry) *MeteredCostCalculator {
	return &MeteredCostCalculator{
		pricingRegistry: registry,
	}
}

// Calculate computes the total price based on token usage and model pricing.
// Unknown models fall back to zero rates, so they are billed the surcharge
// alone until the pricing table is updated: new models are never accidentally
// overbilled, only underbilled.
func (c *MeteredCostCalculator) Calculate(
	ctx context.Context,
	model string,
	usage Usage,
) (float64, error) {
	if model == "" {
		return 0, errors.New("model cannot be empty")
	}

	// If pricing is not found the zero-value config applies (zero rates).
	pricing, _ := c.pricingRegistry.GetPricing(ctx, model)

	inputCost := float64(usage.PromptTokens) / tokensToPerK * pricing.InputCostPer1K
	outputCost := float64(usage.CompletionTokens) / tokensToPerK * pricing.OutputCostPer1K

	return inputCost + outputCost + CallSurcharge, nil
}
