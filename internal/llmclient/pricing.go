package llmclient

import (
	"github.com/xkilldash9x/uipilot/api/schemas"
	"github.com/xkilldash9x/uipilot/internal/config"
)

// Price converts token usage into USD. A model without pricing, or a call
// that reported no usage at all, yields an unknown cost.
func Price(p *config.PricingConfig, gen schemas.Generation) schemas.Cost {
	if p == nil {
		return schemas.UnknownCost()
	}
	if gen.PromptTokens == 0 && gen.CompletionTokens == 0 {
		return schemas.UnknownCost()
	}
	in := float64(gen.PromptTokens) / 1e6 * p.InputPerMillion
	out := float64(gen.CompletionTokens) / 1e6 * p.OutputPerMillion
	return schemas.KnownCost(in + out)
}
