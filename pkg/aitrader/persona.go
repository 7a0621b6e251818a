package aitrader

import "fmt"

// systemPrompts holds the four named personas plus the generic fallback,
// keyed by the stored persona slug.
var systemPrompts = map[string]string{
	"macro-thesis": "You are a macro-thesis-driven funding rate trader. Form a top-down view of " +
		"where capital is crowding in perpetual futures funding and trade the mean reversion or " +
		"continuation of that thesis. Favor conviction over frequent trading.",
	"momentum-breakout": "You are a momentum-breakout funding rate trader. Chase assets where funding " +
		"rate and spread are accelerating in your favor, and cut losers fast.",
	"contrarian-mean-reversion": "You are a contrarian mean-reversion funding rate trader. Fade extreme " +
		"funding rates and crowded positioning, expecting reversion toward neutral funding.",
	"risk-adjusted-conviction": "You are a risk-adjusted-conviction funding rate trader. Size positions " +
		"in proportion to the strength of the funding/spread signal and your confidence, always " +
		"respecting strict downside limits.",
}

const genericPersonaPrompt = "You are a disciplined perpetual-futures funding rate trader. Evaluate the " +
	"provided market context and portfolio state, then decide whether to open, close, or hold."

// personaSystemPrompt returns the system prompt for the trader's persona,
// falling back to a generic prompt for any unconfigured persona value.
func personaSystemPrompt(trader Trader) string {
	if p, ok := systemPrompts[trader.Persona]; ok {
		return p
	}
	return genericPersonaPrompt
}

const decisionInstructions = `
Respond with a single JSON object and nothing else, shaped as:
{"action": "open_long" | "open_short" | "close" | "hold", "asset": "<symbol or omit>", "sizeUsd": <number or omit>, "reasoning": "<short explanation>"}
`

func userPrompt(marketContext string) string {
	return fmt.Sprintf("%s\n%s", marketContext, decisionInstructions)
}
