package aitrader

import "strings"

// decisionPayload is the wire shape the LLM is instructed to emit. It also
// doubles as the schema source for structured output: the llm package
// derives a JSON schema from this struct's fields and tags.
type decisionPayload struct {
	Action    string   `json:"action"`
	Asset     string   `json:"asset,omitempty"`
	SizeUsd   *float64 `json:"sizeUsd,omitempty"`
	Reasoning string   `json:"reasoning"`
}

// validateDecision turns a decoded decisionPayload into a Decision,
// downgrading to hold on any value the engine can't act on.
func validateDecision(payload decisionPayload) Decision {
	action := Action(strings.TrimSpace(payload.Action))
	switch action {
	case ActionOpenLong, ActionOpenShort, ActionClose, ActionHold:
	default:
		return holdDecision("unrecognized action: " + payload.Action)
	}

	d := Decision{Action: action, Reasoning: strings.TrimSpace(payload.Reasoning)}
	if asset := strings.TrimSpace(payload.Asset); asset != "" {
		d.Asset = &asset
	}
	d.SizeUsd = payload.SizeUsd
	return d
}

func holdDecision(reason string) Decision {
	return Decision{Action: ActionHold, Reasoning: reason}
}
