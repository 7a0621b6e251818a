package paper

import (
	"encoding/json"

	"github.com/zeromicro/go-zero/core/logx"
)

// Config is the opaque strategy-config map a portfolio is created with,
// normalized to typed accessors with per-key defaults.
type Config struct {
	raw map[string]interface{}
}

// aliasPairs maps a legacy entry_* key to its enter_* replacement: enter_*
// is the normalized form, entry_* is accepted as an alias with one logged
// warning, and enter_* wins if both are present.
var aliasPairs = map[string]string{
	"entry_rate_threshold":   "enter_rate_threshold",
	"entry_spread_threshold": "enter_spread_threshold",
}

// ParseConfig builds a Config from the opaque JSON/map strategy_config blob.
func ParseConfig(raw map[string]interface{}) Config {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	normalized := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		normalized[k] = v
	}
	for legacy, canonical := range aliasPairs {
		legacyVal, hasLegacy := normalized[legacy]
		_, hasCanonical := normalized[canonical]
		if hasLegacy && !hasCanonical {
			logx.Slowf("paper: strategy config uses deprecated key %q, normalizing to %q", legacy, canonical)
			normalized[canonical] = legacyVal
		} else if hasLegacy && hasCanonical {
			logx.Slowf("paper: strategy config has both %q and %q, %q takes precedence", legacy, canonical, canonical)
		}
	}
	return Config{raw: normalized}
}

// ParseConfigJSON parses the strategy_config column's raw JSON text.
func ParseConfigJSON(text string) (Config, error) {
	if text == "" {
		return ParseConfig(nil), nil
	}
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return Config{}, err
	}
	return ParseConfig(raw), nil
}

func (c Config) float(key string, def float64) float64 {
	v, ok := c.raw[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case json.Number:
		f, err := n.Float64()
		if err == nil {
			return f
		}
	}
	return def
}

func (c Config) intVal(key string, def int) int {
	return int(c.float(key, float64(def)))
}

func (c Config) strings(key string, def []string) []string {
	v, ok := c.raw[key]
	if !ok {
		return def
	}
	list, ok := v.([]interface{})
	if !ok {
		return def
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func (c Config) MaxPositionSizePct() float64   { return c.float("max_position_size_pct", 0.20) }
func (c Config) MaxPositions() int             { return c.intVal("max_positions", 5) }
func (c Config) StopLossPct() float64          { return c.float("stop_loss_pct", 0.10) }
func (c Config) ExitRateThreshold(def float64) float64   { return c.float("exit_rate_threshold", def) }
func (c Config) ExitSpreadThreshold(def float64) float64 { return c.float("exit_spread_threshold", def) }
func (c Config) EnterRateThreshold(def float64) float64   { return c.float("enter_rate_threshold", def) }
func (c Config) EnterSpreadThreshold(def float64) float64 { return c.float("enter_spread_threshold", def) }
func (c Config) AllowedAssets() []string       { return c.strings("allowed_assets", []string{"BTC", "ETH"}) }
func (c Config) TopNByOI() int                 { return c.intVal("top_n_by_oi", 20) }
func (c Config) PositiveRateThreshold() float64 { return c.float("positive_rate_threshold", 0.0003) }
func (c Config) NegativeRateThreshold() float64 { return c.float("negative_rate_threshold", 0.0003) }
