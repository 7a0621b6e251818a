// Package cache namespaces the Redis keys used by the optional read-through
// cache in front of the paper/AI trader GET routes.
package cache

import (
	"strings"
	"time"
)

// Namespace is the Redis key prefix for this service.
const Namespace = "hldesk"

// ReadThroughTTL bounds how stale a cached GET response can be. It is kept
// well under the poll loop's default 30s cadence (internal/config.Config's
// PollInterval) so a cache hit never serves data from more than one missed
// poll cycle ago.
const ReadThroughTTL = 5 * time.Second

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

func PortfolioListKey() string { return formatKey("paper", "portfolios") }

func LeaderboardKey() string { return formatKey("paper", "leaderboard") }

func PortfolioDetailKey(id string) string { return formatKey("paper", "portfolio", id) }

func AiTraderListKey() string { return formatKey("ai", "traders") }

func AiTraderDetailKey(name string) string { return formatKey("ai", "trader", strings.ToLower(name)) }
