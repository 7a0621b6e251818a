package aitrader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"hldesk-api/pkg/aggregator"
	"hldesk-api/pkg/llm"
)

// maxConsecutiveFailures is the number of back-to-back LLM call failures
// for one agent before the engine escalates beyond its normal error log.
const maxConsecutiveFailures = 3

// Store is the persistence dependency the engine needs.
type Store interface {
	FindTraderByName(ctx context.Context, name string) (*Trader, error)
	OpenPositions(ctx context.Context, traderID string) ([]Position, error)
	UpdatePositionFunding(ctx context.Context, positionID string, totalFundingCollected float64, lastFundingAt int64) error
	ClosePosition(ctx context.Context, positionID string, exitPrice, realizedPnl float64, closedAt int64) error
	InsertPosition(ctx context.Context, pos Position) (string, error)
	InsertDecision(ctx context.Context, traderID string, d Decision) (string, error)
	RecordConversation(ctx context.Context, traderID, decisionID string, messages []ConversationMessage) error
	UpdateTraderCash(ctx context.Context, traderID string, cashBalance float64) error
}

// Engine runs one decision cycle per agent per call.
type Engine struct {
	store Store
	llm   llm.LLMClient

	mu            sync.Mutex
	failureStreak map[string]int
}

func NewEngine(store Store, client llm.LLMClient) *Engine {
	return &Engine{store: store, llm: client, failureStreak: make(map[string]int)}
}

// RunAgentCycle runs exactly one decision for the named agent. Exactly one
// Decision is returned and exactly one AiDecision row is persisted,
// regardless of which path through the cycle fires.
func (e *Engine) RunAgentCycle(ctx context.Context, name string, result *aggregator.AggregatedResult) (d Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("aitrader: agent %s cycle panicked: %v", name, r)
			d, err = holdDecision(fmt.Sprintf("internal error: %v", r)), nil
		}
	}()

	trader, err := e.store.FindTraderByName(ctx, name)
	if err != nil {
		return Decision{}, err
	}

	positions, err := e.store.OpenPositions(ctx, trader.ID)
	if err != nil {
		return Decision{}, err
	}

	spreadByAsset := make(map[string]aggregator.FundingSpread, len(result.Spreads))
	for _, s := range result.Spreads {
		spreadByAsset[s.Asset] = s
	}
	now := time.Now()

	positions = e.accrueFunding(ctx, trader, positions, spreadByAsset, now)

	if decision, closed := e.checkStopLoss(ctx, trader, positions, spreadByAsset, now); closed {
		e.persistDecision(ctx, trader, decision, nil)
		return decision, nil
	}

	marketContext := buildMarketContext(result, *trader, positions)
	decision, messages := e.decide(ctx, *trader, marketContext)
	decision = e.execute(ctx, trader, positions, decision, spreadByAsset, now)

	e.persistDecision(ctx, trader, decision, messages)
	if err := e.store.UpdateTraderCash(ctx, trader.ID, trader.CashBalance); err != nil {
		logx.Errorf("aitrader: persist cash balance for trader %s failed: %v", trader.ID, err)
	}
	return decision, nil
}

// accrueFunding mirrors pkg/paper's funding-accrual formula and incremental
// cash credit, applied across every open position.
func (e *Engine) accrueFunding(ctx context.Context, trader *Trader, positions []Position, spreadByAsset map[string]aggregator.FundingSpread, now time.Time) []Position {
	for i := range positions {
		pos := &positions[i]
		spread, ok := spreadByAsset[pos.Asset]
		if !ok {
			continue
		}
		deltaHours := (now.UnixMilli() - pos.LastFundingAt) / int64(time.Hour/time.Millisecond)
		if deltaHours <= 0 {
			continue
		}
		hourlyRate := spread.Primary.Rate8h / 8
		direction := 1.0
		if pos.Direction == DirectionLong {
			direction = -1.0
		}
		earned := pos.SizeUsd * hourlyRate * float64(deltaHours) * direction

		pos.TotalFundingCollected += earned
		pos.LastFundingAt += deltaHours * int64(time.Hour/time.Millisecond)
		trader.CashBalance += earned

		if err := e.store.UpdatePositionFunding(ctx, pos.ID, pos.TotalFundingCollected, pos.LastFundingAt); err != nil {
			logx.Errorf("aitrader: persist funding accrual for position %s failed: %v", pos.ID, err)
		}
	}
	return positions
}

// checkStopLoss closes at most one position — the first breach found — and
// terminates the cycle without calling the LLM. A cycle produces exactly
// one decision, so a stop-loss close preempts the agent's own turn.
func (e *Engine) checkStopLoss(ctx context.Context, trader *Trader, positions []Position, spreadByAsset map[string]aggregator.FundingSpread, now time.Time) (Decision, bool) {
	for _, pos := range positions {
		spread, ok := spreadByAsset[pos.Asset]
		if !ok {
			continue
		}
		mark := markPrice(spread)
		pricePct := positionPricePct(pos, mark)
		if pricePct >= -stopLossPct {
			continue
		}
		realizedPnl, cashCredit := closeAccounting(pos, mark)
		trader.CashBalance += cashCredit

		if err := e.store.ClosePosition(ctx, pos.ID, mark, realizedPnl, now.UnixMilli()); err != nil {
			logx.Errorf("aitrader: stop-loss close for position %s failed: %v", pos.ID, err)
		}
		if err := e.store.UpdateTraderCash(ctx, trader.ID, trader.CashBalance); err != nil {
			logx.Errorf("aitrader: persist cash balance for trader %s failed: %v", trader.ID, err)
		}
		asset := pos.Asset
		return Decision{
			Action: ActionClose, Asset: &asset,
			Reasoning: fmt.Sprintf("stop-loss: price moved %.2f%% against %s position", pricePct*100, pos.Direction),
		}, true
	}
	return Decision{}, false
}

func positionPricePct(p Position, mark float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	if p.Direction == DirectionShort {
		return (p.EntryPrice - mark) / p.EntryPrice
	}
	return (mark - p.EntryPrice) / p.EntryPrice
}

// closeAccounting returns (realizedPnl, cashCredit): realizedPnl is the full
// economic figure (includes funding, for reporting); cashCredit excludes
// funding since it was already credited to cash incrementally as it accrued.
func closeAccounting(p Position, exitPrice float64) (realizedPnl, cashCredit float64) {
	var priceReturn float64
	if p.EntryPrice != 0 {
		if p.Direction == DirectionLong {
			priceReturn = (exitPrice - p.EntryPrice) / p.EntryPrice * p.SizeUsd
		} else {
			priceReturn = (p.EntryPrice - exitPrice) / p.EntryPrice * p.SizeUsd
		}
	}
	entryFee := p.SizeUsd * entryFeeRate
	exitFee := p.SizeUsd * exitFeeRate
	realizedPnl = priceReturn + p.TotalFundingCollected - entryFee - exitFee
	cashCredit = p.SizeUsd + priceReturn - exitFee
	return realizedPnl, cashCredit
}

// decide calls the LLM for a structured decision and returns it along with
// the prompt/response messages exchanged, so the caller can persist a
// conversation trail. On persistent failure it downgrades to hold with the
// error as reasoning.
func (e *Engine) decide(ctx context.Context, trader Trader, marketContext string) (Decision, []ConversationMessage) {
	if e.llm == nil {
		return holdDecision("llm client not configured"), nil
	}

	systemPrompt := personaSystemPrompt(trader)
	userMsg := userPrompt(marketContext)
	req := &llm.ChatRequest{
		Model:       trader.Model,
		Temperature: floatPtr(0.7),
		MaxTokens:   intPtr(500),
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMsg},
		},
	}
	messages := []ConversationMessage{
		{Role: "system", Content: systemPrompt, Digest: llm.DigestString(systemPrompt)},
		{Role: "user", Content: userMsg, Digest: llm.DigestString(userMsg)},
	}
	logx.Infof("aitrader: agent %s prompt digest=%s", trader.Name, messages[1].Digest)
	logx.Debugf("aitrader: agent %s prompt=%s", trader.Name, userMsg)

	payload, err := e.callWithRetry(ctx, req)
	if err != nil {
		e.trackFailure(trader.Name, err)
		return holdDecision(err.Error()), messages
	}
	e.resetFailure(trader.Name)

	if raw, marshalErr := json.Marshal(payload); marshalErr == nil {
		messages = append(messages, ConversationMessage{Role: "assistant", Content: string(raw), Digest: llm.DigestString(string(raw))})
	}
	return validateDecision(*payload), messages
}

func (e *Engine) callWithRetry(ctx context.Context, req *llm.ChatRequest) (*decisionPayload, error) {
	payload, err := e.callOnce(ctx, req)
	if err == nil {
		return payload, nil
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	logx.Slowf("aitrader: llm call timed out, retrying once")
	return e.callOnce(ctx, req)
}

func (e *Engine) callOnce(ctx context.Context, req *llm.ChatRequest) (*decisionPayload, error) {
	callCtx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()
	var payload decisionPayload
	if _, err := e.llm.ChatStructured(callCtx, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// trackFailure counts consecutive LLM failures per agent and escalates to a
// slow-log once the streak crosses maxConsecutiveFailures, since a lone
// failure is routine (network blip, provider hiccup) but a run of them
// usually means the agent's model or credentials need attention.
func (e *Engine) trackFailure(name string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failureStreak[name]++
	if streak := e.failureStreak[name]; streak >= maxConsecutiveFailures {
		logx.Slowf("aitrader: agent %s has failed %d consecutive LLM calls: %v", name, streak, err)
	}
}

func (e *Engine) resetFailure(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.failureStreak, name)
}

// execute applies the decision's state mutation, downgrading to hold
// whenever the requested action can't be carried out as-is.
func (e *Engine) execute(ctx context.Context, trader *Trader, positions []Position, d Decision, spreadByAsset map[string]aggregator.FundingSpread, now time.Time) Decision {
	switch d.Action {
	case ActionOpenLong, ActionOpenShort:
		return e.executeOpen(ctx, trader, positions, d, spreadByAsset, now)
	case ActionClose:
		return e.executeClose(ctx, trader, positions, d, spreadByAsset, now)
	default:
		return d
	}
}

func (e *Engine) executeOpen(ctx context.Context, trader *Trader, positions []Position, d Decision, spreadByAsset map[string]aggregator.FundingSpread, now time.Time) Decision {
	if d.Asset == nil {
		return holdDecision("open decision missing asset")
	}
	asset := *d.Asset
	if len(positions) >= maxPositions {
		return holdDecision("max open positions reached")
	}
	for _, p := range positions {
		if p.Asset == asset {
			return holdDecision("position already open in " + asset)
		}
	}
	spread, ok := spreadByAsset[asset]
	if !ok {
		return holdDecision("no market data for " + asset)
	}

	totalValue := trader.CashBalance
	for _, p := range positions {
		totalValue += p.SizeUsd
	}
	requested := totalValue * sizeCapPct
	if d.SizeUsd != nil {
		requested = math.Min(*d.SizeUsd, totalValue*sizeCapPct)
	}
	fee := requested * entryFeeRate
	if requested-fee < minPositionUsd || trader.CashBalance < requested+fee {
		return holdDecision("post-fee size below minimum or insufficient cash")
	}

	direction := DirectionLong
	if d.Action == ActionOpenShort {
		direction = DirectionShort
	}
	mark := markPrice(spread)
	pos := Position{
		TraderID: trader.ID, Asset: asset, Direction: direction, SizeUsd: requested,
		EntryRate8h: spread.Primary.Rate8h, EntryPrice: mark, LastFundingAt: now.UnixMilli(),
		OpenedAt: now.UnixMilli(), IsOpen: true, FeesPaid: fee,
	}
	if _, err := e.store.InsertPosition(ctx, pos); err != nil {
		logx.Errorf("aitrader: open position for %s failed: %v", asset, err)
		return holdDecision("failed to open position: " + err.Error())
	}
	trader.CashBalance -= requested + fee
	return d
}

func (e *Engine) executeClose(ctx context.Context, trader *Trader, positions []Position, d Decision, spreadByAsset map[string]aggregator.FundingSpread, now time.Time) Decision {
	if d.Asset == nil {
		return holdDecision("close decision missing asset")
	}
	for _, p := range positions {
		if p.Asset != *d.Asset {
			continue
		}
		spread := spreadByAsset[p.Asset]
		mark := markPrice(spread)
		realizedPnl, cashCredit := closeAccounting(p, mark)
		trader.CashBalance += cashCredit
		if err := e.store.ClosePosition(ctx, p.ID, mark, realizedPnl, now.UnixMilli()); err != nil {
			logx.Errorf("aitrader: close position %s failed: %v", p.ID, err)
			return holdDecision("failed to close position: " + err.Error())
		}
		return d
	}
	return holdDecision("no matching open position for " + *d.Asset)
}

func (e *Engine) persistDecision(ctx context.Context, trader *Trader, d Decision, messages []ConversationMessage) {
	decisionID, err := e.store.InsertDecision(ctx, trader.ID, d)
	if err != nil {
		logx.Errorf("aitrader: persist decision for trader %s failed: %v", trader.ID, err)
		return
	}
	if len(messages) == 0 {
		return
	}
	if err := e.store.RecordConversation(ctx, trader.ID, decisionID, messages); err != nil {
		logx.Errorf("aitrader: persist conversation trail for trader %s failed: %v", trader.ID, err)
	}
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
