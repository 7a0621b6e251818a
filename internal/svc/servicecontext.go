// Package svc wires every package's concrete dependencies into one
// ServiceContext. Construction is config-gated: a DSN or LLM section can be
// absent without the process failing to start, with fatal logs reserved for
// misconfiguration the process cannot recover from.
package svc

import (
	"log"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
	"github.com/zeromicro/go-zero/core/syncx"

	"hldesk-api/internal/config"
	"hldesk-api/internal/model"
	"hldesk-api/pkg/aggregator"
	"hldesk-api/pkg/aitrader"
	llmpkg "hldesk-api/pkg/llm"
	"hldesk-api/pkg/paper"
	"hldesk-api/pkg/ratecache"
	"hldesk-api/pkg/sampler"
	"hldesk-api/pkg/snapshotwriter"
	"hldesk-api/pkg/venue/binance"
	"hldesk-api/pkg/venue/bybit"
	"hldesk-api/pkg/venue/hyperliquid"
	"hldesk-api/pkg/venue/okx"
)

type ServiceContext struct {
	Config config.Config

	DBConn sqlx.SqlConn

	FundingSnapshotsModel     *model.FundingSnapshotsModel
	PaperPortfoliosModel      *model.PaperPortfoliosModel
	PaperPositionsModel       *model.PaperPositionsModel
	PaperTransactionsModel    *model.PaperTransactionsModel
	PaperSnapshotsModel       *model.EquitySnapshotsModel
	AiSnapshotsModel          *model.EquitySnapshotsModel
	AiTradersModel            *model.AiTradersModel
	AiPositionsModel          *model.AiPositionsModel
	AiDecisionsModel          *model.AiDecisionsModel
	ConversationsModel        *model.ConversationsModel
	ConversationMessagesModel *model.ConversationMessagesModel

	Aggregator *aggregator.Aggregator
	RateCache  *ratecache.Cache

	// ReadCache is an optional Redis-backed read-through cache in front of
	// the paper portfolio list, leaderboard and AI trader list routes (the
	// detail routes are not cached). Nil when Config.Cache has
	// no nodes configured, in which case internal/logic's cache helpers are
	// no-ops and every request recomputes from the store.
	ReadCache cache.Cache

	SnapshotWriter *snapshotwriter.Writer
	PaperEngine    *paper.Engine
	AiTraderEngine *aitrader.Engine
	Sampler        *sampler.Sampler

	LLMConfig *llmpkg.Config
	LLMClient llmpkg.LLMClient
}

func NewServiceContext(c config.Config) *ServiceContext {
	svc := &ServiceContext{
		Config: c,
		Aggregator: aggregator.New(
			hyperliquid.New(),
			binance.New(),
			bybit.New(),
			okx.New(),
		),
	}
	svc.RateCache = ratecache.New(svc.Aggregator)

	// A configured Redis cluster is optional: dashboard reads are already
	// served from the in-process rate cache and the store; when present it
	// only shortens repeat GETs against /api/paper and /api/ai.
	if len(c.Cache) > 0 {
		svc.ReadCache = cache.New(c.Cache, syncx.NewSingleFlight(), cache.NewStat("hldesk"), model.ErrNotFound)
	}

	if c.Postgres.DSN != "" {
		conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		svc.DBConn = conn

		svc.FundingSnapshotsModel = model.NewFundingSnapshotsModel(conn)
		svc.PaperPortfoliosModel = model.NewPaperPortfoliosModel(conn)
		svc.PaperPositionsModel = model.NewPaperPositionsModel(conn)
		svc.PaperTransactionsModel = model.NewPaperTransactionsModel(conn)
		svc.PaperSnapshotsModel = model.NewPaperSnapshotsModel(conn)
		svc.AiSnapshotsModel = model.NewAiSnapshotsModel(conn)
		svc.AiTradersModel = model.NewAiTradersModel(conn)
		svc.AiPositionsModel = model.NewAiPositionsModel(conn)
		svc.AiDecisionsModel = model.NewAiDecisionsModel(conn)
		svc.ConversationsModel = model.NewConversationsModel(conn)
		svc.ConversationMessagesModel = model.NewConversationMessagesModel(conn)

		svc.SnapshotWriter = snapshotwriter.New(svc.FundingSnapshotsModel)
		svc.PaperEngine = paper.NewEngine(&paperStore{svc: svc})
	}

	// LLM configuration is optional: an absent section leaves LLMClient and
	// AiTraderEngine nil (agent runs are then rejected as not configured), it
	// never blocks startup.
	if c.LLM.Value != nil {
		svc.LLMConfig = c.LLM.Value
		if c.IsTestEnv() {
			svc.LLMConfig.DefaultModel = "google/gemini-2.5-flash-lite"
		}
		client, err := llmpkg.NewClient(svc.LLMConfig)
		if err != nil {
			log.Fatalf("failed to build llm client: %v", err)
		}
		svc.LLMClient = client
	}

	if svc.AiTradersModel != nil && svc.LLMClient != nil {
		svc.AiTraderEngine = aitrader.NewEngine(&aiTraderStore{svc: svc}, svc.LLMClient)
	}

	if svc.DBConn != nil {
		svc.Sampler = sampler.New(&samplerStore{svc: svc})
	}

	return svc
}
