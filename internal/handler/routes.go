package handler

import (
	"net/http"

	"github.com/rs/cors"
	"github.com/zeromicro/go-zero/rest"

	"hldesk-api/internal/svc"
)

// RegisterHandlers wires every route the read surface exposes onto server.
// CORS is layered two ways: go-zero's native rest.WithCors() (applied at
// server construction in cmd/api) handles preflight for simple cases, and
// corsMiddleware below — built on github.com/rs/cors — covers the rest so
// any origin can read this public dashboard API.
func RegisterHandlers(server *rest.Server, svcCtx *svc.ServiceContext) {
	server.Use(corsMiddleware())

	server.AddRoutes([]rest.Route{
		{Method: http.MethodGet, Path: "/", Handler: rootHandler(svcCtx)},
		{Method: http.MethodGet, Path: "/api/health", Handler: healthHandler(svcCtx)},

		{Method: http.MethodGet, Path: "/api/funding", Handler: fundingListHandler(svcCtx)},
		{Method: http.MethodGet, Path: "/api/funding/history", Handler: fundingHistoryHandler(svcCtx)},
		{Method: http.MethodGet, Path: "/api/funding/:asset", Handler: fundingDetailHandler(svcCtx)},

		{Method: http.MethodGet, Path: "/api/paper/portfolios", Handler: portfolioListHandler(svcCtx)},
		{Method: http.MethodGet, Path: "/api/paper/leaderboard", Handler: leaderboardHandler(svcCtx)},
		{Method: http.MethodGet, Path: "/api/paper/portfolios/:id", Handler: portfolioDetailHandler(svcCtx)},
		{Method: http.MethodGet, Path: "/api/paper/snapshots", Handler: paperSnapshotsHandler(svcCtx)},

		{Method: http.MethodGet, Path: "/api/ai/traders", Handler: aiTraderListHandler(svcCtx)},
		{Method: http.MethodGet, Path: "/api/ai/traders/:name", Handler: aiTraderDetailHandler(svcCtx)},
		{Method: http.MethodGet, Path: "/api/ai/snapshots", Handler: aiSnapshotsHandler(svcCtx)},
		{Method: http.MethodPost, Path: "/api/ai/run/:name", Handler: aiRunHandler(svcCtx)},

		{Method: http.MethodPost, Path: "/api/internal/snapshot", Handler: snapshotRunHandler(svcCtx)},
	})
}

func corsMiddleware() rest.Middleware {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return func(next http.HandlerFunc) http.HandlerFunc {
		wrapped := c.Handler(next)
		return func(w http.ResponseWriter, r *http.Request) {
			wrapped.ServeHTTP(w, r)
		}
	}
}
