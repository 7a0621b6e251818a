// Code scaffolded by goctl. Safe to edit.
package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/zeromicro/go-zero/rest"

	"hldesk-api/internal/config"
	"hldesk-api/internal/handler"
	"hldesk-api/internal/svc"
)

func main() {
	// Auto-load environment variables from .env at startup.
	// It's fine if the file does not exist; envs can still be provided by the OS.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	server := rest.MustNewServer(cfg.RestConf, rest.WithCors())
	defer server.Stop()

	ctx := svc.NewServiceContext(*cfg)
	handler.RegisterHandlers(server, ctx)

	fmt.Printf("Starting server at %s:%d...\n", cfg.Host, cfg.Port)
	server.Start()
}
