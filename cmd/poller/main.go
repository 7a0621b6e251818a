// Command poller drives the two background cadences the dashboard depends
// on: the 30s aggregate/snapshot-writer/paper poll loop and the hourly equity snapshot
// sampler, using a ticker-per-task plus signal.NotifyContext and
// sync.WaitGroup for shutdown.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"hldesk-api/internal/config"
	"hldesk-api/internal/svc"
	"hldesk-api/pkg/aggregator"
	"hldesk-api/pkg/pollloop"
	"hldesk-api/pkg/venue"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("[poller] starting")

	cfg := config.MustLoad()
	svcCtx := svc.NewServiceContext(*cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	loop := pollloop.New(svcCtx.Aggregator, svcCtx.RateCache, snapshotWriterOrNoop(svcCtx), paperEngineOrNoop(svcCtx), cfg.PollInterval)
	wg.Add(1)
	go func() {
		defer wg.Done()
		loop.Run(ctx)
	}()

	if svcCtx.Sampler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runSampler(ctx, svcCtx)
		}()
	} else {
		log.Println("[poller] sampler disabled: no database configured")
	}

	log.Printf("[poller] running: pollInterval=%s snapshotInterval=%s", cfg.PollInterval, cfg.SnapshotInterval)
	<-ctx.Done()
	log.Println("[poller] shutdown signal received, draining tasks")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	select {
	case <-done:
		log.Println("[poller] stopped cleanly")
	case <-shutdownCtx.Done():
		log.Println("[poller] shutdown timeout exceeded, forcing exit")
	}
}

func runSampler(ctx context.Context, svcCtx *svc.ServiceContext) {
	ticker := time.NewTicker(svcCtx.Config.SnapshotInterval)
	defer ticker.Stop()

	sample := func() {
		result := svcCtx.RateCache.Snapshot()
		if result == nil {
			return
		}
		svcCtx.Sampler.Run(ctx, result)
	}
	sample()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sample()
		}
	}
}

// snapshotWriterOrNoop and paperEngineOrNoop guard against the optional
// Postgres-backed components being unconstructed: a typed nil *Writer or
// *paper.Engine satisfies its interface but panics on first field access,
// so a database-less run gets inert stand-ins instead.
func snapshotWriterOrNoop(svcCtx *svc.ServiceContext) pollloop.SnapshotWriter {
	if svcCtx.SnapshotWriter == nil {
		return noopWriter{}
	}
	return svcCtx.SnapshotWriter
}

func paperEngineOrNoop(svcCtx *svc.ServiceContext) pollloop.PaperEngine {
	if svcCtx.PaperEngine == nil {
		return noopPaperEngine{}
	}
	return svcCtx.PaperEngine
}

type noopWriter struct{}

func (noopWriter) Save(ctx context.Context, rates []venue.FundingRate) {}

type noopPaperEngine struct{}

func (noopPaperEngine) RunCycle(ctx context.Context, result *aggregator.AggregatedResult) {}
