package pollloop

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hldesk-api/pkg/aggregator"
	"hldesk-api/pkg/venue"
)

type fakeAggregator struct {
	result  *aggregator.AggregatedResult
	err     error
	calls   atomic.Int32
}

func (f *fakeAggregator) Aggregate(ctx context.Context) (*aggregator.AggregatedResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeCache struct {
	updates atomic.Int32
}

func (f *fakeCache) Update(result *aggregator.AggregatedResult) { f.updates.Add(1) }

type fakeWriter struct {
	mu    sync.Mutex
	saved [][]venue.FundingRate
}

func (f *fakeWriter) Save(ctx context.Context, rates []venue.FundingRate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, rates)
}

func (f *fakeWriter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

type fakePaperEngine struct {
	runs atomic.Int32
	wg   *sync.WaitGroup
}

func (f *fakePaperEngine) RunCycle(ctx context.Context, result *aggregator.AggregatedResult) {
	f.runs.Add(1)
	if f.wg != nil {
		f.wg.Done()
	}
}

func TestRunDispatchesImmediatelyOnStart(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	agg := &fakeAggregator{result: &aggregator.AggregatedResult{}}
	cache := &fakeCache{}
	writer := &fakeWriter{}
	engine := &fakePaperEngine{wg: &wg}

	loop := New(agg, cache, writer, engine, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go loop.Run(ctx)

	waitTimeout(t, &wg, time.Second)
	assert.Equal(t, int32(1), agg.calls.Load())
	assert.Equal(t, int32(1), cache.updates.Load())
	assert.Equal(t, int32(1), engine.runs.Load())
	assert.Equal(t, 1, writer.count())
}

func TestTickSkipsDispatchWhenPriorTaskStillRunning(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 2)

	agg := &fakeAggregator{result: &aggregator.AggregatedResult{}}
	cache := &fakeCache{}
	writer := &fakeWriter{}

	loop := New(agg, cache, writer, blockingEngine{started: started, release: release}, time.Hour)
	ctx := context.Background()

	loop.tick(ctx)
	<-started // first dispatch is now blocked inside RunCycle

	loop.tick(ctx) // second tick must see running=true and skip dispatch
	assert.Equal(t, int32(2), agg.calls.Load())
	assert.Equal(t, int32(2), cache.updates.Load())

	close(release)
	require.Eventually(t, func() bool { return writer.count() == 1 }, time.Second, time.Millisecond)
}

type blockingEngine struct {
	started chan struct{}
	release chan struct{}
}

func (b blockingEngine) RunCycle(ctx context.Context, result *aggregator.AggregatedResult) {
	b.started <- struct{}{}
	<-b.release
}

func TestTickSkipsUpdateWhenAggregateFails(t *testing.T) {
	agg := &fakeAggregator{err: assert.AnError}
	cache := &fakeCache{}
	writer := &fakeWriter{}
	engine := &fakePaperEngine{}

	loop := New(agg, cache, writer, engine, time.Hour)
	loop.tick(context.Background())

	assert.Equal(t, int32(0), cache.updates.Load())
	assert.Equal(t, int32(0), engine.runs.Load())
}

func waitTimeout(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for dispatch")
	}
}
