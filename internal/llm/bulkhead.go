package llm

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
)

// BulkheadProvider caps the number of concurrent completions sent upstream.
// Failed calls are returned as is; nothing is retried.
type BulkheadProvider struct {
	provider Provider
	bulkhead bulkhead.Bulkhead[*Response]
}

// NewBulkheadProvider wraps provider with a concurrency limit.
// Callers beyond the limit wait in a queue of twice its size for up to queueTimeout.
func NewBulkheadProvider(provider Provider, maxConcurrent int, queueTimeout time.Duration) *BulkheadProvider {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	if queueTimeout <= 0 {
		queueTimeout = 30 * time.Second
	}

	return &BulkheadProvider{
		provider: provider,
		bulkhead: bulkhead.New[*Response](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
			MaxQueue:      maxConcurrent * 2,
			QueueTimeout:  queueTimeout,
		}),
	}
}

func (p *BulkheadProvider) Name() string {
	return p.provider.Name()
}

func (p *BulkheadProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	return p.bulkhead.Execute(ctx, func(ctx context.Context) (*Response, error) {
		return p.provider.Generate(ctx, req)
	})
}
