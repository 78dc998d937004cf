// Package enrich fills in group member counts via the remote directory
// port. Lookups are batched to respect the upstream batch-size ceiling and
// fanned out with bounded concurrency; the resolution core only ever sees
// fully-enriched membership records.
package enrich

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"assignlens/internal/domain"
)

const (
	// DefaultBatchSize is the upstream directory API's batch ceiling.
	DefaultBatchSize = 20

	defaultConcurrency = 4
)

// Enricher annotates membership records with member counts.
type Enricher struct {
	client      domain.DirectoryClient
	batchSize   int
	concurrency int
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithBatchSize overrides the lookup batch size.
func WithBatchSize(n int) Option {
	return func(e *Enricher) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithConcurrency overrides the number of in-flight batches.
func WithConcurrency(n int) Option {
	return func(e *Enricher) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithRateLimit caps directory calls at rps requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(e *Enricher) {
		if rps > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// New creates an Enricher over the directory port.
func New(client domain.DirectoryClient, logger *slog.Logger, opts ...Option) *Enricher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Enricher{
		client:      client,
		batchSize:   DefaultBatchSize,
		concurrency: defaultConcurrency,
		logger:      logger.With("component", "enrich"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Annotate returns a new membership slice with member counts filled in.
// The input is never mutated. A failed batch degrades: its groups keep
// their existing (usually nil) counts and a warning is logged.
func (e *Enricher) Annotate(ctx context.Context, ms []domain.GroupMembership) ([]domain.GroupMembership, error) {
	if len(ms) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(ms))
	for _, m := range ms {
		if m.GroupID != "" && m.Kind != domain.MembershipDirectoryRole {
			ids = append(ids, m.GroupID)
		}
	}

	counts, err := e.lookupAll(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.GroupMembership, len(ms))
	copy(out, ms)
	for i := range out {
		c, ok := counts[out[i].GroupID]
		if !ok {
			continue
		}
		device, user := c.DeviceMembers, c.UserMembers
		out[i].DeviceMemberCount = &device
		out[i].UserMemberCount = &user
	}
	return out, nil
}

// lookupAll fans the id list out in fixed-size batches. Only a context
// cancellation aborts the whole lookup; per-batch failures are logged and
// skipped.
func (e *Enricher) lookupAll(ctx context.Context, ids []string) (map[string]domain.GroupCounts, error) {
	batches := chunk(ids, e.batchSize)
	results := make([]map[string]domain.GroupCounts, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, batch := range batches {
		g.Go(func() error {
			if e.limiter != nil {
				if err := e.limiter.Wait(gctx); err != nil {
					return err
				}
			}
			counts, err := e.client.GroupCounts(gctx, batch)
			if err != nil {
				e.logger.Warn("group count batch failed", "batch_size", len(batch), "error", err)
				return nil
			}
			results[i] = counts
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]domain.GroupCounts, len(ids))
	for _, m := range results {
		for id, c := range m {
			merged[id] = c
		}
	}
	return merged, nil
}

// chunk splits ids into slices of at most size elements.
func chunk(ids []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var batches [][]string
	for len(ids) > size {
		batches = append(batches, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		batches = append(batches, ids)
	}
	return batches
}
