package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/repository"
)

const sweepBatch = 100

// Sweeper marks pending transactions failed once nobody can complete them anymore:
// older than the TTL and not awaited by a widget in this process.
type Sweeper struct {
	repo     repository.Repository
	awaiting func(reference string) bool
	ttl      time.Duration
	interval time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewSweeper(repo repository.Repository, awaiting func(reference string) bool, ttl, interval time.Duration, m *metrics.Metrics) *Sweeper {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if awaiting == nil {
		awaiting = func(string) bool { return false }
	}
	return &Sweeper{
		repo:     repo,
		awaiting: awaiting,
		ttl:      ttl,
		interval: interval,
		metrics:  m,
		now:      time.Now,
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n, err := s.Sweep(ctx); err != nil {
				slog.ErrorContext(ctx, "pending sweep failed", "error", err)
			} else if n > 0 {
				slog.InfoContext(ctx, "swept abandoned pending transactions", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Sweep runs one pass and returns how many transactions it marked failed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	stale, err := s.repo.ListStalePending(ctx, s.now().UTC().Add(-s.ttl), sweepBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale pending transactions: %w", err)
	}

	swept := 0
	for _, tx := range stale {
		if s.awaiting(tx.Reference) {
			continue
		}

		err := s.repo.UpdateTransactionStatus(ctx, tx.ID, domain.TransactionStatusFailed)
		switch {
		case err == nil:
			swept++
		case errors.Is(err, repository.ErrAlreadyFinal), errors.Is(err, repository.ErrTransactionNotFound):
			// settled concurrently
		default:
			slog.WarnContext(ctx, "failed to sweep pending transaction", "transaction_id", tx.ID, "reference", tx.Reference, "error", err)
		}
	}

	s.metrics.Swept(swept)
	return swept, nil
}
