package stats

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/velora-pos/velora/internal/shared"
)

const defaultTopN = 5

// RepositoryPort abstracts the aggregate queries for the service.
type RepositoryPort interface {
	SaleTotals(ctx context.Context, rng Range) (count int64, revenue float64, cancelledCount int64, cancelledTotal float64, err error)
	ByPaymentType(ctx context.Context, rng Range) ([]PaymentBucket, error)
	ByStatus(ctx context.Context, rng Range) ([]StatusBucket, error)
	TopProducts(ctx context.Context, rng Range, limit int) ([]ProductSales, error)
	PurchaseTotals(ctx context.Context, rng Range) (PurchaseSummary, error)
}

// Service assembles summaries, caching them briefly.
type Service struct {
	repo  RepositoryPort
	cache *Cache
}

// NewService builds Service. cache may be nil.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Summary computes the rollup for a range. topN <= 0 uses the default.
func (s *Service) Summary(ctx context.Context, rng Range, topN int, actor shared.Principal) (Summary, error) {
	if !shared.Allow(actor, shared.ActionStatsView, 0) {
		return Summary{}, fmt.Errorf("%w: viewing statistics requires an administrator", shared.ErrForbidden)
	}
	if topN <= 0 {
		topN = defaultTopN
	}
	var out Summary
	err := s.cache.FetchJSON(ctx, summaryKey(rng, topN), &out, func(ctx context.Context) (interface{}, error) {
		return s.compute(ctx, rng, topN)
	})
	return out, err
}

func (s *Service) compute(ctx context.Context, rng Range, topN int) (Summary, error) {
	var sum Summary
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sum.SaleCount, sum.Revenue, sum.CancelledCount, sum.CancelledTotal, err = s.repo.SaleTotals(ctx, rng)
		if err != nil {
			return fmt.Errorf("sale totals: %w", err)
		}
		if sum.SaleCount > 0 {
			sum.AverageTicket = sum.Revenue / float64(sum.SaleCount)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if sum.ByPaymentType, err = s.repo.ByPaymentType(ctx, rng); err != nil {
			return fmt.Errorf("payment buckets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if sum.ByStatus, err = s.repo.ByStatus(ctx, rng); err != nil {
			return fmt.Errorf("status buckets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if sum.TopProducts, err = s.repo.TopProducts(ctx, rng, topN); err != nil {
			return fmt.Errorf("top products: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if sum.Purchases, err = s.repo.PurchaseTotals(ctx, rng); err != nil {
			return fmt.Errorf("purchase totals: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return sum, nil
}
