package app

import (
	"context"
	"sync"
	"time"

	"github.com/sbswap/swappool/business/pool/domain"
	"github.com/sbswap/swappool/internal/logger"
)

// Sampler records hourly price/supply snapshots and builds plot-ready series.
type Sampler struct {
	ledger   *Ledger
	engine   *domain.Engine
	store    Store
	interval time.Duration
	resample time.Duration
	log      logger.LoggerInterface
	now      func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewSampler creates a Sampler. interval gates how often samples are taken;
// resample is the grid spacing used by BuildSeries.
func NewSampler(ledger *Ledger, engine *domain.Engine, store Store, interval, resample time.Duration, log logger.LoggerInterface) *Sampler {
	return &Sampler{
		ledger:   ledger,
		engine:   engine,
		store:    store,
		interval: interval,
		resample: resample,
		log:      log,
		now:      time.Now,
	}
}

// MaybeSample records one sample per asset if more than the sample interval
// has elapsed since the last one. The check runs against both the in-process
// timestamp and the latest persisted sample so restarts don't duplicate
// samples. Safe to call on every balance mutation; errors are logged, not
// returned, since sampling is a best-effort side effect.
func (s *Sampler) MaybeSample(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.last) <= s.interval {
		return
	}
	s.last = now

	latest, ok, err := s.store.LatestSampleTime(ctx)
	if err != nil {
		s.log.Warn(ctx, "failed to read latest sample time", "error", err)
		return
	}
	if ok && now.Unix()-latest < int64(s.interval.Seconds()) {
		return
	}

	first, second := s.ledger.Assets()
	balanceA, balanceB := s.ledger.Balances()

	samples := []domain.HistorySample{
		{Time: now.Unix(), Asset: first.Name(), Price: s.engine.SpotPrice(balanceA, balanceB, second), Supply: balanceA},
		{Time: now.Unix(), Asset: second.Name(), Price: s.engine.SpotPrice(balanceB, balanceA, first), Supply: balanceB},
	}

	if err := s.store.AppendSamples(ctx, samples); err != nil {
		s.log.Warn(ctx, "failed to append history samples", "error", err)
		return
	}

	s.log.Debug(ctx, "recorded history samples", "time", now.Unix())
}

// BuildSeries reads all persisted samples for the leading asset, pairs them
// with the other asset's supplies, appends one live point, and resamples the
// result onto a fixed-interval grid. Recomputed on every call.
func (s *Sampler) BuildSeries(ctx context.Context) ([]domain.SeriesPoint, error) {
	first, second := s.ledger.Assets()

	samplesA, err := s.store.SamplesByAsset(ctx, first.Name())
	if err != nil {
		return nil, err
	}
	samplesB, err := s.store.SamplesByAsset(ctx, second.Name())
	if err != nil {
		return nil, err
	}

	n := len(samplesA)
	if len(samplesB) < n {
		n = len(samplesB)
	}

	points := make([]domain.SeriesPoint, 0, n+1)
	for i := 0; i < n; i++ {
		points = append(points, domain.SeriesPoint{
			Time:    samplesA[i].Time,
			Price:   samplesA[i].Price,
			SupplyA: samplesA[i].Supply,
			SupplyB: samplesB[i].Supply,
		})
	}

	// Live point so the series always ends at the current state.
	balanceA, balanceB := s.ledger.Balances()
	points = append(points, domain.SeriesPoint{
		Time:    s.now().Unix(),
		Price:   s.engine.SpotPrice(balanceA, balanceB, second),
		SupplyA: balanceA,
		SupplyB: balanceB,
	})

	return domain.Resample(points, int64(s.resample.Seconds())), nil
}
