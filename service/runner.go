package service

import (
	"clipnest-pipeline/constant"
	"context"
	"errors"
	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"sync"
	"time"
)

type RunnerConfig struct {
	// WorkersPerStage is the number of drain loops per stage.
	WorkersPerStage int
	IdlePollMin     time.Duration
	IdlePollMax     time.Duration
}

// Runner keeps every stage draining for the life of the process. A loop
// drains its queue until idle, then sleeps until woken or until the idle
// timer fires. The timer backs off exponentially while the queue stays empty.
type Runner struct {
	workers []Worker
	waker   *LocalWaker
	cfg     RunnerConfig
}

func NewRunner(workers []Worker, waker *LocalWaker, cfg RunnerConfig) *Runner {
	if cfg.WorkersPerStage < 1 {
		cfg.WorkersPerStage = 1
	}
	if cfg.IdlePollMin <= 0 {
		cfg.IdlePollMin = time.Second
	}
	if cfg.IdlePollMax < cfg.IdlePollMin {
		cfg.IdlePollMax = cfg.IdlePollMin
	}
	return &Runner{workers: workers, waker: waker, cfg: cfg}
}

// Run blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, w := range r.workers {
		for i := 1; i <= r.cfg.WorkersPerStage; i++ {
			wg.Add(1)
			go func(w Worker, workerId int) {
				defer wg.Done()
				logger := zerolog.Ctx(ctx).With().Str("stage", w.Stage().String()).Int("worker_id", workerId).Logger()
				r.loop(logger.WithContext(ctx), w)
			}(w, i)
		}
	}
	zerolog.Ctx(ctx).Info().Int("stages", len(r.workers)).Int("workers_per_stage", r.cfg.WorkersPerStage).Msg("pipeline runner started")
	wg.Wait()
	zerolog.Ctx(ctx).Info().Msg("pipeline runner stopped")
}

func (r *Runner) loop(ctx context.Context, w Worker) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.cfg.IdlePollMin
	bo.MaxInterval = r.cfg.IdlePollMax

	var wake <-chan struct{}
	if r.waker != nil {
		wake = r.waker.C(w.Stage())
	}

	for {
		processed, err := Drain(ctx, w)
		if err != nil && !errors.Is(err, context.Canceled) {
			zerolog.Ctx(ctx).Error().Err(err).Int("processed", processed).Msg("drain stopped")
		}
		if processed > 0 {
			bo.Reset()
		}

		timer := time.NewTimer(bo.NextBackOff())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-wake:
			timer.Stop()
			bo.Reset()
		case <-timer.C:
		}
	}
}

// DrainAll drains every stage in hand-off order, repeating until a full pass
// finds no work. Work created by an earlier stage is picked up by the later
// ones in the same call.
func DrainAll(ctx context.Context, workers []Worker) (map[constant.Stage]int, error) {
	totals := make(map[constant.Stage]int, len(workers))
	for {
		passTotal := 0
		for _, w := range workers {
			n, err := Drain(ctx, w)
			totals[w.Stage()] += n
			passTotal += n
			if err != nil {
				return totals, err
			}
		}
		if passTotal == 0 {
			return totals, nil
		}
	}
}
