// Package batch flies independent scenarios concurrently.
package batch

import (
	"context"
	"runtime"
	"sync"
	"time"

	rocketsim "github.com/Niconikun/Rocket-Simulator-25-sub000"
	kitlog "github.com/go-kit/kit/log"
)

// job is a unit of work for the pool.
type job struct {
	index    int
	scenario rocketsim.Scenario
}

// Outcome is the result of one scenario of a batch.
type Outcome struct {
	Index  int
	Result rocketsim.Result
	Err    error // configuration error, numerical failure or cancellation
}

// Pool runs flights on a fixed number of goroutines.
type Pool struct {
	workers int
	logger  kitlog.Logger
	metrics *Metrics
}

// NewPool returns a Pool of the provided number of workers, or one per CPU if
// workers is not positive. The metrics may be nil.
func NewPool(workers int, logger kitlog.Logger, metrics *Metrics) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return &Pool{workers: workers, logger: logger, metrics: metrics}
}

// Run flies all the scenarios and returns their outcomes in the order of the
// scenarios. Each flight owns its state; a failed flight does not affect the others.
// Scenarios not started before the context is done are reported with its error.
func (p *Pool) Run(ctx context.Context, scenarios []rocketsim.Scenario) []Outcome {
	out := make([]Outcome, len(scenarios))
	if len(scenarios) == 0 {
		return out
	}
	started := make([]bool, len(scenarios))
	jobs := make(chan job, p.workers*2)
	results := make(chan Outcome, p.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			logger := kitlog.With(p.logger, "worker", worker)
			for j := range jobs {
				results <- p.fly(ctx, j, logger)
			}
		}(i)
	}

	go func() {
		defer close(jobs)
		for i, s := range scenarios {
			select {
			case jobs <- job{index: i, scenario: s}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var failed int
	for r := range results {
		out[r.Index] = r
		started[r.Index] = true
		if r.Err != nil {
			failed++
		}
	}
	for i := range out {
		if !started[i] {
			out[i] = Outcome{Index: i, Err: ctx.Err()}
			failed++
		}
	}
	p.logger.Log("level", "notice", "subsys", "batch", "flights", len(scenarios), "failed", failed)
	return out
}

func (p *Pool) fly(ctx context.Context, j job, logger kitlog.Logger) Outcome {
	start := time.Now()
	res, err := rocketsim.Simulate(ctx, j.scenario, kitlog.With(logger, "flight", j.index))
	if err != nil {
		logger.Log("level", "warning", "subsys", "batch", "flight", j.index, "err", err)
	}
	if p.metrics != nil {
		p.metrics.observe(res, time.Since(start))
	}
	return Outcome{Index: j.index, Result: res, Err: err}
}

func (m *Metrics) observe(res rocketsim.Result, d time.Duration) {
	m.duration.Observe(d.Seconds())
	m.steps.Add(float64(res.Steps))
	if len(res.History) == 0 {
		m.flights.WithLabelValues("invalid").Inc()
		return
	}
	m.flights.WithLabelValues(res.Outcome.String()).Inc()
	m.apogee.Observe(res.History.Apogee().Altitude())
}
