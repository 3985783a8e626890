package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pricepulse-backend/internal/components/assert"
	"pricepulse-backend/internal/components/chrono"
	"pricepulse-backend/internal/components/telemetry"
	"pricepulse-backend/internal/store"
)

const (
	report_scheduler_tick         = "scheduler.tick"
	report_scheduler_product      = "scheduler.product"
	report_scheduler_observations = "scheduler.observations"
	report_scheduler_interrupted  = "scheduler.tick-interrupted"
	report_scheduler_overlap      = "scheduler.tick-overlap"
)

// ProductLister is the part of the record store the scheduler reads from.
type ProductLister interface {
	ListProducts(ctx context.Context) ([]store.Product, error)
}

// Acquirer runs the acquisition of a single product, implemented by *Orchestrator.
type Acquirer interface {
	FetchPricesForProduct(ctx context.Context, product store.Product, storeUrls map[string]string) ([]store.Observation, error)
}

type SchedulerOptions struct {
	Interval time.Duration
	// RunOnStart runs one tick as soon as the scheduler starts.
	RunOnStart bool
}

type TickResult struct {
	Products     int
	Skipped      int
	Failed       int
	Observations int
}

// Scheduler re-runs acquisition over every product on a fixed interval. At most one tick runs
// at a time and products are processed one after another.
type Scheduler struct {
	products ProductLister
	acquirer Acquirer
	cron     chrono.CronAPI
	tel      telemetry.API
	opts     SchedulerOptions

	ctx    context.Context
	cancel context.CancelFunc
	// tickMutex is held for the duration of a tick.
	tickMutex sync.Mutex
	wg        sync.WaitGroup
	started   bool
}

func NewScheduler(
	products ProductLister,
	acquirer Acquirer,
	cron chrono.CronAPI,
	tel telemetry.API,
	opts SchedulerOptions,
) (*Scheduler, error) {
	assert.NotNil(products, "products")
	assert.NotNil(acquirer, "acquirer")
	assert.NotNil(cron, "cron")
	assert.NotNil(tel, "tel")

	if opts.Interval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be positive, got %s", opts.Interval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		products: products,
		acquirer: acquirer,
		cron:     cron,
		tel:      telemetry.NewScopedAPI("tracker", tel),
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Tick runs acquisition for every product that has at least one store url.
//
// A product failing does not stop the tick, its error is joined into the returned error once
// every product had its turn. Failing to list the products aborts the tick. Cancelling ctx stops
// the tick before the next product, the product in progress is always completed.
func (s *Scheduler) Tick(ctx context.Context) (TickResult, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		s.tel.ReportBroken(report_scheduler_tick, err)
		return TickResult{}, fmt.Errorf("list products: %w", err)
	}

	result := TickResult{}
	var errs []error
	for _, product := range products {
		if ctx.Err() != nil {
			s.tel.ReportDebug(report_scheduler_interrupted, result.Products, len(products))
			break
		}

		// a missing or unreadable map reads as empty, there is nothing to fetch
		if len(product.StoreUrls) == 0 {
			result.Skipped++
			continue
		}

		result.Products++
		observations, err := s.acquirer.FetchPricesForProduct(
			context.WithoutCancel(ctx),
			product,
			product.StoreUrls,
		)
		if err != nil {
			result.Failed++
			s.tel.ReportWarning(report_scheduler_product, err, product.Id)
			errs = append(errs, fmt.Errorf("product '%s': %w", product.Id, err))
			continue
		}
		result.Observations += len(observations)
	}

	s.tel.ReportCount(report_scheduler_observations, int64(result.Observations))
	return result, errors.Join(errs...)
}

func (s *Scheduler) runTick() {
	if !s.tickMutex.TryLock() {
		// the previous tick is still running
		s.tel.ReportDebug(report_scheduler_overlap)
		return
	}
	defer s.tickMutex.Unlock()

	start := time.Now()
	result, err := s.Tick(s.ctx)
	if err != nil {
		slog.ErrorContext(s.ctx, "scheduled fetch finished with errors", "err", err, "failed", result.Failed)
	}
	slog.InfoContext(
		s.ctx,
		"scheduled fetch finished",
		"products", result.Products,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"observations", result.Observations,
		"took", time.Since(start).String(),
	)
}

// Start schedules the recurring tick.
func (s *Scheduler) Start() error {
	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	err := s.cron.Cron(chrono.Every(s.opts.Interval), s.runTick)
	if err != nil {
		return fmt.Errorf("schedule tick: %w", err)
	}
	s.started = true
	s.cron.Start()

	if s.opts.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runTick()
		}()
	}
	return nil
}

// Stop prevents new ticks and interrupts the running tick after its current product. It waits
// for the running tick until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}
