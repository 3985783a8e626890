package tracker

import (
	"context"
	"fmt"
	"slices"

	"pricepulse-backend/internal/components/assert"
	"pricepulse-backend/internal/components/chrono"
	"pricepulse-backend/internal/components/telemetry"
	"pricepulse-backend/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

const (
	report_orchestrator_unknown_store = "orchestrator.unknown-store"
	report_orchestrator_extract       = "orchestrator.extract"
	report_orchestrator_persist       = "orchestrator.persist"
)

var tracer = otel.Tracer("pricepulse/internal/tracker")

// ObservationWriter is the part of the record store the orchestrator writes through.
type ObservationWriter interface {
	InsertObservations(ctx context.Context, observations []store.Observation) ([]store.Observation, error)
}

// PersistenceError is returned when the observations of a run could not be written, none of
// them were persisted.
type PersistenceError struct {
	ProductId string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist observations of product '%s': %v", e.ProductId, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

type OrchestratorOptions struct {
	// Concurrency is the number of store urls of one product fetched at once, values below 1
	// fetch sequentially.
	Concurrency int
}

// Orchestrator fetches a product from every store it is listed on and persists the readings.
// A store failing never affects the other stores of the same run.
type Orchestrator struct {
	registry    Registry
	writer      ObservationWriter
	time        chrono.TimeAPI
	tel         telemetry.API
	concurrency int

	observationsCreated metric.Int64Counter
	extractionsFailed   metric.Int64Counter
}

func NewOrchestrator(
	registry Registry,
	writer ObservationWriter,
	time chrono.TimeAPI,
	tel telemetry.API,
	opts OrchestratorOptions,
) (*Orchestrator, error) {
	assert.NotNil(writer, "writer")
	assert.NotNil(time, "time")
	assert.NotNil(tel, "tel")

	meter := otel.Meter("pricepulse/internal/tracker")
	observationsCreated, err := meter.Int64Counter(
		"pricepulse.observations.created",
		metric.WithDescription("Price observations persisted."),
	)
	if err != nil {
		return nil, err
	}
	extractionsFailed, err := meter.Int64Counter(
		"pricepulse.extractions.failed",
		metric.WithDescription("Store pages that could not be fetched or parsed."),
	)
	if err != nil {
		return nil, err
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Orchestrator{
		registry:            registry,
		writer:              writer,
		time:                time,
		tel:                 telemetry.NewScopedAPI("tracker", tel),
		concurrency:         concurrency,
		observationsCreated: observationsCreated,
		extractionsFailed:   extractionsFailed,
	}, nil
}

// FetchPricesForProduct fetches every url in `storeUrls` with the extractor registered under its
// store key and persists the successful readings in one batch.
//
// Unknown store keys are skipped. A failed fetch is reported and skipped. When nothing succeeds
// an empty slice is returned without touching the store. The only error returned is a
// *PersistenceError.
func (o *Orchestrator) FetchPricesForProduct(
	ctx context.Context,
	product store.Product,
	storeUrls map[string]string,
) ([]store.Observation, error) {
	ctx, span := tracer.Start(ctx, "FetchPricesForProduct")
	defer span.End()
	span.SetAttributes(
		attribute.String("product.id", product.Id),
		attribute.Int("product.stores", len(storeUrls)),
	)

	keys := make([]string, 0, len(storeUrls))
	for key := range storeUrls {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	// one slot per key keeps the output in key order regardless of scheduling
	slots := make([]*store.Observation, len(keys))
	if o.concurrency == 1 {
		for i, key := range keys {
			slots[i] = o.fetchOne(ctx, product, key, storeUrls[key])
		}
	} else {
		group := errgroup.Group{}
		group.SetLimit(o.concurrency)
		for i, key := range keys {
			group.Go(func() error {
				slots[i] = o.fetchOne(ctx, product, key, storeUrls[key])
				return nil
			})
		}
		_ = group.Wait()
	}

	pending := []store.Observation{}
	for _, obs := range slots {
		if obs != nil {
			pending = append(pending, *obs)
		}
	}
	if len(pending) == 0 {
		return pending, nil
	}

	persisted, err := o.writer.InsertObservations(ctx, pending)
	if err != nil {
		o.tel.ReportBroken(report_orchestrator_persist, err, product.Id, len(pending))
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist observations")
		return nil, &PersistenceError{ProductId: product.Id, Err: err}
	}
	o.observationsCreated.Add(ctx, int64(len(persisted)))
	span.SetAttributes(attribute.Int("observations", len(persisted)))
	return persisted, nil
}

// fetchOne returns nil when the store is unknown or its fetch failed.
func (o *Orchestrator) fetchOne(ctx context.Context, product store.Product, key, url string) *store.Observation {
	extractor, ok := o.registry.Lookup(key)
	if !ok {
		// lenient: a store nobody can read is not an error
		o.tel.ReportDebug(report_orchestrator_unknown_store, product.Id, key)
		return nil
	}

	result, err := extractor.Fetch(ctx, url)
	if err != nil {
		o.tel.ReportWarning(report_orchestrator_extract, err, product.Id, key, url)
		o.extractionsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("store", key)))
		return nil
	}

	return &store.Observation{
		ProductId:  product.Id,
		Store:      result.Store,
		Price:      result.Price,
		ProductUrl: result.SourceUrl,
		FetchedAt:  o.time.Now().UTC(),
	}
}
