package tracker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"pricepulse-backend/internal/scrapers"
	"pricepulse-backend/internal/store"
)

type fakeExtractor struct {
	store string
	price float64
	err   error
	calls atomic.Int64
}

func (f *fakeExtractor) Store() string {
	return f.store
}

func (f *fakeExtractor) Fetch(ctx context.Context, url string) (scrapers.Result, error) {
	f.calls.Add(1)
	if f.err != nil {
		return scrapers.Result{}, &scrapers.ExtractionError{Store: f.store, Url: url, Err: f.err}
	}
	return scrapers.Result{
		Store:     f.store,
		Title:     f.store + " item",
		Price:     f.price,
		SourceUrl: url,
	}, nil
}

type recordingWriter struct {
	mutex sync.Mutex
	calls [][]store.Observation
	// failFor makes inserts of the given product fail.
	failFor string
	nextId  int64
}

var errWriteFailed = errors.New("disk full")

func (w *recordingWriter) InsertObservations(ctx context.Context, observations []store.Observation) ([]store.Observation, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.calls = append(w.calls, observations)
	out := make([]store.Observation, len(observations))
	for i, o := range observations {
		if o.ProductId == w.failFor {
			return nil, errWriteFailed
		}
		w.nextId++
		o.Id = w.nextId
		out[i] = o
	}
	return out, nil
}

func (w *recordingWriter) Calls() int {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return len(w.calls)
}

type staticProducts struct {
	products []store.Product
	err      error
}

func (s staticProducts) ListProducts(ctx context.Context) ([]store.Product, error) {
	return s.products, s.err
}

type fakeCron struct {
	mutex   sync.Mutex
	specs   []string
	jobs    []func()
	started bool
	stopped bool
	specErr error
}

func (c *fakeCron) Cron(spec string, callback func()) error {
	if c.specErr != nil {
		return c.specErr
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.specs = append(c.specs, spec)
	c.jobs = append(c.jobs, callback)
	return nil
}

func (c *fakeCron) Start() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.started = true
}

func (c *fakeCron) Stop() context.Context {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.stopped = true
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// fire runs every registered job synchronously.
func (c *fakeCron) fire() {
	c.mutex.Lock()
	jobs := append([]func(){}, c.jobs...)
	c.mutex.Unlock()
	for _, job := range jobs {
		job()
	}
}
