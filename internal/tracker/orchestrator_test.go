package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pricepulse-backend/internal/components/chrono"
	"pricepulse-backend/internal/components/telemetry"
	"pricepulse-backend/internal/components/testutil"
	"pricepulse-backend/internal/scrapers"
	"pricepulse-backend/internal/scrapers/amazon"
	"pricepulse-backend/internal/scrapers/flipkart"
	"pricepulse-backend/internal/store"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestOrchestrator(t *testing.T, registry Registry, writer ObservationWriter, tel telemetry.API, concurrency int) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(
		registry,
		writer,
		&chrono.FixedTime{Current: t0, Step: time.Second},
		tel,
		OrchestratorOptions{Concurrency: concurrency},
	)
	require.NoError(t, err)
	return o
}

func TestFetchPricesForProductIsolation(t *testing.T) {
	for _, concurrency := range []int{1, 3} {
		t.Run(fmt.Sprintf("concurrency %d", concurrency), func(t *testing.T) {
			ok := &fakeExtractor{store: "Amazon", price: 999.5}
			broken := &fakeExtractor{store: "Flipkart", err: errors.New("connection reset")}
			registry := NewRegistry(map[string]scrapers.Extractor{
				"amazon":   ok,
				"flipkart": broken,
			})
			writer := &recordingWriter{}
			tel := telemetry.NewRecordingAPI()
			o := newTestOrchestrator(t, registry, writer, tel, concurrency)

			product := store.Product{Id: "p1", Name: "Headphones"}
			out, err := o.FetchPricesForProduct(context.Background(), product, map[string]string{
				"amazon":   "https://amazon.example/dp/1",
				"flipkart": "https://flipkart.example/p/1",
				"ebay":     "https://ebay.example/itm/1",
			})
			require.NoError(t, err)
			require.Len(t, out, 1)
			require.Equal(t, store.Observation{
				Id:         1,
				ProductId:  "p1",
				Store:      "Amazon",
				Price:      999.5,
				ProductUrl: "https://amazon.example/dp/1",
				FetchedAt:  t0,
			}, out[0])

			require.EqualValues(t, 1, ok.calls.Load())
			require.EqualValues(t, 1, broken.calls.Load())
			require.Equal(t, 1, writer.Calls())

			warnings := tel.Warnings()
			require.Len(t, warnings, 1)
			require.Equal(t, "tracker: orchestrator.extract", warnings[0].Id)
			var extractionErr *scrapers.ExtractionError
			require.ErrorAs(t, warnings[0].Params[0].(error), &extractionErr)
			require.Equal(t, "https://flipkart.example/p/1", extractionErr.Url)
		})
	}
}

func TestFetchPricesForProductCounts(t *testing.T) {
	for succeeding := 0; succeeding <= 3; succeeding++ {
		for failing := 0; failing <= 2; failing++ {
			extractors := map[string]scrapers.Extractor{}
			storeUrls := map[string]string{}
			for i := 0; i < succeeding; i++ {
				key := fmt.Sprintf("ok%d", i)
				extractors[key] = &fakeExtractor{store: key, price: float64(i)}
				storeUrls[key] = "https://" + key
			}
			for i := 0; i < failing; i++ {
				key := fmt.Sprintf("bad%d", i)
				extractors[key] = &fakeExtractor{store: key, err: errors.New("timeout")}
				storeUrls[key] = "https://" + key
			}
			storeUrls["unknown"] = "https://unknown"

			writer := &recordingWriter{}
			o := newTestOrchestrator(t, NewRegistry(extractors), writer, telemetry.NewRecordingAPI(), 2)
			out, err := o.FetchPricesForProduct(context.Background(), store.Product{Id: "p"}, storeUrls)
			require.NoError(t, err)
			require.NotNil(t, out)
			require.Len(t, out, succeeding)

			if succeeding == 0 {
				require.Zero(t, writer.Calls(), "no write when nothing succeeded")
			} else {
				require.Equal(t, 1, writer.Calls(), "one batch per run")
			}
		}
	}
}

func TestFetchPricesForProductOrder(t *testing.T) {
	extractors := map[string]scrapers.Extractor{}
	storeUrls := map[string]string{}
	for _, key := range []string{"e", "c", "a", "d", "b"} {
		extractors[key] = &fakeExtractor{store: key}
		storeUrls[key] = "https://" + key
	}
	o := newTestOrchestrator(t, NewRegistry(extractors), &recordingWriter{}, telemetry.NewRecordingAPI(), 5)
	out, err := o.FetchPricesForProduct(context.Background(), store.Product{Id: "p"}, storeUrls)
	require.NoError(t, err)

	var stores []string
	for _, o := range out {
		stores = append(stores, o.Store)
	}
	require.Equal(t, []string{"a", "b", "c", "d", "e"}, stores)
}

func TestFetchPricesForProductPersistenceError(t *testing.T) {
	registry := NewRegistry(map[string]scrapers.Extractor{
		"amazon": &fakeExtractor{store: "Amazon", price: 10},
	})
	tel := telemetry.NewRecordingAPI()
	o := newTestOrchestrator(t, registry, &recordingWriter{failFor: "p"}, tel, 1)

	out, err := o.FetchPricesForProduct(context.Background(), store.Product{Id: "p"}, map[string]string{
		"amazon": "https://amazon.example",
	})
	require.Nil(t, out)
	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	require.Equal(t, "p", persistErr.ProductId)
	require.ErrorIs(t, err, errWriteFailed)
	require.Len(t, tel.Broken(), 1)
}

func TestFetchPricesForProductEmptyMap(t *testing.T) {
	writer := &recordingWriter{}
	o := newTestOrchestrator(t, NewRegistry(nil), writer, telemetry.NewRecordingAPI(), 1)
	out, err := o.FetchPricesForProduct(context.Background(), store.Product{Id: "p"}, nil)
	require.NoError(t, err)
	require.Empty(t, out)
	require.Zero(t, writer.Calls())
}

const amazonPage = `<html><body>
	<span id="productTitle"> Noise Cancelling Headphones </span>
	<span class="a-price"><span class="a-offscreen">₹24,990.00</span></span>
</body></html>`

// amazon answers with a product page while flipkart refuses every request.
func TestFetchPricesEndToEnd(t *testing.T) {
	amazonServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(amazonPage))
	}))
	defer amazonServer.Close()
	flipkartServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer flipkartServer.Close()

	svc := testutil.SetupService(t, testutil.ServiceParams{Name: "tracker"})
	opts := scrapers.Options{
		Timeout:    time.Second * 5,
		UserAgents: []string{"test-agent"},
		RateLimit:  rate.Inf,
	}
	amazonExtractor, err := amazon.New(opts, svc.Telemetry)
	require.NoError(t, err)
	flipkartExtractor, err := flipkart.New(opts, svc.Telemetry)
	require.NoError(t, err)
	registry := NewRegistry(map[string]scrapers.Extractor{
		"amazon":   amazonExtractor,
		"flipkart": flipkartExtractor,
	})
	o := newTestOrchestrator(t, registry, svc.Store, svc.Telemetry, 1)

	ctx := context.Background()
	product, err := svc.Store.CreateProduct(ctx, store.CreateProductParams{
		Name: "Headphones",
		StoreUrls: map[string]string{
			"amazon":   amazonServer.URL + "/dp/1",
			"flipkart": flipkartServer.URL + "/p/1",
		},
	})
	require.NoError(t, err)

	out, err := o.FetchPricesForProduct(ctx, product, product.StoreUrls)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "Amazon", out[0].Store)
	require.Equal(t, 24990.0, out[0].Price)

	history, err := svc.Store.ListObservations(ctx, product.Id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, out[0], history[0])

	latest := LatestPerStore(history)
	require.Len(t, latest, 1)
	require.Equal(t, "Amazon", latest[0].Store)
	require.Equal(t, amazonServer.URL+"/dp/1", latest[0].ProductUrl)
}
