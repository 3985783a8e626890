package amazon

import (
	"context"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pricepulse-backend/internal/components/telemetry"
	"pricepulse-backend/internal/scrapers"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func fixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/blocked" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		contents, err := os.ReadFile(filepath.Join("testdata", filepath.Base(r.URL.Path)+".html"))
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("content-type", "text/html; charset=utf-8")
		w.Write(contents)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestExtractor(t *testing.T) Extractor {
	t.Helper()
	e, err := New(scrapers.Options{
		Timeout:    time.Second * 5,
		UserAgents: []string{"test-agent"},
		RateLimit:  rate.Inf,
		Rand:       rand.New(rand.NewPCG(1, 1)),
	}, telemetry.NewRecordingAPI())
	require.NoError(t, err)
	return e
}

func TestFetch(t *testing.T) {
	server := fixtureServer(t)
	e := newTestExtractor(t)
	ctx := context.Background()

	cases := []struct {
		path   string
		result scrapers.Result
	}{
		{
			path: "/listing",
			result: scrapers.Result{
				Store: "Amazon",
				Title: "Sony WH-1000XM5 Wireless Noise Cancelling Headphones",
				Price: 26990,
			},
		},
		{
			path: "/deal",
			result: scrapers.Result{
				Store: "Amazon",
				Title: "Kindle Paperwhite",
				Price: 139.99,
			},
		},
		{
			path: "/unavailable",
			result: scrapers.Result{
				Store: "Amazon",
				Title: "Amazon Product",
				Price: 0,
			},
		},
	}
	for _, c := range cases {
		t.Run(c.path, func(t *testing.T) {
			url := server.URL + c.path
			c.result.SourceUrl = url
			res, err := e.Fetch(ctx, url)
			require.NoError(t, err)
			require.Equal(t, c.result, res)
		})
	}
}

func TestFetchErrors(t *testing.T) {
	server := fixtureServer(t)
	e := newTestExtractor(t)

	for _, path := range []string{"/blocked", "/missing"} {
		_, err := e.Fetch(context.Background(), server.URL+path)
		var extractionErr *scrapers.ExtractionError
		require.ErrorAs(t, err, &extractionErr)
		require.Equal(t, StoreName, extractionErr.Store)
		require.Equal(t, server.URL+path, extractionErr.Url)
	}

	_, err := e.Fetch(context.Background(), "http://127.0.0.1:1/unreachable")
	var extractionErr *scrapers.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
}

func TestStore(t *testing.T) {
	require.Equal(t, "Amazon", newTestExtractor(t).Store())
}

func TestFetchWithHttpDump(t *testing.T) {
	server := fixtureServer(t)
	dir := filepath.Join(t.TempDir(), "resty")
	dump, err := telemetry.NewFilesystemDump(dir)
	require.NoError(t, err)

	e, err := New(scrapers.Options{
		Timeout:    time.Second * 5,
		UserAgents: []string{"test-agent"},
		RateLimit:  rate.Inf,
		Rand:       rand.New(rand.NewPCG(1, 1)),
		Dump:       dump,
	}, telemetry.NewRecordingAPI())
	require.NoError(t, err)

	res, err := e.Fetch(context.Background(), server.URL+"/listing")
	require.NoError(t, err)
	require.Equal(t, 26990.0, res.Price)

	_, err = e.Fetch(context.Background(), server.URL+"/blocked")
	var extractionErr *scrapers.ExtractionError
	require.ErrorAs(t, err, &extractionErr)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	contents, err := os.ReadFile(filepath.Join(dir, "1.txt"))
	require.NoError(t, err)
	require.Contains(t, string(contents), "GET "+server.URL+"/listing")
	require.Contains(t, string(contents), "User-Agent: test-agent")
}
