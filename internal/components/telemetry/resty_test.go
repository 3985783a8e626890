package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type memoryDump struct {
	mutex    sync.Mutex
	contents map[string]string
}

func (d *memoryDump) Write(id string, contents string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.contents[id] = contents
}

func TestInstrumentResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Served-By", "test")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("<html>missing</html>"))
	}))
	defer server.Close()

	spans := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	rec := NewRecordingAPI()
	dump := &memoryDump{contents: map[string]string{}}

	client := resty.New()
	InstrumentResty(client, rec, provider.Tracer("test"), dump)

	res, err := client.R().SetHeader("User-Agent", "pricepulse-test").Get(server.URL + "/dp/1")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, res.StatusCode())

	require.Len(t, spans.Ended(), 1)
	require.Equal(t, "http GET", spans.Ended()[0].Name())

	require.Len(t, rec.Debug(), 2)
	require.Equal(t, report_resty_request, rec.Debug()[0].Id)
	require.Equal(t, report_resty_response, rec.Debug()[1].Id)

	contents, ok := dump.contents["1"]
	require.True(t, ok)
	require.Contains(t, contents, "GET "+server.URL+"/dp/1")
	require.Contains(t, contents, "User-Agent: pricepulse-test")
	require.Contains(t, contents, "404 ")
	require.Contains(t, contents, "X-Served-By: test")
	require.Contains(t, contents, "<html>missing</html>")
}

func TestInstrumentRestyError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	spans := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	rec := NewRecordingAPI()

	client := resty.New()
	InstrumentResty(client, rec, provider.Tracer("test"), nil)

	_, err := client.R().Get(url)
	require.Error(t, err)
	require.Len(t, spans.Ended(), 1)
	require.Len(t, rec.Warnings(), 1)
	require.Equal(t, report_resty_response, rec.Warnings()[0].Id)
}

func TestInstrumentRestyLeavesCallerSpan(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	spans := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	rec := NewRecordingAPI()

	client := resty.New()
	client.OnBeforeRequest(func(*resty.Client, *resty.Request) error {
		return errors.New("rate limited")
	})
	InstrumentResty(client, rec, provider.Tracer("test"), nil)

	ctx, caller := provider.Tracer("test").Start(context.Background(), "caller")
	_, err := client.R().SetContext(ctx).Get(server.URL)
	require.ErrorContains(t, err, "rate limited")

	require.Empty(t, spans.Ended())
	require.True(t, caller.IsRecording())
	require.Len(t, rec.Warnings(), 1)
	caller.End()
}

func TestInstrumentRestyDumpsBodies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	rec := NewRecordingAPI()
	dump := &memoryDump{contents: map[string]string{}}
	client := resty.New()
	InstrumentResty(client, rec, sdktrace.NewTracerProvider().Tracer("test"), dump)

	_, err := client.R().Get(server.URL + "/empty")
	require.NoError(t, err)
	_, err = client.R().SetBody(`{"query":"phone"}`).Post(server.URL + "/search")
	require.NoError(t, err)

	require.Contains(t, dump.contents["1"], "GET "+server.URL+"/empty")
	require.Contains(t, dump.contents["2"], `{"query":"phone"}`)
}

func TestFilesystemDump(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "resty")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.txt"), []byte("old"), 0o600))

	dump, err := NewFilesystemDump(dir)
	require.NoError(t, err)
	dump.Write("7", "exchange")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	contents, err := os.ReadFile(filepath.Join(dir, "7.txt"))
	require.NoError(t, err)
	require.Equal(t, "exchange", string(contents))
}
