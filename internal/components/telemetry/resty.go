package telemetry

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_resty_request  = "resty.request"
	report_resty_response = "resty.response"
)

type instrumentResty struct {
	tel       API
	tracer    trace.Tracer
	dump      HttpDump
	idcounter *uint64
}

// InstrumentResty starts a span for every request made by `client` and reports the request
// lifecycle to `tel`. The span is ended in the response or the error hook. `dump` may be nil,
// otherwise it receives every exchange that got a response.
func InstrumentResty(client *resty.Client, tel API, tracer trace.Tracer, dump HttpDump) {
	var idcounter uint64
	i := instrumentResty{tel: tel, tracer: tracer, dump: dump, idcounter: &idcounter}

	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

type reqCtxKeyType int

var reqCtxKey reqCtxKeyType

type reqCtx struct {
	id uint64
	// startTime does not need to rely on chrono because it does not depend on the
	// absolute time, just the difference in time.
	startTime time.Time
	// span is the span started by onBeforeRequest, hooks only ever end this one.
	span trace.Span
}

func (i instrumentResty) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx, span := i.tracer.Start(req.Context(), fmt.Sprintf("http %s", req.Method))

	id := atomic.AddUint64(i.idcounter, 1)
	ctx = context.WithValue(ctx, reqCtxKey, reqCtx{
		id:        id,
		startTime: time.Now(),
		span:      span,
	})
	i.tel.ReportDebug(report_resty_request, id, req.Method, req.URL)

	req.SetContext(ctx)
	return nil
}

func (i instrumentResty) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	rc, ok := res.Request.Context().Value(reqCtxKey).(reqCtx)
	if !ok {
		return nil
	}
	defer rc.span.End()

	// request attributes are set here since res.Request.RawRequest is nil in onBeforeRequest
	rc.span.SetAttributes(httpconv.ClientRequest(res.Request.RawRequest)...)
	rc.span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)
	if res.IsError() {
		rc.span.SetStatus(codes.Error, res.Status())
	}

	i.tel.ReportDebug(
		report_resty_response,
		rc.id,
		time.Since(rc.startTime).String(),
		res.Status(),
	)
	if i.dump != nil {
		i.dump.Write(strconv.FormatUint(rc.id, 10), formatHttpExchange(res))
	}
	return nil
}

// onError also runs when an earlier before-request hook rejected the request, in which case
// there is no span of ours in the context.
func (i instrumentResty) onError(req *resty.Request, err error) {
	var duration time.Duration
	rc, ok := req.Context().Value(reqCtxKey).(reqCtx)
	if ok {
		defer rc.span.End()
		duration = time.Since(rc.startTime)

		rc.span.RecordError(err)
		rc.span.SetStatus(codes.Error, "request failed")
		if req.RawRequest != nil {
			rc.span.SetAttributes(httpconv.ClientRequest(req.RawRequest)...)
		}
	}

	i.tel.ReportWarning(
		report_resty_response,
		err,
		req.Method,
		req.URL,
		duration.String(),
	)
}
