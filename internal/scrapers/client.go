package scrapers

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"net/http/cookiejar"
	"sync"
	"time"

	"pricepulse-backend/internal/components/assert"
	"pricepulse-backend/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	report_client_politeness = "client.politeness"
	report_client_get        = "client.get"
)

type Options struct {
	// Timeout bounds every request.
	Timeout time.Duration
	// A politeness delay drawn uniformly from [MinDelay, MaxDelay] precedes every fetch.
	MinDelay time.Duration
	MaxDelay time.Duration
	// UserAgents is picked from uniformly at random for every request.
	UserAgents []string

	// RateLimit caps the requests per second of the client, zero means one per second.
	RateLimit rate.Limit
	// Rand defaults to a randomly seeded source.
	Rand *rand.Rand
	// Sleep defaults to a context aware time based sleep.
	Sleep func(ctx context.Context, d time.Duration) error
	// Tracer defaults to the global tracer provider.
	Tracer trace.Tracer
	// Dump receives every http exchange when set.
	Dump telemetry.HttpDump
}

// Client is a resty client that waits a politeness delay and rotates user agents.
type Client struct {
	http       *resty.Client
	userAgents []string
	minDelay   time.Duration
	maxDelay   time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	tel        telemetry.API

	randMutex sync.Mutex
	rand      *rand.Rand
}

func NewClient(opts Options, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel, "tel")

	if len(opts.UserAgents) == 0 {
		return nil, fmt.Errorf("at least one user agent is required")
	}
	if opts.MinDelay < 0 || opts.MinDelay > opts.MaxDelay {
		return nil, fmt.Errorf("invalid politeness delay range [%s, %s]", opts.MinDelay, opts.MaxDelay)
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = 1
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Sleep == nil {
		opts.Sleep = Sleep
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("pricepulse/internal/scrapers")
	}

	httpClient := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	httpClient.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpClient.SetHeader("accept-language", "en-IN,en;q=0.9")
	httpClient.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}

	// burst 1 spaces requests out evenly
	rateLimiter := rate.NewLimiter(opts.RateLimit, 1)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, tel, opts.Tracer, opts.Dump)

	return &Client{
		http:       httpClient,
		userAgents: opts.UserAgents,
		minDelay:   opts.MinDelay,
		maxDelay:   opts.MaxDelay,
		sleep:      opts.Sleep,
		tel:        tel,
		rand:       opts.Rand,
	}, nil
}

// Sleep waits for `d` or until ctx is done, whichever happens first.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Delay draws the next politeness delay.
func (c *Client) Delay() time.Duration {
	c.randMutex.Lock()
	defer c.randMutex.Unlock()
	if c.maxDelay == c.minDelay {
		return c.minDelay
	}
	return c.minDelay + time.Duration(c.rand.Int64N(int64(c.maxDelay-c.minDelay)+1))
}

// UserAgent draws the user agent of the next request.
func (c *Client) UserAgent() string {
	c.randMutex.Lock()
	defer c.randMutex.Unlock()
	return c.userAgents[c.rand.IntN(len(c.userAgents))]
}

// GetDocument waits the politeness delay and then loads and parses the html page at `url`.
// A non-2xx response is an error.
func (c *Client) GetDocument(ctx context.Context, url string) (*goquery.Document, error) {
	delay := c.Delay()
	err := c.sleep(ctx, delay)
	if err != nil {
		c.tel.ReportDebug(report_client_politeness, "interrupted", url, delay.String())
		return nil, fmt.Errorf("politeness delay: %w", err)
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("user-agent", c.UserAgent()).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	if !res.IsSuccess() {
		c.tel.ReportDebug(report_client_get, url, res.Status())
		return nil, fmt.Errorf("unexpected status: %s", res.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}
