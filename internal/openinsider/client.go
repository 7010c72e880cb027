package openinsider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/bighogz/insider-ingest/internal/httpclient"
	"github.com/bighogz/insider-ingest/internal/logging"
	"github.com/bighogz/insider-ingest/internal/metrics"
	"github.com/bighogz/insider-ingest/internal/models"
)

var tracer = otel.Tracer("insider-ingest/openinsider")

const (
	DefaultBaseURL = "https://openinsider.com/screener"

	// pageSize is the most rows the screener returns on one page.
	pageSize = 5000

	screenerQuery = "s=&o=&pl=&ph=&ll=&lh=&fd=-1&fdr=%s+-+%s&td=0&tdr=&fdlyl=&fdlyh=&daysago=&xp=1&xs=1" +
		"&vl=&vh=&ocl=&och=&sic1=-1&sicl=100&sich=9999&grp=0&nfl=&nfh=&nil=&nih=&nol=&noh=" +
		"&v2l=&v2h=&oc2l=&oc2h=&sortcol=0&cnt=%d&page=1"
)

// NetworkError is a failed attempt: a transport error, a 5xx or a 429.
// It is the only error the client retries.
type NetworkError struct {
	URL    string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("openinsider: GET %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("openinsider: GET %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

type Options struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	Retry             RetryPolicy
	RequestsPerSecond float64
}

type Client struct {
	http    *resty.Client
	baseURL string
	retry   RetryPolicy
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(opts Options, logger *slog.Logger, m *metrics.Metrics) *Client {
	if strings.TrimSpace(opts.BaseURL) == "" {
		opts.BaseURL = DefaultBaseURL
	}
	c := &Client{
		http: httpclient.New(httpclient.Options{
			Timeout:   opts.Timeout,
			UserAgent: opts.UserAgent,
		}),
		baseURL: strings.TrimRight(opts.BaseURL, "?"),
		retry:   opts.Retry,
		logger:  logging.OrDiscard(logger),
		metrics: m,
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c
}

// ScreenerURL is the single-page query covering every filing in unit's month.
func (c *Client) ScreenerURL(unit models.WorkUnit) string {
	start := unit.Start().Format("01/02/2006")
	end := unit.End().Format("01/02/2006")
	return c.baseURL + "?" + fmt.Sprintf(screenerQuery, start, end, pageSize)
}

// Fetch GETs url, retrying network errors per the client's policy. After
// the last attempt it returns an error wrapping ErrRetriesExhausted.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	policy := c.retry
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		c.logger.Warn("fetch attempt failed, retrying",
			"attempt", attempt,
			"wait", wait,
			"error", err)
	}

	var body []byte
	err := Retry(ctx, policy, func(ctx context.Context) error {
		b, err := c.fetchOnce(ctx, url)
		c.metrics.FetchAttempt(err)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("bytes", len(body)))
	return body, nil
}

func (c *Client) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	res, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &NetworkError{URL: url, Err: err}
	}
	if transientStatus(res.StatusCode()) {
		return nil, &NetworkError{URL: url, Status: res.StatusCode(), Err: errors.New(res.Status())}
	}
	if res.StatusCode() >= 300 {
		c.logger.Debug("non-success status, handing body to parser", "url", url, "status", res.StatusCode())
	}
	return res.Body(), nil
}

// transientStatus marks responses worth retrying. Other statuses carry a
// body the parser can judge on its own.
func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
