package httpclient

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

type Options struct {
	Timeout   time.Duration
	UserAgent string
}

// New returns a resty client with a per-request timeout and connection reuse.
// Retries are left to the caller.
func New(opts Options) *resty.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	client := resty.NewWithClient(&http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        50,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	})
	client.SetTimeout(opts.Timeout)
	client.SetRetryCount(0)
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	return client
}
