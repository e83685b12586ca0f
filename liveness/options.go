// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

package liveness

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"git.sr.ht/~shulhan/alive/search"
)

// List of default values for [Options].
const (
	DefaultConcurrency    = 20
	DefaultTimeout        = 10 * time.Second
	DefaultMaxAttempts    = 3
	DefaultBaseDelay      = 1 * time.Second
	DefaultMaxDelay       = 30 * time.Second
	DefaultMaxSuggestions = 3
	DefaultSearchTimeout  = 5 * time.Second
)

// DefaultUserAgent is the User-Agent sent on each probe when
// [Options.UserAgent] is empty.
var DefaultUserAgent = `Mozilla/5.0 (compatible; alive/0.1.0)`

// Doer is the HTTP transport used by probe.
// The [*http.Client] implement this interface.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Searcher query the search backend for replacement of dead URL.
type Searcher interface {
	Search(ctx context.Context, query string, max int) ([]search.Hit, error)
}

// Options define the configuration for checking a batch of URLs.
type Options struct {
	// Logger receive the debug events, one for each attempt and retry.
	// Default to logger that discard everything.
	Logger *zerolog.Logger

	// Client is the HTTP transport for probing.
	// If its nil, the client is created based on Timeout and
	// Insecure.
	Client Doer

	// Searcher is the backend for Suggest.
	// If its nil and Suggest is true, it is set to [search.DuckDuckGo].
	Searcher Searcher

	// OnResult, if not nil, is called for each completed URL, in
	// order of completion, not in order of input.
	OnResult func(TargetResult)

	// UserAgent set the User-Agent header on probe and search.
	UserAgent string

	// IgnoreStatus comma separated list HTTP status code that will be
	// classified as live.
	// The status code must in between 100-511.
	IgnoreStatus string
	ignoreStatus []int

	limiter *rate.Limiter

	// Timeout for each attempt, including the GET fallback.
	Timeout time.Duration

	// BaseDelay is the backoff before the second attempt.
	// The next delay is doubled until MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// SearchTimeout limit the time for each query to search backend.
	SearchTimeout time.Duration

	// RateLimit maximum number of requests per second shared by all
	// workers.
	// Zero means no limit.
	RateLimit float64

	// Concurrency is the number of workers.
	Concurrency int

	// MaxAttempts is the number of probe for a URL, including the
	// first one.
	MaxAttempts int

	// MaxSuggestions is the maximum number of suggestion for each dead
	// URL.
	MaxSuggestions int

	// Suggest enable searching for replacement of URL that return
	// 404.
	Suggest bool

	// Insecure do not report error on server with invalid certificates.
	Insecure bool
}

// DefaultOptions return the Options with all fields set to its default
// values.
func DefaultOptions() Options {
	return Options{
		Concurrency:    DefaultConcurrency,
		Timeout:        DefaultTimeout,
		MaxAttempts:    DefaultMaxAttempts,
		BaseDelay:      DefaultBaseDelay,
		MaxDelay:       DefaultMaxDelay,
		MaxSuggestions: DefaultMaxSuggestions,
		SearchTimeout:  DefaultSearchTimeout,
		UserAgent:      DefaultUserAgent,
	}
}

// TargetBudget return the worst case duration to resolve a single URL,
// excluding the search.
func (opts *Options) TargetBudget() time.Duration {
	return time.Duration(opts.MaxAttempts) * (opts.Timeout + opts.MaxDelay)
}

func (opts *Options) init() (err error) {
	var logp = `Options`

	if opts.Concurrency < 1 {
		return fmt.Errorf(`%s: invalid concurrency %d`, logp, opts.Concurrency)
	}
	if opts.MaxAttempts < 1 {
		return fmt.Errorf(`%s: invalid max attempts %d`, logp, opts.MaxAttempts)
	}
	if opts.Timeout <= 0 {
		return fmt.Errorf(`%s: invalid timeout %s`, logp, opts.Timeout)
	}
	if opts.BaseDelay < 0 {
		return fmt.Errorf(`%s: invalid base delay %s`, logp, opts.BaseDelay)
	}
	if opts.MaxDelay < 0 {
		return fmt.Errorf(`%s: invalid max delay %s`, logp, opts.MaxDelay)
	}
	if opts.MaxDelay == 0 {
		opts.MaxDelay = DefaultMaxDelay
	}
	if opts.RateLimit < 0 {
		return fmt.Errorf(`%s: invalid rate limit %v`, logp, opts.RateLimit)
	}
	if opts.MaxSuggestions < 0 {
		return fmt.Errorf(`%s: invalid max suggestions %d`, logp,
			opts.MaxSuggestions)
	}
	if opts.MaxSuggestions == 0 {
		opts.MaxSuggestions = DefaultMaxSuggestions
	}
	if opts.SearchTimeout < 0 {
		return fmt.Errorf(`%s: invalid search timeout %s`, logp,
			opts.SearchTimeout)
	}
	if opts.SearchTimeout == 0 {
		opts.SearchTimeout = DefaultSearchTimeout
	}
	if opts.UserAgent == `` {
		opts.UserAgent = DefaultUserAgent
	}

	opts.ignoreStatus = nil
	var listCode = strings.Split(opts.IgnoreStatus, `,`)
	var val string
	for _, val = range listCode {
		val = strings.TrimSpace(val)
		if val == `` {
			continue
		}
		var code int64
		code, err = strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf(`%s: invalid status code %q`, logp, val)
		}
		if code < http.StatusContinue ||
			code > http.StatusNetworkAuthenticationRequired {
			return fmt.Errorf(`%s: unknown status code %q`, logp, val)
		}
		opts.ignoreStatus = append(opts.ignoreStatus, int(code))
	}

	if opts.Logger == nil {
		var nop = zerolog.Nop()
		opts.Logger = &nop
	}
	if opts.Client == nil {
		opts.Client = newHTTPClient(opts.Insecure)
	}
	if opts.Suggest && opts.Searcher == nil {
		opts.Searcher = search.NewDuckDuckGo(opts.Client, opts.UserAgent)
	}
	if opts.RateLimit > 0 {
		opts.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return nil
}

// newHTTPClient create HTTP client for probing.
// The timeout is not set here, each probe has its own deadline from
// context.
func newHTTPClient(insecure bool) (httpc *http.Client) {
	var netDial = &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	var tlsConfig = &tls.Config{
		InsecureSkipVerify: insecure,
	}
	httpc = &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           netDial.DialContext,
			ExpectContinueTimeout: 1 * time.Second,
			ForceAttemptHTTP2:     true,
			IdleConnTimeout:       90 * time.Second,
			MaxIdleConns:          100,
			TLSClientConfig:       tlsConfig,
			TLSHandshakeTimeout:   10 * time.Second,
		},
	}
	return httpc
}
