// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

package liveness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"syscall"
	"time"
)

// ErrInvalidURL define an error when the URL cannot be probed: not
// parseable by [url.Parse], scheme is not http or https, or has no host.
var ErrInvalidURL = errors.New(`invalid URL`)

// ProbeOutcome is the result of one attempt on a URL.
type ProbeOutcome struct {
	// Err is the transport error, nil if the server response.
	Err error

	Status Status

	// Method is the last HTTP method used, HEAD or GET.
	Method string

	// FinalURL is the URL of the response after following redirects.
	FinalURL string

	// Code is the HTTP status code, zero on network failure.
	Code int

	Elapsed time.Duration

	// RetryAfter is the value of Retry-After header on 429 response.
	RetryAfter time.Duration
}

// prober do the HEAD then GET request on a single URL.
type prober struct {
	httpc        Doer
	userAgent    string
	ignoreStatus []int
	timeout      time.Duration
}

func newProber(opts Options) (pr *prober) {
	return &prober{
		httpc:        opts.Client,
		userAgent:    opts.UserAgent,
		ignoreStatus: opts.ignoreStatus,
		timeout:      opts.Timeout,
	}
}

// probe the rawURL once.
// The GET fallback, if any, use the same deadline as the HEAD request.
func (pr *prober) probe(ctx context.Context, rawURL string) (out ProbeOutcome) {
	var start = time.Now()
	defer func() {
		out.Elapsed = time.Since(start)
	}()

	var err = validateURL(rawURL)
	if err != nil {
		out.Status = StatusConnectionFailed
		out.Method = http.MethodHead
		out.Err = err
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, pr.timeout)
	defer cancel()

	out = pr.do(ctx, http.MethodHead, rawURL)
	if needGetFallback(out) {
		out = pr.do(ctx, http.MethodGet, rawURL)
	}
	return out
}

func (pr *prober) do(ctx context.Context, method, rawURL string) (out ProbeOutcome) {
	out.Method = method

	var (
		req *http.Request
		err error
	)
	req, err = http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		out.Status = StatusConnectionFailed
		out.Err = fmt.Errorf(`%w: %w`, ErrInvalidURL, err)
		return out
	}
	req.Header.Set(`User-Agent`, pr.userAgent)

	var httpResp *http.Response
	httpResp, err = pr.httpc.Do(req)
	if err != nil {
		out.Status = classifyError(err)
		out.Err = err
		return out
	}
	if method == http.MethodGet {
		// Read a little of body so the connection can be reused,
		// the rest is discarded by Close.
		_, _ = io.CopyN(io.Discard, httpResp.Body, 4096)
	}
	_ = httpResp.Body.Close()

	out.Code = httpResp.StatusCode
	out.Status = classify(httpResp.StatusCode, pr.ignoreStatus)
	if httpResp.Request != nil && httpResp.Request.URL != nil {
		out.FinalURL = httpResp.Request.URL.String()
	}
	if out.Status == StatusRateLimited {
		out.RetryAfter = parseRetryAfter(httpResp.Header.Get(`Retry-After`))
	}
	return out
}

func validateURL(rawURL string) (err error) {
	if rawURL == `` {
		return fmt.Errorf(`%w: empty`, ErrInvalidURL)
	}
	var u *url.URL
	u, err = url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf(`%w: %w`, ErrInvalidURL, err)
	}
	if u.Scheme != `http` && u.Scheme != `https` {
		return fmt.Errorf(`%w: unsupported scheme %q`, ErrInvalidURL, u.Scheme)
	}
	if u.Host == `` {
		return fmt.Errorf(`%w: missing host`, ErrInvalidURL)
	}
	return nil
}

// needGetFallback return true if the HEAD outcome means the server reject
// the method itself rather than the resource.
// Only 405 and failures after the connection has been established
// qualify.
// DNS failure, refused connection, and timeout would fail the GET request
// too.
func needGetFallback(out ProbeOutcome) bool {
	if out.Method != http.MethodHead {
		return false
	}
	if out.Code == http.StatusMethodNotAllowed {
		return true
	}
	if out.Err == nil || out.Status != StatusConnectionFailed {
		return false
	}
	if errors.Is(out.Err, ErrInvalidURL) || errors.Is(out.Err, context.Canceled) {
		return false
	}
	var errDNS *net.DNSError
	if errors.As(out.Err, &errDNS) {
		return false
	}
	if errors.Is(out.Err, syscall.ECONNREFUSED) {
		return false
	}
	return isPostConnectError(out.Err)
}

// isPostConnectError return true if the error happened after the TCP
// connection established, for example the server close the connection
// or reply with malformed response to HEAD request.
func isPostConnectError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var errOp *net.OpError
	if errors.As(err, &errOp) {
		return errOp.Op == `read` || errOp.Op == `write`
	}
	var errProto *http.ProtocolError
	return errors.As(err, &errProto)
}

// classifyError classify the transport error into timeout or connection
// failed.
func classifyError(err error) Status {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, os.ErrDeadlineExceeded) {
		return StatusTimeout
	}
	var errNet net.Error
	if errors.As(err, &errNet) && errNet.Timeout() {
		return StatusTimeout
	}
	return StatusConnectionFailed
}

// parseRetryAfter parse the Retry-After header in seconds or HTTP-date.
func parseRetryAfter(val string) time.Duration {
	if val == `` {
		return 0
	}
	var secs, err = strconv.Atoi(val)
	if err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	var at time.Time
	at, err = http.ParseTime(val)
	if err != nil {
		return 0
	}
	var wait = time.Until(at)
	if wait < 0 {
		return 0
	}
	return wait
}
