// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

package liveness

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// maxJitter is the fraction of delay that randomly added or removed from
// each backoff.
const maxJitter = 0.2

// AttemptRecord store the history of attempts on single Target.
type AttemptRecord struct {
	// Outcomes of each attempt, in order.
	Outcomes []ProbeOutcome

	// Delays store the backoff before the second attempt and so on.
	Delays []time.Duration

	// Backoff is the total of Delays.
	Backoff time.Duration

	Attempts int
}

// Last return the outcome of the last attempt.
func (rec *AttemptRecord) Last() (out ProbeOutcome) {
	if len(rec.Outcomes) == 0 {
		return out
	}
	return rec.Outcomes[len(rec.Outcomes)-1]
}

// retrier resolve the Target by probing it until the outcome is terminal
// or the number of attempts reach maxAttempts.
type retrier struct {
	prober  *prober
	limiter *rate.Limiter
	log     *zerolog.Logger

	// jitter return random number in [-1, 1).
	jitter func() float64

	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func newRetrier(opts Options) (rt *retrier) {
	return &retrier{
		prober:      newProber(opts),
		limiter:     opts.limiter,
		log:         opts.Logger,
		jitter:      randJitter,
		maxAttempts: opts.MaxAttempts,
		baseDelay:   opts.BaseDelay,
		maxDelay:    opts.MaxDelay,
	}
}

// resolve probe the target.
// It return non-nil error only if the ctx is cancelled before the
// terminal outcome is known.
func (rt *retrier) resolve(ctx context.Context, target Target) (rec AttemptRecord, err error) {
	var (
		out  ProbeOutcome
		prev time.Duration
	)
	for attempt := 1; attempt <= rt.maxAttempts; attempt++ {
		if attempt > 1 {
			var delay = backoffDelay(attempt, rt.baseDelay,
				rt.maxDelay, rt.jitter(), out.RetryAfter, prev)
			prev = delay

			rt.log.Debug().Str(`url`, target.URL).
				Str(`status`, string(out.Status)).
				Int(`attempt`, attempt).
				Dur(`delay`, delay).
				Msg(`retry`)

			err = sleep(ctx, delay)
			if err != nil {
				return rec, err
			}
			rec.Delays = append(rec.Delays, delay)
			rec.Backoff += delay
		}
		err = ctx.Err()
		if err != nil {
			return rec, err
		}
		if rt.limiter != nil {
			err = rt.limiter.Wait(ctx)
			if err != nil {
				return rec, err
			}
		}

		out = rt.prober.probe(ctx, target.URL)

		// The request is interrupted by the caller, not by the
		// server or the attempt timeout.
		if ctx.Err() != nil && out.Err != nil {
			return rec, ctx.Err()
		}

		rec.Outcomes = append(rec.Outcomes, out)
		rec.Attempts = attempt

		var logev = rt.log.Debug().Str(`url`, target.URL).
			Str(`method`, out.Method).
			Str(`status`, string(out.Status)).
			Int(`code`, out.Code).
			Dur(`elapsed`, out.Elapsed)
		if out.Err != nil {
			logev = logev.Err(out.Err)
		}
		logev.Msg(`probe`)

		if !isRetryable(out) {
			break
		}
	}
	return rec, nil
}

// isRetryable return true if the outcome may change on the next attempt.
// Server error is not retried to avoid hammering a failing host.
func isRetryable(out ProbeOutcome) bool {
	switch out.Status {
	case StatusRateLimited, StatusTimeout:
		return true
	case StatusConnectionFailed:
		return !errors.Is(out.Err, ErrInvalidURL)
	}
	return false
}

// backoffDelay return the delay before the attempt-th probe, with attempt
// start from 2.
// The jitter in [-1, 1) scale the delay by up to [maxJitter].
// The retryAfter, if larger, raise the computed delay.
// The prev is the delay before the previous attempt; if the delay does not
// exceed it, the delay is doubled from prev.
// The result never exceed maxDelay.
func backoffDelay(
	attempt int, baseDelay, maxDelay time.Duration,
	jitter float64, retryAfter, prev time.Duration,
) (delay time.Duration) {
	delay = baseDelay
	for x := 2; x < attempt; x++ {
		if delay >= maxDelay {
			break
		}
		delay *= 2
	}
	delay += time.Duration(float64(delay) * maxJitter * jitter)
	if retryAfter > delay {
		delay = retryAfter
	}
	if prev > 0 && delay <= prev {
		delay = 2 * prev
	}
	if delay > maxDelay {
		delay = maxDelay
	}
	if delay < 0 {
		delay = 0
	}
	return delay
}

func randJitter() float64 {
	return rand.Float64()*2 - 1
}

// sleep for duration d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	var timer = time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
