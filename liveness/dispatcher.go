// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

package liveness

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Dispatcher check a batch of URLs using fixed number of workers.
// The same Dispatcher can be used to run multiple batches, sequentially or
// concurrently.
type Dispatcher struct {
	retrier   *retrier
	suggester *suggester
	opts      Options
}

// New create new Dispatcher.
// It return an error if one of the options is invalid.
func New(opts Options) (dsp *Dispatcher, err error) {
	err = opts.init()
	if err != nil {
		return nil, err
	}

	dsp = &Dispatcher{
		opts:    opts,
		retrier: newRetrier(opts),
	}
	if opts.Suggest {
		dsp.suggester = newSuggester(opts)
	}
	return dsp, nil
}

// Options return the options used by Dispatcher, after the default values
// has been applied.
func (dsp *Dispatcher) Options() Options {
	return dsp.opts
}

// Run check all of the urls and return the result in the same order.
//
// If the ctx is cancelled, the URLs that has not been started are not
// checked and the one in progress is interrupted.
// The result contains only the completed URLs, and the URLs that is not
// completed in Result.Pending.
func (dsp *Dispatcher) Run(ctx context.Context, urls []string) (result *Result) {
	var started = time.Now()

	var nworker = min(dsp.opts.Concurrency, len(urls))
	var (
		taskq   = make(chan Target, dsp.opts.Concurrency)
		resultq = make(chan TargetResult, dsp.opts.Concurrency)
		group   errgroup.Group
	)

	go feed(ctx, taskq, urls)

	for id := range nworker {
		var wrk = &worker{
			id:        id,
			retrier:   dsp.retrier,
			suggester: dsp.suggester,
			log:       dsp.opts.Logger,
		}
		group.Go(func() error {
			wrk.run(ctx, taskq, resultq)
			return nil
		})
	}
	go func() {
		_ = group.Wait()
		close(resultq)
	}()

	result = collect(resultq, urls, dsp.opts.OnResult)
	result.Started = started
	result.Finished = time.Now()

	if result.Unresolved != 0 {
		dsp.opts.Logger.Debug().Int(`unresolved`, result.Unresolved).
			Int(`total`, len(urls)).Msg(`cancelled`)
	}
	return result
}

// feed push each URL as Target into taskq until all URLs has been pushed
// or ctx is cancelled.
func feed(ctx context.Context, taskq chan<- Target, urls []string) {
	defer close(taskq)
	for idx, rawURL := range urls {
		var target = Target{
			URL:   rawURL,
			Index: idx,
		}
		select {
		case <-ctx.Done():
			return
		case taskq <- target:
		}
	}
}
