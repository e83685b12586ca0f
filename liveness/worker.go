// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

package liveness

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// worker consume the Target from task queue, resolve it, and push the
// result to result queue.
type worker struct {
	retrier *retrier

	// suggester is nil if Suggest option is false.
	suggester *suggester

	log *zerolog.Logger

	id int
}

// run process the task queue until its closed.
// Once the ctx is cancelled the remaining task is skipped, not processed.
func (wrk *worker) run(ctx context.Context, taskq <-chan Target, resultq chan<- TargetResult) {
	for target := range taskq {
		if ctx.Err() != nil {
			continue
		}
		var tres, ok = wrk.process(ctx, target)
		if !ok {
			continue
		}
		resultq <- tres
	}
}

// process resolve single target.
// It return false if the target is interrupted by cancellation.
func (wrk *worker) process(ctx context.Context, target Target) (tres TargetResult, ok bool) {
	defer func() {
		var msg = recover()
		if msg == nil {
			return
		}
		wrk.log.Error().Int(`worker`, wrk.id).Str(`url`, target.URL).
			Interface(`panic`, msg).Msg(`process`)
		tres = TargetResult{
			Target:   target,
			Status:   StatusConnectionFailed,
			Error:    fmt.Sprintf(`panic: %v`, msg),
			Attempts: 1,
		}
		ok = true
	}()

	var rec, err = wrk.retrier.resolve(ctx, target)
	if err != nil {
		wrk.log.Debug().Int(`worker`, wrk.id).Str(`url`, target.URL).
			Err(err).Msg(`unresolved`)
		return tres, false
	}

	tres = newTargetResult(target, rec)

	if tres.Status == StatusNotFound && wrk.suggester != nil {
		tres.Suggestions = wrk.suggest(ctx, target.URL)
	}
	return tres, true
}

// suggest search the replacement for deadURL.
// A panic in the search backend is logged and produce no suggestions.
func (wrk *worker) suggest(ctx context.Context, deadURL string) (list []Suggestion) {
	defer func() {
		var msg = recover()
		if msg == nil {
			return
		}
		wrk.log.Error().Int(`worker`, wrk.id).Str(`url`, deadURL).
			Interface(`panic`, msg).Msg(`suggest`)
		list = nil
	}()

	return wrk.suggester.suggest(ctx, deadURL)
}
