// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

// Package liveness check whether a batch of URLs is reachable, using a
// bounded pool of workers.
//
// Each URL is probed with HEAD request, and with GET request if the server
// does not allow HEAD.
// URL that return 429 or failed to connect is retried with exponential
// backoff.
// URL that return 404 can be searched for its replacement.
package liveness

import (
	"context"
	"fmt"
)

// Check the urls using the opts.
// The returned error is only caused by invalid options.
func Check(ctx context.Context, opts Options, urls []string) (result *Result, err error) {
	var logp = `Check`
	var dsp *Dispatcher

	dsp, err = New(opts)
	if err != nil {
		return nil, fmt.Errorf(`%s: %w`, logp, err)
	}

	result = dsp.Run(ctx, urls)

	return result, nil
}
