// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

package liveness

import (
	"testing"
	"time"

	"git.sr.ht/~shulhan/pakakeh.go/lib/test"
)

func TestOptions_init(t *testing.T) {
	var opts = Options{
		Concurrency:  1,
		MaxAttempts:  1,
		Timeout:      time.Second,
		IgnoreStatus: ` 403, 410 ,`,
		RateLimit:    5,
		Suggest:      true,
	}
	var err = opts.init()
	if err != nil {
		t.Fatal(err)
	}

	test.Assert(t, `ignoreStatus`, []int{403, 410}, opts.ignoreStatus)
	test.Assert(t, `MaxDelay`, DefaultMaxDelay, opts.MaxDelay)
	test.Assert(t, `MaxSuggestions`, DefaultMaxSuggestions, opts.MaxSuggestions)
	test.Assert(t, `SearchTimeout`, DefaultSearchTimeout, opts.SearchTimeout)
	test.Assert(t, `UserAgent`, DefaultUserAgent, opts.UserAgent)
	test.Assert(t, `Logger set`, true, opts.Logger != nil)
	test.Assert(t, `Client set`, true, opts.Client != nil)
	test.Assert(t, `Searcher set`, true, opts.Searcher != nil)
	test.Assert(t, `limiter set`, true, opts.limiter != nil)
}

func TestOptions_TargetBudget(t *testing.T) {
	var opts = DefaultOptions()
	opts.MaxAttempts = 3
	opts.Timeout = 10 * time.Second
	opts.MaxDelay = 30 * time.Second

	test.Assert(t, `TargetBudget`, 2*time.Minute, opts.TargetBudget())
}
