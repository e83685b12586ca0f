// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

package liveness

import (
	"testing"

	"git.sr.ht/~shulhan/pakakeh.go/lib/test"
)

func TestCollect(t *testing.T) {
	var resultq = make(chan TargetResult, 10)
	var listIndex = []int{3, 0, 4, 1, 2}
	for _, idx := range listIndex {
		resultq <- TargetResult{
			Target: Target{Index: idx},
			Status: StatusLive,
		}
	}
	close(resultq)

	var gotOrder []int
	var urls = []string{`a`, `b`, `c`, `d`, `e`}
	var result = collect(resultq, urls, func(tres TargetResult) {
		gotOrder = append(gotOrder, tres.Target.Index)
	})

	test.Assert(t, `callback order`, listIndex, gotOrder)
	test.Assert(t, `Unresolved`, 0, result.Unresolved)
	test.Assert(t, `Pending`, 0, len(result.Pending))
	test.Assert(t, `number of targets`, 5, len(result.Targets))
	for idx, tres := range result.Targets {
		test.Assert(t, `index`, idx, tres.Target.Index)
	}
	test.Assert(t, `IsAllLive`, true, result.IsAllLive())
}

func TestCollect_partial(t *testing.T) {
	var resultq = make(chan TargetResult, 10)
	resultq <- TargetResult{Target: Target{Index: 2}, Status: StatusLive}
	resultq <- TargetResult{Target: Target{Index: 0}, Status: StatusNotFound}
	close(resultq)

	var urls = []string{`a`, `b`, `c`, `d`}
	var result = collect(resultq, urls, nil)

	var expPending = []Target{{URL: `b`, Index: 1}, {URL: `d`, Index: 3}}
	test.Assert(t, `Unresolved`, 2, result.Unresolved)
	test.Assert(t, `Pending`, expPending, result.Pending)
	test.Assert(t, `number of targets`, 2, len(result.Targets))
	test.Assert(t, `first`, 0, result.Targets[0].Target.Index)
	test.Assert(t, `second`, 2, result.Targets[1].Target.Index)
	test.Assert(t, `CountLive`, 1, result.CountLive())
	test.Assert(t, `IsAllLive`, false, result.IsAllLive())
}
