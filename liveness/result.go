// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

package liveness

import (
	"time"
)

// Target is the URL to be checked and its position in the input.
type Target struct {
	URL   string `json:"url"`
	Index int    `json:"index"`
}

// TargetResult store the final verdict of a Target.
type TargetResult struct {
	Target Target `json:"target"`

	Status Status `json:"status"`

	// Error contains the transport error message of the last attempt,
	// if any.
	Error string `json:"error,omitempty"`

	Method   string `json:"method"`
	FinalURL string `json:"final_url,omitempty"`

	// Suggestions only filled if the Status is StatusNotFound and
	// [Options.Suggest] is true.
	Suggestions []Suggestion `json:"suggestions,omitempty"`

	// Code is the HTTP status code of the last attempt, zero if the
	// server is not reachable.
	Code int `json:"code,omitempty"`

	Attempts int `json:"attempts"`

	// Elapsed is the duration of the last attempt.
	Elapsed time.Duration `json:"elapsed"`
}

func newTargetResult(target Target, rec AttemptRecord) (tres TargetResult) {
	var last = rec.Last()
	tres = TargetResult{
		Target:   target,
		Status:   last.Status,
		Method:   last.Method,
		FinalURL: last.FinalURL,
		Code:     last.Code,
		Attempts: rec.Attempts,
		Elapsed:  last.Elapsed,
	}
	if last.Err != nil {
		tres.Error = last.Err.Error()
	}
	return tres
}

// Result store the result of checking a batch of URLs.
type Result struct {
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`

	// Targets contains the result of each URL, in the same order as
	// input.
	// If the check is cancelled, it contains only the completed URLs.
	Targets []TargetResult `json:"targets"`

	// Pending contains the URLs that is not completed because the check
	// is cancelled, in the same order as input.
	Pending []Target `json:"pending,omitempty"`

	// Unresolved is the number of URLs in Pending.
	Unresolved int `json:"unresolved"`
}

// IsAllLive return true if all URLs is completed and live.
func (result *Result) IsAllLive() bool {
	if result.Unresolved != 0 {
		return false
	}
	for _, tres := range result.Targets {
		if !tres.Status.IsLive() {
			return false
		}
	}
	return true
}

// CountLive return the number of live URLs.
func (result *Result) CountLive() (n int) {
	for _, tres := range result.Targets {
		if tres.Status.IsLive() {
			n++
		}
	}
	return n
}

// collect the TargetResult from resultq until its closed, and return
// them ordered by their input index.
// The urls whose result is never received are returned as Pending.
// The onResult, if not nil, is called for each item once received.
func collect(resultq <-chan TargetResult, urls []string, onResult func(TargetResult)) (result *Result) {
	var (
		total  = len(urls)
		slots  = make([]*TargetResult, total)
		filled int
	)
	for tres := range resultq {
		if tres.Target.Index < 0 || tres.Target.Index >= total {
			continue
		}
		if slots[tres.Target.Index] != nil {
			continue
		}
		slots[tres.Target.Index] = &tres
		filled++
		if onResult != nil {
			onResult(tres)
		}
	}

	result = &Result{
		Targets:    make([]TargetResult, 0, filled),
		Unresolved: total - filled,
	}
	for idx, tres := range slots {
		if tres != nil {
			result.Targets = append(result.Targets, *tres)
			continue
		}
		result.Pending = append(result.Pending, Target{
			URL:   urls[idx],
			Index: idx,
		})
	}
	return result
}
