// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

package liveness

import (
	"net/http"
	"slices"
)

// Status is the classification of a probe outcome.
type Status string

// List of classification for probe outcome.
const (
	StatusLive             Status = `live`
	StatusNotFound         Status = `not_found`
	StatusClientError      Status = `client_error`
	StatusServerError      Status = `server_error`
	StatusRateLimited      Status = `rate_limited`
	StatusTimeout          Status = `timeout`
	StatusConnectionFailed Status = `connection_failed`

	// StatusUnresolved mark the URL that is not completed because the
	// check is cancelled.
	// It is never returned by probe.
	StatusUnresolved Status = `unresolved`
)

// IsLive return true if the status means the URL is reachable.
func (status Status) IsLive() bool {
	return status == StatusLive
}

// classify the HTTP response status code.
// The code listed in ignoreStatus is always classified as live.
func classify(code int, ignoreStatus []int) Status {
	if slices.Contains(ignoreStatus, code) {
		return StatusLive
	}
	switch {
	case code == http.StatusNotFound:
		return StatusNotFound
	case code == http.StatusTooManyRequests:
		return StatusRateLimited
	case code >= http.StatusOK && code < http.StatusBadRequest:
		return StatusLive
	case code >= http.StatusBadRequest && code < http.StatusInternalServerError:
		return StatusClientError
	case code >= http.StatusInternalServerError && code < 600:
		return StatusServerError
	}
	// Informational status code never reach the client as final
	// response, anything else is a broken server.
	return StatusServerError
}
