// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

// Package search provide the web search backend for finding replacement of
// dead URL.
package search

import (
	"context"
	"errors"
	"net/http"
)

// ErrRateLimited define an error when the search backend refuse the query
// because of too many requests.
var ErrRateLimited = errors.New(`search: rate limited`)

// Hit is one item from search result.
type Hit struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Engine is the search backend.
type Engine interface {
	Search(ctx context.Context, query string, max int) ([]Hit, error)
}

// Doer is the HTTP transport for querying the search backend.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}
