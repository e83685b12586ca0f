// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

package liveness

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"git.sr.ht/~shulhan/alive/search"
)

// fakeDoer reply the request using handle function and record the method
// and URL of each request.
type fakeDoer struct {
	handle func(req *http.Request) (*http.Response, error)
	reqs   []string
	mtx    sync.Mutex
}

func (fd *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	fd.mtx.Lock()
	fd.reqs = append(fd.reqs, req.Method+` `+req.URL.String())
	fd.mtx.Unlock()
	return fd.handle(req)
}

func (fd *fakeDoer) requests() []string {
	fd.mtx.Lock()
	defer fd.mtx.Unlock()
	return append([]string(nil), fd.reqs...)
}

func newFakeResponse(req *http.Request, code int) *http.Response {
	return &http.Response{
		StatusCode: code,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(``)),
		Request:    req,
	}
}

// replyCode create handle that always reply with the code.
func replyCode(code int) func(*http.Request) (*http.Response, error) {
	return func(req *http.Request) (*http.Response, error) {
		return newFakeResponse(req, code), nil
	}
}

// fakeSearcher reply with fixed hits for each query.
type fakeSearcher struct {
	err     error
	hits    map[string][]search.Hit
	queries []string
	mtx     sync.Mutex
}

func (fs *fakeSearcher) Search(_ context.Context, query string, max int) ([]search.Hit, error) {
	fs.mtx.Lock()
	fs.queries = append(fs.queries, query)
	fs.mtx.Unlock()
	if fs.err != nil {
		return nil, fs.err
	}
	var hits = fs.hits[query]
	if len(hits) > max {
		hits = hits[:max]
	}
	return hits, nil
}
