// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"git.sr.ht/~shulhan/pakakeh.go/lib/test"
)

func TestParseDuckDuckGo(t *testing.T) {
	var body, err = os.Open(`testdata/duckduckgo.html`)
	if err != nil {
		t.Fatal(err)
	}
	defer body.Close()

	var hits []Hit
	hits, err = parseDuckDuckGo(body, 10)
	if err != nil {
		t.Fatal(err)
	}

	var exp = []Hit{{
		Title: `The new post`,
		URL:   `https://example.com/blog/new-post`,
	}, {
		Title: `Archive of old post`,
		URL:   `https://archive.example.org/old-post`,
	}, {
		Title: `Mirror`,
		URL:   `https://mirror.example.net/old-post`,
	}}
	test.Assert(t, `hits`, exp, hits)
}

func TestParseDuckDuckGo_max(t *testing.T) {
	var body, err = os.Open(`testdata/duckduckgo.html`)
	if err != nil {
		t.Fatal(err)
	}
	defer body.Close()

	var hits []Hit
	hits, err = parseDuckDuckGo(body, 1)
	if err != nil {
		t.Fatal(err)
	}
	test.Assert(t, `number of hits`, 1, len(hits))
}

func TestUnwrapRedirect(t *testing.T) {
	type testCase struct {
		href string
		exp  string
	}
	var listCase = []testCase{{
		href: `//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fa&rut=x`,
		exp:  `https://example.com/a`,
	}, {
		href: `//duckduckgo.com/l/?rut=x`,
	}, {
		href: `https://example.com/b`,
		exp:  `https://example.com/b`,
	}, {
		href: `/relative`,
	}, {
		href: `mailto:someone@example.com`,
	}}
	for _, tcase := range listCase {
		test.Assert(t, tcase.href, tcase.exp, unwrapRedirect(tcase.href))
	}
}

func TestDuckDuckGo_Search(t *testing.T) {
	var fixture, err = os.ReadFile(`testdata/duckduckgo.html`)
	if err != nil {
		t.Fatal(err)
	}

	var gotQuery, gotUserAgent string
	var srv = httptest.NewServer(http.HandlerFunc(
		func(resp http.ResponseWriter, req *http.Request) {
			gotQuery = req.URL.Query().Get(`q`)
			gotUserAgent = req.Header.Get(`User-Agent`)
			switch gotQuery {
			case `blocked`:
				resp.WriteHeader(http.StatusAccepted)
			case `broken`:
				resp.WriteHeader(http.StatusBadGateway)
			default:
				_, _ = resp.Write(fixture)
			}
		}))
	defer srv.Close()

	var ddg = NewDuckDuckGo(srv.Client(), `alive-test`)
	ddg.Endpoint = srv.URL + `/html/`

	var hits []Hit
	hits, err = ddg.Search(context.Background(), `site:example.com old post`, 2)
	if err != nil {
		t.Fatal(err)
	}
	test.Assert(t, `query`, `site:example.com old post`, gotQuery)
	test.Assert(t, `User-Agent`, `alive-test`, gotUserAgent)
	test.Assert(t, `number of hits`, 2, len(hits))

	_, err = ddg.Search(context.Background(), `blocked`, 2)
	test.Assert(t, `rate limited`, true, errors.Is(err, ErrRateLimited))

	_, err = ddg.Search(context.Background(), `broken`, 2)
	if err == nil {
		t.Fatal(`expecting error on status 502`)
	}
	test.Assert(t, `rate limited on 502`, false, errors.Is(err, ErrRateLimited))
}
