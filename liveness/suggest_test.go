// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

package liveness

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"git.sr.ht/~shulhan/pakakeh.go/lib/test"

	"git.sr.ht/~shulhan/alive/search"
)

func newTestSuggester(t *testing.T, fs *fakeSearcher, max int) *suggester {
	var opts = DefaultOptions()
	opts.Suggest = true
	opts.Searcher = fs
	opts.MaxSuggestions = max
	var err = opts.init()
	if err != nil {
		t.Fatal(err)
	}
	return newSuggester(opts)
}

func TestBuildQueries(t *testing.T) {
	type testCase struct {
		rawURL string
		exp    []string
	}
	var listCase = []testCase{{
		rawURL: `https://example.com`,
	}, {
		rawURL: `https://example.com/`,
	}, {
		rawURL: `https://learn.example.com/en-us/azure/sentinel_playbooks/`,
		exp: []string{
			`site:learn.example.com en us azure sentinel playbooks`,
			`learn.example.com en us azure sentinel playbooks`,
		},
	}, {
		rawURL: `http://127.0.0.1:8080/a//b`,
		exp: []string{
			`site:127.0.0.1:8080 a b`,
			`127.0.0.1:8080 a b`,
		},
	}}
	for _, tcase := range listCase {
		var dead, err = url.Parse(tcase.rawURL)
		if err != nil {
			t.Fatal(err)
		}
		test.Assert(t, tcase.rawURL, tcase.exp, buildQueries(dead))
	}
}

func TestIsSameResource(t *testing.T) {
	type testCase struct {
		candidate string
		exp       bool
	}
	var dead, _ = url.Parse(`https://www.example.com/docs/old-page`)
	var listCase = []testCase{{
		candidate: `https://www.example.com/docs/old-page`,
		exp:       true,
	}, {
		candidate: `https://example.com/docs/old-page/`,
		exp:       true,
	}, {
		candidate: `https://docs.example.com/Docs/Old-Page`,
		exp:       true,
	}, {
		candidate: `https://www.example.com/docs/new-page`,
	}, {
		candidate: `https://mirror.example.org/docs/old-page`,
	}}
	for _, tcase := range listCase {
		test.Assert(t, tcase.candidate, tcase.exp,
			isSameResource(dead, tcase.candidate))
	}
}

func TestSuggester_suggest(t *testing.T) {
	const deadURL = `https://example.com/blog/old-post`

	var fs = &fakeSearcher{
		hits: map[string][]search.Hit{
			`site:example.com blog old post`: {
				{Title: `Dead`, URL: deadURL},
				{Title: `Same path`, URL: `https://www.example.com/blog/old-post/`},
				{Title: `New post`, URL: `https://example.com/blog/new-post`},
			},
			`example.com blog old post`: {
				{Title: `New post`, URL: `https://example.com/blog/new-post`},
				{Title: `Archive`, URL: `https://archive.example.org/old-post`},
				{Title: `Mirror`, URL: `https://mirror.example.net/old-post`},
			},
		},
	}
	var sg = newTestSuggester(t, fs, 3)

	var got = sg.suggest(context.Background(), deadURL)

	var exp = []Suggestion{{
		URL:   `https://example.com/blog/new-post`,
		Title: `New post`,
		Query: `site:example.com blog old post`,
		Rank:  1,
	}, {
		URL:   `https://archive.example.org/old-post`,
		Title: `Archive`,
		Query: `example.com blog old post`,
		Rank:  2,
	}, {
		URL:   `https://mirror.example.net/old-post`,
		Title: `Mirror`,
		Query: `example.com blog old post`,
		Rank:  3,
	}}
	test.Assert(t, `suggest`, exp, got)
}

func TestSuggester_suggest_firstQueryEnough(t *testing.T) {
	const deadURL = `https://example.com/a`

	var fs = &fakeSearcher{
		hits: map[string][]search.Hit{
			`site:example.com a`: {
				{Title: `B`, URL: `https://example.com/b`},
			},
		},
	}
	var sg = newTestSuggester(t, fs, 1)

	var got = sg.suggest(context.Background(), deadURL)

	test.Assert(t, `number of suggestion`, 1, len(got))
	test.Assert(t, `queries`, []string{`site:example.com a`}, fs.queries)
}

func TestSuggester_suggest_searchError(t *testing.T) {
	var fs = &fakeSearcher{
		err: errors.New(`search: rate limited`),
	}
	var sg = newTestSuggester(t, fs, 3)

	var got = sg.suggest(context.Background(), `https://example.com/a/b`)

	test.Assert(t, `suggest on error`, 0, len(got))
}

func TestSuggester_suggest_noPath(t *testing.T) {
	var fs = &fakeSearcher{}
	var sg = newTestSuggester(t, fs, 3)

	var got = sg.suggest(context.Background(), `https://example.com/`)

	test.Assert(t, `suggest`, 0, len(got))
	test.Assert(t, `queries`, 0, len(fs.queries))
}
