// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

package liveness

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"git.sr.ht/~shulhan/alive/search"
)

// Suggestion is the candidate replacement of dead URL.
type Suggestion struct {
	URL   string `json:"url"`
	Title string `json:"title"`

	// Query is the search query that return this URL.
	Query string `json:"query"`

	// Rank is the position of the URL in the combined search result,
	// start from 1.
	Rank int `json:"rank"`
}

// suggester search for replacement of URL that return 404.
type suggester struct {
	searcher Searcher
	log      *zerolog.Logger
	timeout  time.Duration
	max      int
}

func newSuggester(opts Options) (sg *suggester) {
	return &suggester{
		searcher: opts.Searcher,
		log:      opts.Logger,
		timeout:  opts.SearchTimeout,
		max:      opts.MaxSuggestions,
	}
}

// suggest return at most sg.max replacement for deadURL.
// Any error from the search backend is logged and end the search; the
// suggestions collected before the error are returned.
func (sg *suggester) suggest(ctx context.Context, deadURL string) (list []Suggestion) {
	var dead, err = url.Parse(deadURL)
	if err != nil {
		return nil
	}
	var listQuery = buildQueries(dead)
	if len(listQuery) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, sg.timeout)
	defer cancel()

	var seen = map[string]struct{}{
		deadURL: {},
	}
	for _, query := range listQuery {
		if len(list) >= sg.max {
			break
		}

		var hits []search.Hit
		hits, err = sg.searcher.Search(ctx, query, sg.max)
		if err != nil {
			sg.log.Debug().Str(`url`, deadURL).Str(`query`, query).
				Err(err).Msg(`search failed`)
			break
		}
		for _, hit := range hits {
			if len(list) >= sg.max {
				break
			}
			if _, ok := seen[hit.URL]; ok {
				continue
			}
			seen[hit.URL] = struct{}{}
			if isSameResource(dead, hit.URL) {
				continue
			}
			list = append(list, Suggestion{
				URL:   hit.URL,
				Title: hit.Title,
				Query: query,
				Rank:  len(list) + 1,
			})
		}
	}
	return list
}

// buildQueries return the search queries for dead URL, in order of
// priority.
// The first query restrict the search into the same site, the second one
// search the site name and path as keywords.
// URL without path return nil, there is not enough information to search.
func buildQueries(dead *url.URL) (listQuery []string) {
	var listTerm []string
	for _, segment := range strings.Split(dead.Path, `/`) {
		if segment == `` {
			continue
		}
		segment = strings.ReplaceAll(segment, `-`, ` `)
		segment = strings.ReplaceAll(segment, `_`, ` `)
		listTerm = append(listTerm, segment)
	}
	if len(listTerm) == 0 {
		return nil
	}
	var terms = strings.Join(listTerm, ` `)
	listQuery = []string{
		`site:` + dead.Host + ` ` + terms,
		dead.Host + ` ` + terms,
	}
	return listQuery
}

// isSameResource return true if the candidate point to the same path on
// the same site as the dead URL.
func isSameResource(dead *url.URL, candidate string) bool {
	var cand, err = url.Parse(candidate)
	if err != nil {
		return true
	}
	if registrableDomain(cand.Hostname()) != registrableDomain(dead.Hostname()) {
		return false
	}
	return normalizePath(cand.Path) == normalizePath(dead.Path)
}

func registrableDomain(host string) string {
	host = strings.ToLower(host)
	var domain, err = publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

func normalizePath(path string) string {
	path = strings.ToLower(path)
	path = strings.TrimSuffix(path, `/`)
	return path
}
