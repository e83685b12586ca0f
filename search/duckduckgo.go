// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultDuckDuckGoEndpoint is the HTML-only endpoint of DuckDuckGo.
const DefaultDuckDuckGoEndpoint = `https://html.duckduckgo.com/html/`

// DuckDuckGo query the HTML endpoint of DuckDuckGo and parse the result
// links.
type DuckDuckGo struct {
	httpc Doer

	// Endpoint of search, default to [DefaultDuckDuckGoEndpoint].
	Endpoint string

	UserAgent string
}

// NewDuckDuckGo create new search engine using httpc as HTTP transport.
func NewDuckDuckGo(httpc Doer, userAgent string) (ddg *DuckDuckGo) {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &DuckDuckGo{
		httpc:     httpc,
		Endpoint:  DefaultDuckDuckGoEndpoint,
		UserAgent: userAgent,
	}
}

// Search return at most max hits for the query.
func (ddg *DuckDuckGo) Search(ctx context.Context, query string, max int) (hits []Hit, err error) {
	var logp = `DuckDuckGo.Search`

	var endpoint *url.URL
	endpoint, err = url.Parse(ddg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf(`%s: %w`, logp, err)
	}
	var params = endpoint.Query()
	params.Set(`q`, query)
	endpoint.RawQuery = params.Encode()

	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf(`%s: %w`, logp, err)
	}
	if ddg.UserAgent != `` {
		req.Header.Set(`User-Agent`, ddg.UserAgent)
	}

	var httpResp *http.Response
	httpResp, err = ddg.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf(`%s: %w`, logp, err)
	}
	defer httpResp.Body.Close()

	// DuckDuckGo reply with 202 and a challenge page when it think
	// the client is a bot.
	if httpResp.StatusCode == http.StatusTooManyRequests ||
		httpResp.StatusCode == http.StatusAccepted {
		return nil, fmt.Errorf(`%s: %w`, logp, ErrRateLimited)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(`%s: %q return HTTP status code %d`,
			logp, query, httpResp.StatusCode)
	}

	hits, err = parseDuckDuckGo(httpResp.Body, max)
	if err != nil {
		return nil, fmt.Errorf(`%s: %w`, logp, err)
	}
	return hits, nil
}

// parseDuckDuckGo parse the HTML result page and return the link on each
// anchor with class "result__a".
func parseDuckDuckGo(body io.Reader, max int) (hits []Hit, err error) {
	var doc *html.Node
	doc, err = html.Parse(body)
	if err != nil {
		return nil, err
	}

	var node *html.Node
	for node = range doc.Descendants() {
		if len(hits) >= max {
			break
		}
		if node.Type != html.ElementNode || node.DataAtom != atom.A {
			continue
		}
		var href, class string
		for _, attr := range node.Attr {
			switch attr.Key {
			case `href`:
				href = attr.Val
			case `class`:
				class = attr.Val
			}
		}
		if !slices.Contains(strings.Fields(class), `result__a`) {
			continue
		}
		href = unwrapRedirect(href)
		if href == `` {
			continue
		}
		hits = append(hits, Hit{
			Title: strings.TrimSpace(textContent(node)),
			URL:   href,
		})
	}
	return hits, nil
}

// unwrapRedirect return the target URL from DuckDuckGo redirect link
// "//duckduckgo.com/l/?uddg=<url>".
// Link that is not absolute HTTP URL is ignored.
func unwrapRedirect(href string) string {
	var u, err = url.Parse(href)
	if err != nil {
		return ``
	}
	if strings.HasPrefix(u.Path, `/l/`) {
		var target = u.Query().Get(`uddg`)
		if target == `` {
			return ``
		}
		u, err = url.Parse(target)
		if err != nil {
			return ``
		}
	}
	if u.Scheme != `http` && u.Scheme != `https` {
		return ``
	}
	return u.String()
}

func textContent(node *html.Node) string {
	var sb strings.Builder
	var child *html.Node
	for child = range node.Descendants() {
		if child.Type == html.TextNode {
			sb.WriteString(child.Data)
		}
	}
	return sb.String()
}
