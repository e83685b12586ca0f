// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"git.sr.ht/~shulhan/alive/internal"
)

// cacheFileName is the name of cache file inside the user cache directory.
const cacheFileName = `search.json`

// Cache store the hits of query that has been searched, to minimize
// request to the search backend in the future.
// The cache is stored as JSON file under user's cache directory, inside
// "alive" directory.
// For example, in Linux it should be "$HOME/.cache/alive/search.json".
// See [os.UserCacheDir] for location specific to operating system.
type Cache struct {
	engine Engine

	// Queries map the query and maximum hits into its result.
	Queries map[string][]Hit `json:"queries"`

	file string
	mtx  sync.Mutex
}

// LoadCache from local storage.
// The engine is used to search the query that is not in the cache.
func LoadCache(engine Engine) (cache *Cache, err error) {
	var logp = `LoadCache`

	cache = &Cache{
		engine:  engine,
		Queries: map[string][]Hit{},
	}

	cache.file, err = internal.CacheFile(cacheFileName)
	if err != nil {
		return nil, fmt.Errorf(`%s: %w`, logp, err)
	}

	var cacheJSON []byte
	cacheJSON, err = os.ReadFile(cache.file)
	if err != nil {
		if os.IsNotExist(err) {
			return cache, nil
		}
		return nil, fmt.Errorf(`%s: %w`, logp, err)
	}

	err = json.Unmarshal(cacheJSON, &cache)
	if err != nil {
		return nil, fmt.Errorf(`%s: %w`, logp, err)
	}
	if cache.Queries == nil {
		cache.Queries = map[string][]Hit{}
	}

	return cache, nil
}

// Search return the hits from cache, or from the engine if the query has
// not been searched before.
// Only non-empty result is stored.
func (cache *Cache) Search(ctx context.Context, query string, max int) (hits []Hit, err error) {
	var key = strconv.Itoa(max) + `:` + query

	cache.mtx.Lock()
	hits = cache.Queries[key]
	cache.mtx.Unlock()
	if len(hits) != 0 {
		return hits, nil
	}

	hits, err = cache.engine.Search(ctx, query, max)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	cache.mtx.Lock()
	cache.Queries[key] = hits
	cache.mtx.Unlock()

	return hits, nil
}

// Save the cache into local storage.
func (cache *Cache) Save() (err error) {
	var logp = `Save`
	var cacheJSON []byte

	cache.mtx.Lock()
	cacheJSON, err = json.MarshalIndent(cache, ``, `  `)
	cache.mtx.Unlock()
	if err != nil {
		return fmt.Errorf(`%s: %w`, logp, err)
	}

	cacheJSON = append(cacheJSON, '\n')

	err = os.WriteFile(cache.file, cacheJSON, 0600)
	if err != nil {
		return fmt.Errorf(`%s: %w`, logp, err)
	}
	return nil
}
