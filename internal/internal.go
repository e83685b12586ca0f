// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

package internal

import (
	"fmt"
	"os"
	"path/filepath"
)

// CacheFile return the path to cache file name under [os.UserCacheDir] +
// "alive" directory.
// This variable defined here so the test file can override it.
var CacheFile = DefaultCacheFile

// DefaultCacheFile create the "alive" directory under user's cache
// directory, if its not exist, and return the path to file name inside
// it.
func DefaultCacheFile(name string) (cacheFile string, err error) {
	var logp = `DefaultCacheFile`
	var cacheDir string

	cacheDir, err = os.UserCacheDir()
	if err != nil {
		return ``, fmt.Errorf(`%s: %w`, logp, err)
	}
	cacheDir = filepath.Join(cacheDir, `alive`)

	err = os.MkdirAll(cacheDir, 0700)
	if err != nil {
		return ``, fmt.Errorf(`%s: %w`, logp, err)
	}

	cacheFile = filepath.Join(cacheDir, name)
	return cacheFile, nil
}
