// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

package alive

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ReadLines read one URL per line from r.
// Empty line and line start with "#" are skipped.
// The URL is not validated, invalid URL is reported by the checker.
func ReadLines(r io.Reader) (urls []string, err error) {
	var logp = `ReadLines`

	var scanner = bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		var line = strings.TrimSpace(scanner.Text())
		if line == `` || strings.HasPrefix(line, `#`) {
			continue
		}
		urls = append(urls, line)
	}
	err = scanner.Err()
	if err != nil {
		return nil, fmt.Errorf(`%s: %w`, logp, err)
	}
	return urls, nil
}

// ReadJSON read JSON array of URL string from r.
func ReadJSON(r io.Reader) (urls []string, err error) {
	var logp = `ReadJSON`

	var dec = json.NewDecoder(r)
	err = dec.Decode(&urls)
	if err != nil {
		return nil, fmt.Errorf(`%s: JSON input must be a list of URLs: %w`,
			logp, err)
	}
	return urls, nil
}
