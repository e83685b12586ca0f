// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"git.sr.ht/~shulhan/pakakeh.go/lib/test"

	"git.sr.ht/~shulhan/alive/history"
	"git.sr.ht/~shulhan/alive/liveness"
)

func TestReadURLs_file(t *testing.T) {
	var file = filepath.Join(t.TempDir(), `urls.txt`)
	var err = os.WriteFile(file, []byte("http://b/\n\nhttp://c/\n"), 0600)
	if err != nil {
		t.Fatal(err)
	}

	var cli = &cliOptions{file: file}
	var urls []string
	urls, err = readURLs(context.Background(), cli, nil, []string{`http://a/`})
	if err != nil {
		t.Fatal(err)
	}
	test.Assert(t, `urls`, []string{`http://a/`, `http://b/`, `http://c/`}, urls)
}

func TestReadURLs_pastResult(t *testing.T) {
	var file = filepath.Join(t.TempDir(), `past.json`)
	var past = `[
  {"url": "http://a/", "status": "live", "success": true},
  {"url": "http://b/", "status": "not_found", "success": false},
  {"url": "http://c/", "status": "timeout", "success": false}
]`
	var err = os.WriteFile(file, []byte(past), 0600)
	if err != nil {
		t.Fatal(err)
	}

	var cli = &cliOptions{pastResult: file}
	var urls []string
	urls, err = readURLs(context.Background(), cli, nil, []string{`http://ignored/`})
	if err != nil {
		t.Fatal(err)
	}
	test.Assert(t, `urls`, []string{`http://b/`, `http://c/`}, urls)
}

func TestReadURLs_recheck(t *testing.T) {
	var store, err = history.Open(filepath.Join(t.TempDir(), `history.db`))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	var cli = &cliOptions{recheck: true}
	var urls []string

	// Empty history.
	urls, err = readURLs(context.Background(), cli, store, nil)
	if err != nil {
		t.Fatal(err)
	}
	test.Assert(t, `empty history`, 0, len(urls))

	var result = &liveness.Result{
		Targets: []liveness.TargetResult{{
			Target: liveness.Target{URL: `http://a/`},
			Status: liveness.StatusServerError,
			Code:   500,
		}, {
			Target: liveness.Target{URL: `http://b/`, Index: 1},
			Status: liveness.StatusLive,
			Code:   200,
		}},
	}
	_, err = store.SaveRun(context.Background(), result)
	if err != nil {
		t.Fatal(err)
	}

	urls, err = readURLs(context.Background(), cli, store, nil)
	if err != nil {
		t.Fatal(err)
	}
	test.Assert(t, `urls`, []string{`http://a/`}, urls)

	// Interrupted run.
	result = &liveness.Result{
		Targets: []liveness.TargetResult{{
			Target: liveness.Target{URL: `http://b/`, Index: 1},
			Status: liveness.StatusLive,
			Code:   200,
		}},
		Pending: []liveness.Target{
			{URL: `http://a/`, Index: 0},
			{URL: `http://c/`, Index: 2},
		},
		Unresolved: 2,
	}
	_, err = store.SaveRun(context.Background(), result)
	if err != nil {
		t.Fatal(err)
	}

	urls, err = readURLs(context.Background(), cli, store, nil)
	if err != nil {
		t.Fatal(err)
	}
	test.Assert(t, `unresolved urls`, []string{`http://a/`, `http://c/`}, urls)
}

func TestReadURLs_jsonArgs(t *testing.T) {
	var dir = t.TempDir()
	var listFile = []string{
		filepath.Join(dir, `a.json`),
		filepath.Join(dir, `b.json`),
	}
	var err = os.WriteFile(listFile[0], []byte(`["http://a/", "http://b/"]`), 0600)
	if err != nil {
		t.Fatal(err)
	}
	err = os.WriteFile(listFile[1], []byte(`["http://c/"]`), 0600)
	if err != nil {
		t.Fatal(err)
	}

	var cli = &cliOptions{json: true}
	var urls []string
	urls, err = readURLs(context.Background(), cli, nil, listFile)
	if err != nil {
		t.Fatal(err)
	}
	test.Assert(t, `urls`, []string{`http://a/`, `http://b/`, `http://c/`}, urls)

	_, err = readURLs(context.Background(), cli, nil,
		[]string{filepath.Join(dir, `missing.json`)})
	if err == nil {
		t.Fatal(`expecting error on missing JSON file`)
	}
}

func TestWriteReport(t *testing.T) {
	var result = &liveness.Result{
		Targets: []liveness.TargetResult{{
			Target: liveness.Target{URL: `http://a/`},
			Status: liveness.StatusLive,
			Code:   200,
		}},
	}

	var buf bytes.Buffer
	var err = writeReport(&buf, formatText, result, true, false)
	if err != nil {
		t.Fatal(err)
	}
	test.Assert(t, `text`, true,
		strings.Contains(buf.String(), `Working URLs:  1`))
	test.Assert(t, `text without URL lines`, false,
		strings.Contains(buf.String(), `http://a/`))

	buf.Reset()
	err = writeReport(&buf, formatText, result, false, false)
	if err != nil {
		t.Fatal(err)
	}
	test.Assert(t, `text not live`, true,
		strings.Contains(buf.String(), `--- Alive URL Checker Report ---`))
	test.Assert(t, `text not live has URL`, true,
		strings.Contains(buf.String(), `http://a/`))

	buf.Reset()
	err = writeReport(&buf, formatJSON, result, true, false)
	if err != nil {
		t.Fatal(err)
	}
	test.Assert(t, `json`, true,
		strings.HasPrefix(buf.String(), "[\n  {"))

	buf.Reset()
	err = writeReport(&buf, formatYAML, result, true, false)
	if err != nil {
		t.Fatal(err)
	}
	test.Assert(t, `yaml`, true,
		strings.Contains(buf.String(), `url: http://a/`))
}
