// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

// Package report render the [liveness.Result] as plain text, JSON, or
// YAML, and load the past JSON report.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"git.sr.ht/~shulhan/alive/liveness"
)

// Alternative is the replacement candidate of URL that return 404.
type Alternative struct {
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
}

// Entry is the serialized form of single [liveness.TargetResult].
type Entry struct {
	// StatusCode is nil if the server is not reachable.
	StatusCode *int `json:"status_code" yaml:"status_code"`

	// ElapsedMs is nil if the server is not reachable.
	ElapsedMs *int64 `json:"elapsed_ms" yaml:"elapsed_ms"`

	URL      string          `json:"url" yaml:"url"`
	Status   liveness.Status `json:"status" yaml:"status"`
	Method   string          `json:"method" yaml:"method"`
	FinalURL string          `json:"final_url,omitempty" yaml:"final_url,omitempty"`
	Message  string          `json:"message" yaml:"message"`

	// Suggestions contains only the URL of Alternatives, nil if there
	// is no alternatives.
	Suggestions  []string      `json:"suggestions" yaml:"suggestions"`
	Alternatives []Alternative `json:"alternatives" yaml:"alternatives"`

	Attempts int  `json:"attempts" yaml:"attempts"`
	Success  bool `json:"success" yaml:"success"`
}

// NewEntry convert the TargetResult into Entry.
func NewEntry(tres liveness.TargetResult) (entry Entry) {
	entry = Entry{
		URL:          tres.Target.URL,
		Status:       tres.Status,
		Success:      tres.Status.IsLive(),
		Attempts:     tres.Attempts,
		Method:       tres.Method,
		FinalURL:     tres.FinalURL,
		Message:      message(tres),
		Alternatives: []Alternative{},
	}
	if tres.Code != 0 {
		var code = tres.Code
		var ms = tres.Elapsed.Milliseconds()
		entry.StatusCode = &code
		entry.ElapsedMs = &ms
	}
	for _, sug := range tres.Suggestions {
		entry.Suggestions = append(entry.Suggestions, sug.URL)
		entry.Alternatives = append(entry.Alternatives, Alternative{
			Title: sug.Title,
			URL:   sug.URL,
		})
	}
	return entry
}

// NewEntries convert the completed and pending targets in result into
// list of Entry, ordered by their input index.
// The pending target has status [liveness.StatusUnresolved].
func NewEntries(result *liveness.Result) (entries []Entry) {
	entries = make([]Entry, 0, len(result.Targets)+len(result.Pending))

	var pending = result.Pending
	for _, tres := range result.Targets {
		for len(pending) != 0 && pending[0].Index < tres.Target.Index {
			entries = append(entries, newPendingEntry(pending[0]))
			pending = pending[1:]
		}
		entries = append(entries, NewEntry(tres))
	}
	for _, target := range pending {
		entries = append(entries, newPendingEntry(target))
	}
	return entries
}

func newPendingEntry(target liveness.Target) Entry {
	return NewEntry(liveness.TargetResult{
		Target: target,
		Status: liveness.StatusUnresolved,
	})
}

// message return the human readable verdict of the target.
func message(tres liveness.TargetResult) string {
	switch tres.Status {
	case liveness.StatusUnresolved:
		return `Not checked`
	case liveness.StatusTimeout:
		return `Request timed out`
	case liveness.StatusConnectionFailed:
		if strings.HasPrefix(tres.Error, liveness.ErrInvalidURL.Error()) {
			return `Invalid URL format`
		}
		if strings.HasPrefix(tres.Error, `panic:`) {
			return `Execution error: ` + tres.Error
		}
		return `Connection failed`
	case liveness.StatusLive:
		if tres.FinalURL != `` && tres.FinalURL != tres.Target.URL {
			return `Redirected to ` + tres.FinalURL
		}
		if tres.Code >= http.StatusOK && tres.Code < http.StatusMultipleChoices {
			return `OK`
		}
	}
	return fmt.Sprintf(`HTTP %d`, tres.Code)
}

// JSON write the result as indented JSON array of [Entry].
func JSON(w io.Writer, result *liveness.Result) (err error) {
	var logp = `JSON`
	var raw []byte

	raw, err = json.MarshalIndent(NewEntries(result), ``, `  `)
	if err != nil {
		return fmt.Errorf(`%s: %w`, logp, err)
	}
	raw = append(raw, '\n')

	_, err = w.Write(raw)
	if err != nil {
		return fmt.Errorf(`%s: %w`, logp, err)
	}
	return nil
}

// YAML write the result as YAML sequence of [Entry].
func YAML(w io.Writer, result *liveness.Result) (err error) {
	var logp = `YAML`

	var enc = yaml.NewEncoder(w)
	enc.SetIndent(2)

	err = enc.Encode(NewEntries(result))
	if err != nil {
		return fmt.Errorf(`%s: %w`, logp, err)
	}
	err = enc.Close()
	if err != nil {
		return fmt.Errorf(`%s: %w`, logp, err)
	}
	return nil
}

// Load the past report from JSON file.
func Load(file string) (entries []Entry, err error) {
	var logp = `Load`
	var raw []byte

	raw, err = os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf(`%s: %w`, logp, err)
	}

	err = json.Unmarshal(raw, &entries)
	if err != nil {
		return nil, fmt.Errorf(`%s: %s: %w`, logp, file, err)
	}
	return entries, nil
}

// FailedURLs return the URL of entries that is not success, including the
// unresolved one.
func FailedURLs(entries []Entry) (urls []string) {
	for _, entry := range entries {
		if !entry.Success {
			urls = append(urls, entry.URL)
		}
	}
	return urls
}
