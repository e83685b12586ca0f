// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"git.sr.ht/~shulhan/alive/liveness"
)

// List of ANSI escape codes for terminal output.
const (
	colorGreen = "\033[92m"
	colorRed   = "\033[91m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
	colorReset = "\033[0m"
)

const (
	symbolLive = `✅`
	symbolDead = `❌`
)

// maxAltLen is the maximum length of title and URL in the alternatives
// list.
const maxAltLen = 75

// TimeFormat is the format of timestamp in the report header.
const TimeFormat = `2006-01-02 15:04:05`

// FormatEntry return the entry as one or more lines, without trailing new
// line.
// The verbose add the status code and elapsed time in the second line.
// The color enable the ANSI escape codes for terminal.
func FormatEntry(entry Entry, verbose, color bool) string {
	var (
		sb    strings.Builder
		sym   = symbolDead
		symCo = colorRed
	)
	if entry.Success {
		sym = symbolLive
		symCo = colorGreen
	}
	if color {
		sb.WriteString(symCo + colorBold + sym + colorReset)
	} else {
		sb.WriteString(sym)
	}
	fmt.Fprintf(&sb, ` %s - %s`, entry.URL, entry.Message)

	if verbose {
		var parts []string
		if entry.StatusCode != nil {
			parts = append(parts, `STATUS: `+strconv.Itoa(*entry.StatusCode))
		}
		if entry.ElapsedMs != nil {
			parts = append(parts, fmt.Sprintf(`TIME: %dms`, *entry.ElapsedMs))
		}
		if entry.Attempts > 1 {
			parts = append(parts, `ATTEMPTS: `+strconv.Itoa(entry.Attempts))
		}
		if len(parts) != 0 {
			sb.WriteString("\n")
			if color {
				sb.WriteString(colorGray)
			}
			sb.WriteString(`    ` + strings.Join(parts, ` | `))
			if color {
				sb.WriteString(colorReset)
			}
		}
	}

	if entry.Status != liveness.StatusNotFound || len(entry.Alternatives) == 0 {
		return sb.String()
	}

	sb.WriteString("\n")
	if color {
		sb.WriteString(colorBold + `    🔍 Alternatives Found:` + colorReset)
	} else {
		sb.WriteString(`    🔍 Alternatives Found:`)
	}
	for x, alt := range entry.Alternatives {
		var altURL = truncate(alt.URL, maxAltLen)
		if color {
			altURL = colorGray + altURL + colorReset
		}
		fmt.Fprintf(&sb, "\n        %d. %s (%s)", x+1,
			truncate(alt.Title, maxAltLen), altURL)
	}
	return sb.String()
}

// Text write the result as plain text report, with header, summary, and
// one or more lines for each URL.
func Text(w io.Writer, result *liveness.Result, verbose bool) (err error) {
	var logp = `Text`
	var sb strings.Builder

	var ts = result.Finished
	if ts.IsZero() {
		ts = time.Now()
	}

	sb.WriteString("--- Alive URL Checker Report ---\n")
	fmt.Fprintf(&sb, "Timestamp: %s\n", ts.Format(TimeFormat))
	fmt.Fprintf(&sb, "Summary: %d/%d URLs are working\n", result.CountLive(),
		len(result.Targets))
	if result.Unresolved != 0 {
		fmt.Fprintf(&sb, "Unresolved: %d\n", result.Unresolved)
	}
	sb.WriteString(strings.Repeat(`-`, 35) + "\n")

	for _, tres := range result.Targets {
		sb.WriteString(FormatEntry(NewEntry(tres), verbose, false))
		sb.WriteString("\n")
	}

	_, err = io.WriteString(w, sb.String())
	if err != nil {
		return fmt.Errorf(`%s: %w`, logp, err)
	}
	return nil
}

// Summary write the number of checked, working, and failed URLs.
func Summary(w io.Writer, result *liveness.Result) (err error) {
	var logp = `Summary`
	var sb strings.Builder
	var nlive = result.CountLive()

	sb.WriteString("\n" + strings.Repeat(`=`, 50) + "\n")
	sb.WriteString("--- FINAL SUMMARY ---\n")
	fmt.Fprintf(&sb, "Total checked: %d\n", len(result.Targets))
	fmt.Fprintf(&sb, "Working URLs:  %d\n", nlive)
	fmt.Fprintf(&sb, "Failed URLs:   %d\n", len(result.Targets)-nlive)
	if result.Unresolved != 0 {
		fmt.Fprintf(&sb, "Unresolved:    %d\n", result.Unresolved)
	}

	_, err = io.WriteString(w, sb.String())
	if err != nil {
		return fmt.Errorf(`%s: %w`, logp, err)
	}
	return nil
}

// truncate the text into max runes, including the "..." suffix.
func truncate(text string, max int) string {
	var runes = []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-3]) + `...`
}
