// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"

	"git.sr.ht/~shulhan/alive"
	"git.sr.ht/~shulhan/alive/history"
	"git.sr.ht/~shulhan/alive/liveness"
	"git.sr.ht/~shulhan/alive/report"
	"git.sr.ht/~shulhan/alive/search"
)

// List of report format.
const (
	formatText = `text`
	formatJSON = `json`
	formatYAML = `yaml`
)

const progressTemplate = `{{ string . "prefix" }} {{ counters . }} {{ bar . }} {{ percent . }} {{ rtime . "ETA %s" }}`

// runCheck check the URLs and print the report.
// It return the exit status, or an error if the input or options is
// invalid.
func runCheck(cli *cliOptions, opts liveness.Options, args []string) (status int, err error) {
	var format = cli.format
	if cli.json && !isFlagSet(`format`) {
		format = formatJSON
	}
	switch format {
	case formatText, formatJSON, formatYAML:
	default:
		return exitNotLive, fmt.Errorf(`unknown format %q`, format)
	}

	var ctx, stop = signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *history.Store
	if cli.history != `` {
		store, err = history.Open(cli.history)
		if err != nil {
			return exitNotLive, err
		}
		defer store.Close()
	} else if cli.recheck {
		return exitNotLive, errors.New(`option -recheck require -history`)
	}

	var urls []string
	urls, err = readURLs(ctx, cli, store, args)
	if err != nil {
		return exitNotLive, err
	}
	if len(urls) == 0 {
		if cli.recheck || cli.pastResult != `` {
			opts.Logger.Info().Msg(`nothing to recheck`)
			return exitLive, nil
		}
		return exitNotLive, errors.New(`missing URLs to be checked`)
	}

	var cache *search.Cache
	if opts.Suggest && opts.Searcher == nil {
		var ddg = search.NewDuckDuckGo(nil, opts.UserAgent)
		cache, err = search.LoadCache(ddg)
		if err != nil {
			opts.Logger.Warn().Err(err).Msg(`search cache disabled`)
			opts.Searcher = ddg
		} else {
			opts.Searcher = cache
		}
	}

	var (
		stdoutIsTerm = term.IsTerminal(int(os.Stdout.Fd()))
		stderrIsTerm = term.IsTerminal(int(os.Stderr.Fd()))
		bar          *pb.ProgressBar
	)
	if format == formatText {
		if stdoutIsTerm {
			fmt.Printf("Checking %d URLs with %d concurrent workers.\n",
				len(urls), min(opts.Concurrency, len(urls)))
			fmt.Println(`--- LIVE RESULTS ---`)
			opts.OnResult = func(tres liveness.TargetResult) {
				var entry = report.NewEntry(tres)
				fmt.Println(report.FormatEntry(entry, cli.verbose, true))
			}
		}
	} else if stderrIsTerm {
		bar = newProgressBar(len(urls), os.Stderr)
		opts.OnResult = func(liveness.TargetResult) {
			bar.Increment()
		}
	}

	var dsp *liveness.Dispatcher
	dsp, err = liveness.New(opts)
	if err != nil {
		return exitNotLive, err
	}

	var result = dsp.Run(ctx, urls)

	if bar != nil {
		bar.Finish()
	}

	if cache != nil {
		err = cache.Save()
		if err != nil {
			opts.Logger.Warn().Err(err).Msg(`save search cache`)
		}
	}

	err = writeReport(os.Stdout, format, result, stdoutIsTerm, cli.verbose)
	if err != nil {
		return exitNotLive, err
	}

	if cli.output != `` {
		err = writeTextReport(cli.output, result, cli.verbose)
		if err != nil {
			opts.Logger.Error().Err(err).Str(`file`, cli.output).
				Msg(`write report`)
		} else if format == formatText && stdoutIsTerm {
			fmt.Printf("Results successfully written to: %s\n", cli.output)
		}
	}

	if store != nil {
		var runID int64
		runID, err = store.SaveRun(context.Background(), result)
		if err != nil {
			opts.Logger.Error().Err(err).Msg(`save history`)
		} else {
			opts.Logger.Debug().Int64(`run`, runID).Msg(`history saved`)
		}
	}

	if ctx.Err() != nil {
		return exitInterrupted, nil
	}
	if result.IsAllLive() {
		return exitLive, nil
	}
	return exitNotLive, nil
}

// readURLs return the URLs to be checked, in the following order of
// priority: failed URLs from history, failed URLs from past result,
// and URLs from arguments, file, or standard input.
// In JSON mode, each argument is the path to JSON file.
func readURLs(ctx context.Context, cli *cliOptions, store *history.Store, args []string) (urls []string, err error) {
	if cli.recheck {
		var run *history.Run
		run, err = store.LatestRun(ctx)
		if err != nil {
			if errors.Is(err, history.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return store.FailedURLs(ctx, run.ID)
	}

	if cli.pastResult != `` {
		var entries []report.Entry
		entries, err = report.Load(cli.pastResult)
		if err != nil {
			return nil, err
		}
		return report.FailedURLs(entries), nil
	}

	if cli.json {
		// Each argument is a JSON file.
		for _, arg := range args {
			var list []string
			list, err = readJSONFile(arg)
			if err != nil {
				return nil, err
			}
			urls = append(urls, list...)
		}
	} else {
		urls = append(urls, args...)
	}

	var (
		in   io.Reader
		list []string
	)
	if cli.file != `` {
		var file *os.File
		file, err = os.Open(cli.file)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		in = file
	} else if len(args) == 0 && !term.IsTerminal(int(os.Stdin.Fd())) {
		in = os.Stdin
	}
	if in == nil {
		return urls, nil
	}

	if cli.json {
		list, err = alive.ReadJSON(in)
	} else {
		list, err = alive.ReadLines(in)
	}
	if err != nil {
		return nil, err
	}
	return append(urls, list...), nil
}

func readJSONFile(path string) (urls []string, err error) {
	var file *os.File
	file, err = os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	urls, err = alive.ReadJSON(file)
	if err != nil {
		return nil, fmt.Errorf(`%s: %w`, path, err)
	}
	return urls, nil
}

func newProgressBar(total int, out io.Writer) (bar *pb.ProgressBar) {
	bar = pb.New(total)
	bar.SetTemplateString(progressTemplate)
	bar.Set(`prefix`, `Checking`)
	bar.SetWriter(out)
	bar.SetMaxWidth(100)
	bar.Start()
	return bar
}

// writeReport write the final report in format.
// In text format, if the result has been printed live, only the summary
// is written.
func writeReport(out io.Writer, format string, result *liveness.Result, live, verbose bool) error {
	switch format {
	case formatJSON:
		return report.JSON(out, result)
	case formatYAML:
		return report.YAML(out, result)
	}
	if live {
		return report.Summary(out, result)
	}
	return report.Text(out, result, verbose)
}

func writeTextReport(file string, result *liveness.Result, verbose bool) (err error) {
	var out *os.File
	out, err = os.Create(file)
	if err != nil {
		return err
	}
	err = report.Text(out, result, verbose)
	if err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func isFlagSet(name string) (found bool) {
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
