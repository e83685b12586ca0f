// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"git.sr.ht/~shulhan/alive"
	"git.sr.ht/~shulhan/alive/liveness"
	"git.sr.ht/~shulhan/alive/server"
)

// List of exit status.
const (
	exitLive        = 0
	exitNotLive     = 1
	exitInterrupted = 130
)

// cliOptions contains the value of command line flags.
type cliOptions struct {
	address      string
	config       string
	file         string
	format       string
	history      string
	ignoreStatus string
	output       string
	pastResult   string

	timeout time.Duration

	rateLimit float64

	maxAttempts    int
	maxSuggestions int
	workers        int

	insecure bool
	json     bool
	recheck  bool
	suggest  bool
	verbose  bool
}

func main() {
	log.SetFlags(0)

	var cli cliOptions

	flag.StringVar(&cli.address, `address`, `:8080`,
		`The address to listen on "serve" command.`)
	flag.StringVar(&cli.config, `config`, ``,
		`Load the options from TOML file.`)
	flag.StringVar(&cli.file, `file`, ``,
		`Read the URLs from file, one URL per line.`)
	flag.StringVar(&cli.format, `format`, formatText,
		`The format of final report: text, json, or yaml.`)
	flag.StringVar(&cli.history, `history`, ``,
		`Store the result of each run into SQLite database.`)
	flag.StringVar(&cli.ignoreStatus, `ignore-status`, ``,
		`Comma separated HTTP response status code considered as live.`)
	flag.StringVar(&cli.output, `output`, ``,
		`Write the plain text report into file.`)
	flag.StringVar(&cli.pastResult, `past-result`, ``,
		`Check only the URLs that is not live from the past JSON report.`)

	flag.DurationVar(&cli.timeout, `timeout`, liveness.DefaultTimeout,
		`Timeout for each attempt.`)

	flag.Float64Var(&cli.rateLimit, `rate-limit`, 0,
		`Maximum number of requests per second for all workers.`)

	flag.IntVar(&cli.maxAttempts, `max-attempts`, liveness.DefaultMaxAttempts,
		`Number of attempts for each URL, including the first one.`)
	flag.IntVar(&cli.maxSuggestions, `max-suggestions`,
		liveness.DefaultMaxSuggestions,
		`Maximum number of replacement for each dead URL.`)
	flag.IntVar(&cli.workers, `workers`, liveness.DefaultConcurrency,
		`Number of concurrent workers.`)

	flag.BoolVar(&cli.insecure, `insecure`, false,
		`Do not report as error on server with invalid certificates.`)
	flag.BoolVar(&cli.json, `json`, false,
		`Read the input as JSON array and print only JSON report.`)
	flag.BoolVar(&cli.recheck, `recheck`, false,
		`Check only the URLs that is not live from the latest run in history.`)
	flag.BoolVar(&cli.suggest, `suggest`, false,
		`Search for replacement of URL that return 404.`)
	flag.BoolVar(&cli.verbose, `verbose`, false,
		`Print additional information while running.`)

	flag.Parse()

	var args = flag.Args()
	var cmd = strings.ToLower(flag.Arg(0))
	switch cmd {
	case `help`:
		log.Println(alive.GoEmbedReadme)
		return

	case `version`:
		log.Println(alive.Version)
		return

	case `serve`:
		var opts, err = cli.liveOptions()
		if err != nil {
			log.Fatal(err.Error())
		}
		err = runServe(opts, cli.address)
		if err != nil {
			log.Fatal(err.Error())
		}
		return

	case `check`:
		args = args[1:]
	}

	var opts, err = cli.liveOptions()
	if err != nil {
		log.Fatal(err.Error())
	}

	var status int
	status, err = runCheck(&cli, opts, args)
	if err != nil {
		log.Println(err.Error())
		log.Println(`Run "alive help" for usage.`)
		os.Exit(exitNotLive)
	}
	os.Exit(status)
}

// liveOptions merge the options from configuration file with the flags
// that is set explicitly in command line.
func (cli *cliOptions) liveOptions() (opts liveness.Options, err error) {
	var cfg *alive.Config

	cfg, err = alive.LoadConfig(cli.config)
	if err != nil {
		return opts, err
	}
	opts = cfg.Options()
	if cli.history == `` {
		cli.history = cfg.History
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case `ignore-status`:
			opts.IgnoreStatus = cli.ignoreStatus
		case `timeout`:
			opts.Timeout = cli.timeout
		case `rate-limit`:
			opts.RateLimit = cli.rateLimit
		case `max-attempts`:
			opts.MaxAttempts = cli.maxAttempts
		case `max-suggestions`:
			opts.MaxSuggestions = cli.maxSuggestions
		case `workers`:
			opts.Concurrency = cli.workers
		case `insecure`:
			opts.Insecure = cli.insecure
		case `suggest`:
			opts.Suggest = cli.suggest
		}
	})

	var logger = newLogger(cli.verbose)
	opts.Logger = &logger
	return opts, nil
}

// newLogger create logger that write to stderr in human readable format.
func newLogger(verbose bool) zerolog.Logger {
	var level = zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	var out = zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !term.IsTerminal(int(os.Stderr.Fd())),
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func runServe(opts liveness.Options, address string) (err error) {
	var srv *server.Server

	srv, err = server.New(opts, address)
	if err != nil {
		return err
	}

	var ctx, stop = signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	var errc = make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err = <-errc:
		return err
	case <-ctx.Done():
	}

	opts.Logger.Info().Msg(`shutting down`)

	var shutdownCtx, cancel = context.WithTimeout(context.Background(),
		10*time.Second)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf(`serve: %w`, err)
	}
	return nil
}
