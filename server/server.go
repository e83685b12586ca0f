// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

// Package server expose the liveness checker as HTTP service.
//
// The service has two endpoints,
//
//	GET /healthz
//	POST /check {"urls": ["..."], "suggest": false}
//
// The POST /check block until all URLs has been checked or the client
// disconnected, and reply with list of report entries in the same order
// as the request.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"git.sr.ht/~shulhan/alive/liveness"
	"git.sr.ht/~shulhan/alive/report"
)

// DefaultMaxURLs is the maximum number of URLs on each request.
const DefaultMaxURLs = 1000

// maxBodySize limit the size of request body on POST /check.
const maxBodySize = 4 << 20

// CheckRequest is the request body of POST /check.
type CheckRequest struct {
	URLs    []string `json:"urls"`
	Suggest bool     `json:"suggest"`
}

// CheckResponse is the response body of POST /check.
type CheckResponse struct {
	Results    []report.Entry `json:"results"`
	Total      int            `json:"total"`
	Live       int            `json:"live"`
	Unresolved int            `json:"unresolved"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server is the HTTP service of liveness checker.
type Server struct {
	log        *zerolog.Logger
	httpd      *http.Server
	dsp        *liveness.Dispatcher
	dspSuggest *liveness.Dispatcher

	// MaxURLs is the maximum number of URLs accepted on each request.
	MaxURLs int
}

// New create new Server that listen on address.
// The opts.Suggest is ignored, each request set it by itself.
func New(opts liveness.Options, address string) (srv *Server, err error) {
	var logp = `New`

	opts.OnResult = nil

	srv = &Server{
		MaxURLs: DefaultMaxURLs,
	}

	opts.Suggest = false
	srv.dsp, err = liveness.New(opts)
	if err != nil {
		return nil, fmt.Errorf(`%s: %w`, logp, err)
	}
	opts.Suggest = true
	srv.dspSuggest, err = liveness.New(opts)
	if err != nil {
		return nil, fmt.Errorf(`%s: %w`, logp, err)
	}

	var dspOpts = srv.dsp.Options()
	srv.log = dspOpts.Logger

	srv.httpd = &http.Server{
		Addr:              address,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return srv, nil
}

// Routes return the handler of all endpoints.
func (srv *Server) Routes() chi.Router {
	var r = chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(`/healthz`, srv.handleHealthz)
	r.Post(`/check`, srv.handleCheck)
	return r
}

// ListenAndServe start the HTTP server.
// It return nil if the server is stopped by Shutdown.
func (srv *Server) ListenAndServe() (err error) {
	srv.log.Info().Str(`address`, srv.httpd.Addr).Msg(`listening`)
	err = srv.httpd.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stop the server gracefully.
func (srv *Server) Shutdown(ctx context.Context) error {
	return srv.httpd.Shutdown(ctx)
}

func (srv *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{`status`: `ok`})
}

func (srv *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest

	var dec = json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	var err = dec.Decode(&req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest,
			errorResponse{Error: `invalid request body: ` + err.Error()})
		return
	}
	if len(req.URLs) == 0 {
		writeJSON(w, http.StatusBadRequest,
			errorResponse{Error: `empty urls`})
		return
	}
	if len(req.URLs) > srv.MaxURLs {
		writeJSON(w, http.StatusRequestEntityTooLarge,
			errorResponse{Error: fmt.Sprintf(`too many urls, maximum is %d`,
				srv.MaxURLs)})
		return
	}

	var dsp = srv.dsp
	if req.Suggest {
		dsp = srv.dspSuggest
	}

	var result = dsp.Run(r.Context(), req.URLs)

	srv.log.Info().Int(`total`, len(req.URLs)).
		Int(`live`, result.CountLive()).
		Int(`unresolved`, result.Unresolved).
		Dur(`elapsed`, result.Finished.Sub(result.Started)).
		Msg(`check`)

	var resp = CheckResponse{
		Results:    report.NewEntries(result),
		Total:      len(req.URLs),
		Live:       result.CountLive(),
		Unresolved: result.Unresolved,
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set(`Content-Type`, `application/json`)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
