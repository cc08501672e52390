package controller

import (
	"net/http"
	"net/http/pprof"
)

// PprofPrefix is the path the profiling handlers answer under.
const PprofPrefix = "/debug/pprof/"

// Pprof serves net/http/pprof below PprofPrefix. Profiles are read-only, so
// only symbol lookups accept POST; other methods get 405. Named profiles
// (heap, goroutine, ...) are served by the index handler.
func Pprof() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+PprofPrefix, pprof.Index)
	mux.HandleFunc("GET "+PprofPrefix+"cmdline", pprof.Cmdline)
	mux.HandleFunc("GET "+PprofPrefix+"profile", pprof.Profile)
	mux.HandleFunc("GET "+PprofPrefix+"trace", pprof.Trace)
	mux.HandleFunc("GET "+PprofPrefix+"symbol", pprof.Symbol)
	mux.HandleFunc("POST "+PprofPrefix+"symbol", pprof.Symbol)

	return mux
}
