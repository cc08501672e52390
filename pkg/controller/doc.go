// Package controller contains the HTTP middlewares wrapped around the pattern API.
//
// Provided middlewares:
//   - WithCORS: answers preflight requests and marks responses readable from any origin.
//   - WithLogger: assigns a request id, attaches a request-scoped logger and writes an access log.
//
// Provided helpers:
//   - Pprof: net/http/pprof handlers under /debug/pprof/.
package controller
