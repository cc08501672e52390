package controller_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"xrdsim/pkg/controller"

	"github.com/stretchr/testify/require"
)

func TestPprof(t *testing.T) {
	h := controller.Pprof()

	for _, path := range []string{"/debug/pprof/", "/debug/pprof/cmdline", "/debug/pprof/goroutine"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
		require.NotEmpty(t, rec.Header().Get("Content-Type"), path)
	}
}

func TestPprof_Methods(t *testing.T) {
	h := controller.Pprof()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/debug/pprof/symbol", strings.NewReader("0x0")))
	require.Equal(t, http.StatusOK, rec.Code)

	for _, path := range []string{"/debug/pprof/cmdline", "/debug/pprof/heap"} {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, path, nil))
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
	}
}
