// Package v1handler serves version 1 of the pattern API.
package v1handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"xrdsim/internal/simulator"
	"xrdsim/pkg/controller"
	"xrdsim/pkg/domain"
	"xrdsim/pkg/logger"
	"xrdsim/pkg/render"
	"xrdsim/pkg/report"
	"xrdsim/pkg/serrors"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// DefaultMaxBodyBytes bounds POSTed structure documents when Deps leaves it unset.
const DefaultMaxBodyBytes = 1 << 20

// Deps are the collaborators of the handler.
type Deps struct {
	// Simulator computes patterns.
	Simulator simulator.Simulator
	// Structure is simulated by GET requests and is the base POST bodies are
	// applied to.
	Structure domain.Structure
	// Render styles the PNG chart.
	Render render.Options
	// MaxBodyBytes limits POST bodies.
	MaxBodyBytes int64
}

type Handler struct {
	deps Deps
}

func New(deps Deps) *Handler {
	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = DefaultMaxBodyBytes
	}

	return &Handler{deps: deps}
}

// Register mounts the v1 routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/pattern", h.GetPattern)
	mux.HandleFunc("POST /v1/pattern", h.PostPattern)
	mux.HandleFunc("GET /v1/pattern.png", h.GetChart)
}

// GetPattern returns the pattern of the configured structure in the format
// named by the "format" query parameter (json by default).
func (h *Handler) GetPattern(w http.ResponseWriter, r *http.Request) {
	h.writePattern(w, r, h.deps.Structure)
}

// PostPattern simulates the structure in the request body.
func (h *Handler) PostPattern(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.deps.MaxBodyBytes))
	if err != nil {
		h.writeError(w, r, serrors.Wrap(serrors.ErrBadRequest, err, "could not read request body"))

		return
	}

	structure, err := DecodeStructure(body, h.deps.Structure)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	h.writePattern(w, r, structure)
}

// GetChart returns the PNG chart of the configured structure.
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	pattern, err := h.deps.Simulator.Simulate(r.Context(), h.deps.Structure)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	var buf bytes.Buffer
	if err := render.WritePNG(&buf, *pattern, h.deps.Render); err != nil {
		h.writeError(w, r, err)

		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) writePattern(w http.ResponseWriter, r *http.Request, structure domain.Structure) {
	format := report.FormatJSON
	if q := r.URL.Query().Get("format"); q != "" {
		f, err := report.ParseFormat(q)
		if err != nil {
			h.writeError(w, r, err)

			return
		}
		format = f
	}

	pattern, err := h.deps.Simulator.Simulate(r.Context(), structure)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, *pattern, format); err != nil {
		h.writeError(w, r, err)

		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	_, _ = w.Write(buf.Bytes())
}

// StatusCode maps an error onto the HTTP status reported to the client.
func StatusCode(err error) int {
	switch serrors.KindOf(err) {
	case serrors.ErrBadRequest, serrors.ErrInvalidStructure, serrors.ErrZeroReflection, serrors.ErrBraggOutOfRange:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// NewError builds the JSON error body for err. Internal failures are logged
// and reported without detail, with the request id when one is known.
func NewError(ctx context.Context, err error) (int, []byte) {
	status := StatusCode(err)

	code := serrors.ErrInternal.Error()
	message := "internal error"
	if status != http.StatusInternalServerError {
		code = serrors.KindOf(err).Error()
		message = err.Error()
	} else if !errors.Is(err, context.Canceled) {
		logger.Error(ctx, "request failed", zap.Error(err))
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Str(code) })
		e.Field("error", func(e *jx.Encoder) { e.Str(message) })
		if id := controller.RequestID(ctx); id != "" && status == http.StatusInternalServerError {
			e.Field("requestId", func(e *jx.Encoder) { e.Str(id) })
		}
	})

	return status, e.Bytes()
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := NewError(r.Context(), err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
