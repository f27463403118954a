package server

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matthewbaird/vegalite/internal/compile"
	"github.com/matthewbaird/vegalite/internal/stats"
)

// CompileHandler serves the compile and validate endpoints.
type CompileHandler struct {
	stats  stats.Provider
	logger *log.Logger
}

// NewCompileHandler creates a handler compiling with the given field
// statistics. p may be nil.
func NewCompileHandler(p stats.Provider, logger *log.Logger) *CompileHandler {
	return &CompileHandler{stats: p, logger: logger}
}

type compileResponse struct {
	*compile.Result
	Elapsed string `json:"elapsed"`
}

// Compile handles POST /v1/compile. The body is a specification document.
func (h *CompileHandler) Compile(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	start := time.Now()
	res, err := compile.CompileJSON(data, compile.Options{Stats: h.stats, Logger: h.logger})
	if err != nil {
		compileErrorToHTTP(w, r, err)
		return
	}
	if n := len(res.Warnings); n > 0 && h.logger != nil {
		h.logger.Printf("[%s] compiled with %d warnings", middleware.GetReqID(r.Context()), n)
	}
	writeJSON(w, http.StatusOK, compileResponse{Result: res, Elapsed: time.Since(start).String()})
}

type validateResponse struct {
	Valid bool   `json:"valid"`
	Kind  string `json:"kind"`
}

// Validate handles POST /v1/validate.
func (h *CompileHandler) Validate(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	s, err := compile.ValidateJSON(data)
	if err != nil {
		compileErrorToHTTP(w, r, err)
		return
	}
	kind, _ := s.Kind()
	writeJSON(w, http.StatusOK, validateResponse{Valid: true, Kind: kind.String()})
}
