package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matthewbaird/vegalite/internal/compile"
)

// maxBodyBytes caps the size of a specification document.
const maxBodyBytes = 4 << 20

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	Path       string `json:"path,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON encode error: %v", err)
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, errorBody{
		Error:     message,
		Code:      code,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// readBody reads the request body, refusing documents over maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	defer r.Body.Close()
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE",
				fmt.Sprintf("specification exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		writeError(w, r, http.StatusBadRequest, "READ_ERROR", err.Error())
		return nil, false
	}
	if len(data) == 0 {
		writeError(w, r, http.StatusBadRequest, "EMPTY_BODY", "request body must hold a specification")
		return nil, false
	}
	return data, true
}

// compileErrorToHTTP maps compile errors to HTTP responses.
func compileErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	code, ve := compile.Classify(err)
	switch code {
	case compile.CodeUnsupportedCombination:
		log.Printf("compile invariant [%s]: %v", middleware.GetReqID(r.Context()), err)
		writeError(w, r, http.StatusUnprocessableEntity, string(code), err.Error())
	case compile.CodeInternal:
		log.Printf("internal error [%s]: %v", middleware.GetReqID(r.Context()), err)
		writeError(w, r, http.StatusInternalServerError, string(code), "internal server error")
	default:
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:      err.Error(),
			Code:       string(code),
			Path:       ve.Path,
			Suggestion: ve.Suggestion,
			RequestID:  middleware.GetReqID(r.Context()),
		})
	}
}
