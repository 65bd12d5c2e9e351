package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/tournevent/postage/internal/catalog"
	"github.com/tournevent/postage/pkg/quote"
	"github.com/tournevent/postage/pkg/shipper"
)

const (
	codeBadRequest = "BAD_REQUEST"
	codeNotFound   = "NOT_FOUND"
	codeInternal   = "INTERNAL_ERROR"
)

var errMalformedBody = errors.New("malformed JSON request body")

type errorBody struct {
	Error errorDetails `json:"error"`
}

type errorDetails struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetails{
		Code:      code,
		Message:   message,
		Timestamp: s.now().UTC(),
	}})
}

// fail maps a service error onto the HTTP error contract.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errMalformedBody):
		s.writeError(w, r, http.StatusBadRequest, codeBadRequest, "Malformed JSON request body")
	case catalog.IsValidation(err), quote.IsClientError(err):
		s.writeError(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
	case errors.Is(err, shipper.ErrNotFound):
		s.writeError(w, r, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, quote.ErrOriginNotConfigured):
		s.writeError(w, r, http.StatusInternalServerError, codeInternal, err.Error())
	default:
		s.logger.Ctx(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		s.writeError(w, r, http.StatusInternalServerError, codeInternal, "Internal server error")
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil {
		return errMalformedBody
	}
	return nil
}
