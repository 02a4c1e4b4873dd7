package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"ammScope/internal/model"
	"ammScope/internal/pricing"
	"ammScope/internal/reserves"
)

// Error codes returned in the error envelope.
const (
	codeInvalidInput          = "INVALID_INPUT"
	codeInsufficientLiquidity = "INSUFFICIENT_LIQUIDITY"
	codeSlippageExceeded      = "SLIPPAGE_EXCEEDED"
	codeReservesUnavailable   = "RESERVES_UNAVAILABLE"
	codeNotSupported          = "NOT_SUPPORTED"
	codeRateLimited           = "RATE_LIMITED"
	codeNotFound              = "NOT_FOUND"
	codeInternal              = "INTERNAL"
)

// errBadRequest marks malformed requests rejected before pricing.
var errBadRequest = errors.New("bad request")

// classify maps an error to its HTTP status, error code and quote outcome label.
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, pricing.ErrInsufficientLiquidity):
		return http.StatusBadRequest, codeInsufficientLiquidity, "insufficient_liquidity"
	case errors.Is(err, pricing.ErrSlippageExceeded):
		return http.StatusBadRequest, codeSlippageExceeded, "slippage_exceeded"
	case errors.Is(err, pricing.ErrInvalidInput), errors.Is(err, errBadRequest):
		return http.StatusBadRequest, codeInvalidInput, "invalid_input"
	case errors.Is(err, reserves.ErrUnsupported):
		return http.StatusNotImplemented, codeNotSupported, "unsupported"
	case errors.Is(err, reserves.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, codeReservesUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, codeInternal, "error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, model.ErrorBody{Error: model.ErrorDetail{Code: code, Message: message}})
}
