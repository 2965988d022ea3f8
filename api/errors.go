package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lumenledger/stoa/ledger"
)

// kind classifies a handler failure into one of a small set of error kinds,
// each with a fixed HTTP status.
type kind int

const (
	kindInvalidInput kind = iota
	kindNotFound
	kindUpstreamUnavailable
	kindStorageFailure
)

// apiError carries a kind and a human-readable reason; writeError renders
// it to the response in the matching status/body shape.
type apiError struct {
	k      kind
	reason string
}

func (e *apiError) Error() string { return e.reason }

func invalidInput(reason string) error { return &apiError{k: kindInvalidInput, reason: reason} }
func notFound(reason string) error     { return &apiError{k: kindNotFound, reason: reason} }
func upstream(reason string) error     { return &apiError{k: kindUpstreamUnavailable, reason: reason} }

// classifyErr maps a lower-layer error into an apiError when it isn't
// already one, treating ledger.ErrNotFound specially since every store
// getter surfaces it directly.
func classifyErr(err error) *apiError {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, ledger.ErrNotFound) {
		return &apiError{k: kindNotFound, reason: "not found"}
	}
	return &apiError{k: kindStorageFailure, reason: err.Error()}
}

func statusFor(k kind) int {
	switch k {
	case kindInvalidInput:
		return http.StatusBadRequest
	case kindNotFound:
		return http.StatusNoContent
	case kindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err in the status/body shape callers expect. A 204 has no
// body by HTTP definition, so the explanatory text only applies to 400/500/503.
func writeError(w http.ResponseWriter, err error) {
	ae := classifyErr(err)
	status := statusFor(ae.k)
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": ae.reason})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeError(w, err)
	}
}
