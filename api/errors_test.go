package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lumenledger/stoa/ledger"
)

func TestClassifyErrPassesThroughAPIError(t *testing.T) {
	orig := invalidInput("bad height")
	ae := classifyErr(orig)
	if ae.k != kindInvalidInput || ae.reason != "bad height" {
		t.Fatalf("classifyErr(apiError) = %+v", ae)
	}
}

func TestClassifyErrMapsLedgerNotFound(t *testing.T) {
	wrapped := errors.Join(ledger.ErrNotFound)
	ae := classifyErr(wrapped)
	if ae.k != kindNotFound {
		t.Fatalf("classifyErr(ledger.ErrNotFound) kind = %d, want kindNotFound", ae.k)
	}
}

func TestClassifyErrDefaultsToStorageFailure(t *testing.T) {
	ae := classifyErr(errors.New("leveldb: disk full"))
	if ae.k != kindStorageFailure {
		t.Fatalf("classifyErr(plain error) kind = %d, want kindStorageFailure", ae.k)
	}
}

func TestStatusForEveryKind(t *testing.T) {
	cases := []struct {
		k    kind
		want int
	}{
		{kindInvalidInput, http.StatusBadRequest},
		{kindNotFound, http.StatusNoContent},
		{kindUpstreamUnavailable, http.StatusServiceUnavailable},
		{kindStorageFailure, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := statusFor(c.k); got != c.want {
			t.Errorf("statusFor(%d) = %d, want %d", c.k, got, c.want)
		}
	}
}

func TestWriteErrorNotFoundHasNoBody(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, notFound("no such block"))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("body = %q, want empty for a 204", w.Body.String())
	}
}

func TestWriteErrorInvalidInputHasJSONBody(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, invalidInput("page must be a positive integer"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", ct)
	}
}
