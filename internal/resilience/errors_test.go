package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"google.golang.org/api/googleapi"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("bad request"), false},
		{"explicit", NewTransientError(errors.New("x"), 503), true},
		{"wrapped explicit", eris.Wrap(NewTransientError(errors.New("x"), 429), "publish"), true},
		{"google 429", &googleapi.Error{Code: 429}, true},
		{"google 503 wrapped", fmt.Errorf("append: %w", &googleapi.Error{Code: 503}), true},
		{"google 403", &googleapi.Error{Code: 403}, false},
		{"net timeout", timeoutErr{}, true},
		{"conn reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"conn refused", syscall.ECONNREFUSED, true},
		{"message pattern", errors.New("write tcp: broken pipe"), true},
		{"notion rate limited", errors.New("notion: rate_limited"), true},
		{"context canceled", context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("expected %d to be transient", code)
		}
	}
	for _, code := range []int{200, 400, 401, 403, 404, 501} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("expected %d to be permanent", code)
		}
	}
}

func TestStatusError(t *testing.T) {
	err := StatusError("places", 503, []byte(" unavailable \n"))
	var te *TransientError
	if !errors.As(err, &te) {
		t.Fatalf("expected transient error, got %T", err)
	}
	if te.StatusCode != 503 {
		t.Errorf("expected status 503, got %d", te.StatusCode)
	}
	if te.Error() != "places: http 503: unavailable" {
		t.Errorf("unexpected message %q", te.Error())
	}

	err = StatusError("places", 400, []byte("bad field mask"))
	if IsTransient(err) {
		t.Error("400 should not be transient")
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	if !errors.Is(NewTransientError(inner, 0), inner) {
		t.Error("expected errors.Is to reach inner error")
	}
}
