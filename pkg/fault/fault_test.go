package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfUnwrapsChain(t *testing.T) {
	base := Newf(KindRateLimit, "throttled")
	wrapped := fmt.Errorf("architect stage: %w", base)

	if KindOf(wrapped) != KindRateLimit {
		t.Fatalf("expected rate_limit kind, got %s", KindOf(wrapped))
	}
	if !Is(wrapped, KindRateLimit) {
		t.Fatalf("Is should match through wrapping")
	}
}

func TestKindOfPlainError(t *testing.T) {
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatalf("plain errors classify as unknown")
	}
}

func TestFromStatus(t *testing.T) {
	cases := map[int]Kind{
		401: KindAuth,
		403: KindAuth,
		404: KindNotFound,
		429: KindRateLimit,
		500: KindModel,
		400: KindModel,
	}
	for status, want := range cases {
		if got := FromStatus(status); got != want {
			t.Fatalf("status %d: expected %s, got %s", status, want, got)
		}
	}
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(Newf(KindRateLimit, "throttled")) {
		t.Fatalf("rate limit should be transient")
	}
	if !IsTransient(WithStatus(KindModel, 503, errors.New("overloaded"))) {
		t.Fatalf("5xx should be transient")
	}
	if IsTransient(Newf(KindAuth, "bad key")) {
		t.Fatalf("auth failures should not be transient")
	}
	if IsTransient(nil) {
		t.Fatalf("nil is not transient")
	}
}
