package faults

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfClassified(t *testing.T) {
	err := Transient("publish", errors.New("broker unreachable"))
	if KindOf(err) != KindTransient {
		t.Fatalf("expected transient, got %s", KindOf(err))
	}
	if !Retryable(err) {
		t.Fatal("transient fault should be retryable")
	}
	wrapped := fmt.Errorf("drain: %w", err)
	if KindOf(wrapped) != KindTransient {
		t.Fatal("classification should survive wrapping")
	}
}

func TestKindOfHeuristics(t *testing.T) {
	if KindOf(errors.New("request timeout exceeded")) != KindTransient {
		t.Fatal("timeout message should classify as transient")
	}
	if KindOf(errors.New("account not found")) != KindUnknown {
		t.Fatal("plain error should stay unknown")
	}
	if Retryable(errors.New("account not found")) {
		t.Fatal("unknown errors must not be retryable")
	}
}

func TestFromStatus(t *testing.T) {
	cases := []struct {
		code int
		want Kind
	}{
		{500, KindTransient},
		{503, KindTransient},
		{408, KindTransient},
		{429, KindTransient},
		{400, KindPermanent},
		{403, KindPermanent},
		{404, KindPermanent},
	}
	for _, c := range cases {
		err := FromStatus("call", c.code, errors.New("http error"))
		if KindOf(err) != c.want {
			t.Errorf("status %d: expected %s, got %s", c.code, c.want, KindOf(err))
		}
	}
	if FromStatus("call", 500, nil) != nil {
		t.Fatal("nil error should stay nil")
	}
}

func TestPermanentNotRetryable(t *testing.T) {
	if Retryable(Permanent("freeze", errors.New("case already closed"))) {
		t.Fatal("permanent fault must not be retryable")
	}
	if Retryable(New(KindValidation, "enqueue", "missing case id")) {
		t.Fatal("validation fault must not be retryable")
	}
}
