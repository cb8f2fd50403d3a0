package delivery

import (
	"errors"
	"fmt"
	"net/textproto"
	"testing"
)

func TestIsPermanent(t *testing.T) {
	t.Parallel()

	if IsPermanent(errors.New("plain")) {
		t.Fatal("plain error should not be permanent")
	}
	if !IsPermanent(MarkPermanent(errors.New("rejected"))) {
		t.Fatal("marked error should be permanent")
	}
	// Marking must survive further wrapping.
	wrapped := fmt.Errorf("send failed: %w", MarkPermanent(errors.New("rejected")))
	if !IsPermanent(wrapped) {
		t.Fatal("wrapped permanent error should stay permanent")
	}
	if MarkPermanent(nil) != nil {
		t.Fatal("marking nil should stay nil")
	}
}

func TestClassifySMTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		permanent bool
	}{
		{"auth failure", &textproto.Error{Code: 535, Msg: "authentication credentials invalid"}, true},
		{"recipient rejected", &textproto.Error{Code: 550, Msg: "no such user"}, true},
		{"mailbox busy", &textproto.Error{Code: 450, Msg: "mailbox busy"}, false},
		{"server shutting down", &textproto.Error{Code: 421, Msg: "closing channel"}, false},
		{"dial failure", errors.New("dial tcp: connection refused"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := classifySMTPError(tc.err, "a@example.com")
			if IsPermanent(got) != tc.permanent {
				t.Fatalf("permanent=%v, expected %v for %v", IsPermanent(got), tc.permanent, tc.err)
			}
		})
	}
}

func TestClassifySendGridStatus(t *testing.T) {
	t.Parallel()

	permanentCodes := []int{400, 401, 403, 404}
	for _, code := range permanentCodes {
		if !IsPermanent(classifySendGridStatus(code, "a@example.com")) {
			t.Fatalf("status %d should be permanent", code)
		}
	}
	retryableCodes := []int{429, 500, 502, 503}
	for _, code := range retryableCodes {
		if IsPermanent(classifySendGridStatus(code, "a@example.com")) {
			t.Fatalf("status %d should be retryable", code)
		}
	}
}
