package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestAppErrorError(t *testing.T) {
	err := New("TEST", "something broke", http.StatusTeapot)
	if err.Error() != "something broke" {
		t.Fatalf("unexpected message: %q", err.Error())
	}

	wrapped := err.WithInternal(errors.New("root cause"))
	if wrapped.Error() != "something broke: root cause" {
		t.Fatalf("unexpected wrapped message: %q", wrapped.Error())
	}
	if wrapped == err {
		t.Fatal("WithInternal must not mutate the original error")
	}
}

func TestFromErrorPassesThroughAppErrors(t *testing.T) {
	got := FromError(ErrEmailInUse)
	if got != ErrEmailInUse {
		t.Fatalf("expected identity, got %+v", got)
	}
}

func TestFromErrorWrapsGenericErrors(t *testing.T) {
	cause := errors.New("db exploded")
	got := FromError(cause)

	if got.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", got.StatusCode)
	}
	if !errors.Is(got, cause) {
		t.Fatal("expected wrapped error to match errors.Is")
	}
}

func TestFromErrorNil(t *testing.T) {
	if FromError(nil) != nil {
		t.Fatal("expected nil for nil input")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("io failure")
	err := Wrap(cause, "saving avatar")

	if !errors.Is(err, cause) {
		t.Fatal("expected cause to unwrap")
	}
	if err.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", err.StatusCode)
	}
}

func TestDomainErrorStatusCodes(t *testing.T) {
	cases := map[*AppError]int{
		ErrInvalidCredentials: http.StatusUnauthorized,
		ErrEmailNotVerified:   http.StatusForbidden,
		ErrEmailInUse:         http.StatusConflict,
		ErrAlreadyVerified:    http.StatusBadRequest,
		ErrNotFound:           http.StatusNotFound,
	}

	for err, want := range cases {
		if err.StatusCode != want {
			t.Fatalf("%s: expected %d, got %d", err.Code, want, err.StatusCode)
		}
	}
}
