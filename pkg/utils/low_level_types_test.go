package utils

import (
	"errors"
	"fmt"
	"testing"
)

func TestXErrorUnwrap(t *testing.T) {
	root := errors.New("connection refused")
	err := fmt.Errorf("search: %w", XError{Reason: "redis get", Meta: root}.ToError())

	if !errors.Is(err, root) {
		t.Errorf("expected wrapped root error to be reachable")
	}
	if !IsXError(err) {
		t.Errorf("expected IsXError to find the XError")
	}
}

func TestXErrorMessage(t *testing.T) {
	err := XError{Reason: "missing field"}
	if got := err.Error(); got != "xerror: missing field" {
		t.Errorf("unexpected message %q", got)
	}

	withMeta := XError{Reason: "bad row", Meta: 42}
	if got := withMeta.Error(); got != "xerror: bad row; meta: 42" {
		t.Errorf("unexpected message %q", got)
	}
	if withMeta.Unwrap() != nil {
		t.Errorf("non-error meta must not unwrap")
	}
}
