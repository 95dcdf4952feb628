package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorHelpers(t *testing.T) {
	err := NewInvalidArgument("avatar file is required")
	if !IsInvalidArgument(err) {
		t.Fatal("expected invalid argument")
	}
	if Message(err) != "avatar file is required" {
		t.Fatalf("unexpected message: %q", Message(err))
	}

	wrapped := WrapInternal(errors.New("boom"), "generating tokens")
	if !IsInternal(wrapped) {
		t.Fatal("expected internal")
	}
}

func TestIsMatchesWrappedChain(t *testing.T) {
	err := fmt.Errorf("register: %w", NewAlreadyExists("user already exists"))
	if !IsAlreadyExists(err) {
		t.Fatal("expected already exists through wrap")
	}
	if IsNotFound(err) {
		t.Fatal("unexpected not found")
	}
}
