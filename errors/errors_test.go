package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	err := New(PhaseTables, KindMalformedTableStream).
		Offset(0x2E8).
		Detail("row counts exceed stream size").
		Build()
	msg := err.Error()
	for _, want := range []string{"[tables]", "malformed_table_stream", "0x2e8", "row counts exceed stream size"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestErrorOmitsUnknownOffset(t *testing.T) {
	err := InvalidContainer("missing MZ signature")
	if strings.Contains(err.Error(), "offset") {
		t.Errorf("message %q should not mention an offset", err.Error())
	}
}

func TestErrorCauseChain(t *testing.T) {
	cause := stderrors.New("disk on fire")
	err := FileUnreadable("lib.dll", cause)
	if !stderrors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if !strings.Contains(err.Error(), "disk on fire") {
		t.Errorf("message %q missing cause", err.Error())
	}
}

func TestErrorIsMatchesPhaseAndKind(t *testing.T) {
	a := MalformedTableStream("first")
	b := MalformedTableStream("second")
	if !stderrors.Is(a, b) {
		t.Error("same phase and kind should match")
	}
	c := InvalidContainer("other")
	if stderrors.Is(a, c) {
		t.Error("different kinds should not match")
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(NoMetadata()); got != KindNoMetadata {
		t.Errorf("got %q", got)
	}
	wrapped := fmt.Errorf("outer: %w", IncompleteMetadata("commit hash"))
	if got := KindOf(wrapped); got != KindIncompleteMetadata {
		t.Errorf("wrapped: got %q", got)
	}
	if got := KindOf(stderrors.New("plain")); got != "" {
		t.Errorf("plain error: got %q", got)
	}
	if got := KindOf(nil); got != "" {
		t.Errorf("nil: got %q", got)
	}
}

func TestIsKind(t *testing.T) {
	err := NotManaged("no CLI data directory")
	if !IsKind(err, KindNotManaged) {
		t.Error("expected match")
	}
	if IsKind(err, KindNoMetadata) {
		t.Error("unexpected match")
	}
}
