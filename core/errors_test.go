package core

import (
	"errors"
	"strings"
	"testing"
)

func TestAggregateError(t *testing.T) {
	errA := errors.New("boom")
	errB := &TransportError{Op: "submit", Err: errors.New("timeout")}
	agg := &AggregateError{
		Op:    "publish",
		Total: 3,
		Failures: []IndexedError{
			{Index: 0, Err: errA},
			{Index: 2, Err: errB},
		},
	}

	if !errors.Is(agg, errA) {
		t.Errorf("errors.Is should find a wrapped failure")
	}
	var terr *TransportError
	if !errors.As(agg, &terr) || terr.Op != "submit" {
		t.Errorf("errors.As should find the wrapped TransportError")
	}
	if got := agg.FailedIndexes(); len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("FailedIndexes() = %v, want [0 2]", got)
	}
	if msg := agg.Error(); !strings.Contains(msg, "2 of 3 failed") {
		t.Errorf("Error() = %q, want failure count", msg)
	}
}

func TestParseError_Message(t *testing.T) {
	err := &ParseError{Index: 4, SequenceNumber: "49590", Err: errors.New("bad json")}
	if got := err.Error(); got != "parse record 4 (sequence 49590): bad json" {
		t.Errorf("Error() = %q", got)
	}

	err = &ParseError{Index: -1, Err: errors.New("bad envelope")}
	if got := err.Error(); got != "parse: bad envelope" {
		t.Errorf("Error() = %q", got)
	}
}
