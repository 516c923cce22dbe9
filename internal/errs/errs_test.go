package errs_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"parsercraft/internal/errs"
)

func TestGrammarErrorMessage(t *testing.T) {
	err := errs.NewGrammar(3, 7, "unclosed group starting at %q", "(")
	msg := err.Error()
	if !strings.Contains(msg, "3:7") {
		t.Errorf("Error() = %q, want it to contain line:column 3:7", msg)
	}
	if !strings.Contains(msg, `unclosed group starting at "("`) {
		t.Errorf("Error() = %q, missing formatted message", msg)
	}
}

func TestSourceErrorCarriesFurthestPositionAndRule(t *testing.T) {
	err := errs.NewSource(1, 8, 7, "term", "could not match %q fully", "program")
	if err.FurthestPosition != 7 {
		t.Errorf("FurthestPosition = %d, want 7", err.FurthestPosition)
	}
	if err.DeepestRule != "term" {
		t.Errorf("DeepestRule = %q, want term", err.DeepestRule)
	}
	if !strings.Contains(err.Error(), "term") {
		t.Errorf("Error() = %q, want it to mention the deepest rule", err.Error())
	}
}

func TestBackendErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("malformed assignment")
	err := errs.NewBackend("c", "cannot translate statement", cause)
	if !strings.Contains(err.Error(), "malformed assignment") {
		t.Errorf("Error() = %q, want it to include the cause", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find the wrapped cause")
	}
}

func TestBackendErrorWithoutCause(t *testing.T) {
	err := errs.NewBackend("wat", "empty expression", nil)
	if errors.Unwrap(err) != nil {
		t.Error("Unwrap returned a non-nil error for a Backend error built with a nil cause")
	}
	if !strings.Contains(err.Error(), "wat") {
		t.Errorf("Error() = %q, want it to mention the backend name", err.Error())
	}
}

func TestFormatPlusVIncludesCallSiteFrame(t *testing.T) {
	err := errs.NewGrammar(1, 1, "bad notation")
	plain := fmt.Sprintf("%v", err)
	detailed := fmt.Sprintf("%+v", err)
	if len(detailed) <= len(plain) {
		t.Errorf("%%+v output (%q) is not longer than %%v output (%q); want a call-site frame appended", detailed, plain)
	}
}

func TestErrorsAsRecoversStructuredFields(t *testing.T) {
	var err error = errs.NewSource(2, 4, 9, "factor", "dangling operator")
	var srcErr *errs.Source
	if !errors.As(err, &srcErr) {
		t.Fatal("errors.As failed to recover *errs.Source")
	}
	if srcErr.Line != 2 || srcErr.Column != 4 {
		t.Errorf("recovered Line/Column = %d/%d, want 2/4", srcErr.Line, srcErr.Column)
	}
}
