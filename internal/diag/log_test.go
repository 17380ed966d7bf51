package diag

import (
	"bytes"
	"strings"
	"testing"

	"sixc/internal/isa"
)

func TestLoggerGatesByLevel(t *testing.T) {
	var out bytes.Buffer
	lg := &Logger{Level: Warn, Out: &out, Err: &out}
	lg.Infof("should not appear")
	lg.Warnf("should appear")
	if strings.Contains(out.String(), "should not appear") {
		t.Error("Infof logged below configured level")
	}
	if !strings.Contains(out.String(), "should appear") {
		t.Error("Warnf did not log at configured level")
	}
}

func TestBagAssertNoErrorsPassesWhenClean(t *testing.T) {
	var b Bag
	b.Warnf(KindBounds, isa.Pos{}, "a warning is not an error")
	if err := b.AssertNoErrors("test-phase"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestBagAssertNoErrorsFailsOnError(t *testing.T) {
	var b Bag
	b.Errorf(KindUndefined, isa.Pos{File: "x.mfk", Line: 3}, "undefined symbol %q", "foo")
	err := b.AssertNoErrors("parse")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "parse") || !strings.Contains(err.Error(), "foo") {
		t.Errorf("error message missing phase or detail: %v", err)
	}
}

func TestHasErrorsIgnoresWarnings(t *testing.T) {
	var b Bag
	b.Warnf(KindOverlap, isa.Pos{}, "overlap")
	if b.HasErrors() {
		t.Error("HasErrors should ignore warnings")
	}
	b.Errorf(KindType, isa.Pos{}, "type error")
	if !b.HasErrors() {
		t.Error("HasErrors should see the added error")
	}
}
