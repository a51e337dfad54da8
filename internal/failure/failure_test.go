package failure

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSeverityOf(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name     string
		err      error
		expected Severity
	}{
		{name: "nil", err: nil, expected: 0},
		{name: "degraded", err: Degradedf("extract", base), expected: Degraded},
		{name: "fatal", err: Fatalf("scan", base), expected: Fatal},
		{name: "unclassified is fatal", err: base, expected: Fatal},
		{name: "wrapped degraded", err: fmt.Errorf("outer: %w", Degradedf("load", base)), expected: Degraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SeverityOf(tt.err); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestNilPassthrough(t *testing.T) {
	if Degradedf("op", nil) != nil {
		t.Error("Expected nil for nil degraded error")
	}
	if Fatalf("op", nil) != nil {
		t.Error("Expected nil for nil fatal error")
	}
}

func TestUnwrap(t *testing.T) {
	base := errors.New("missing")
	err := Fatalf("scan", base)

	if !errors.Is(err, base) {
		t.Error("Expected errors.Is to find the wrapped error")
	}
	if err.Error() != "scan: missing" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestJoin(t *testing.T) {
	if Join("op", nil, nil) != nil {
		t.Fatal("Expected nil when all inputs are nil")
	}

	joined := Join("extract", Degradedf("a", errors.New("x")), nil, Degradedf("b", errors.New("y")))
	if !IsDegraded(joined) {
		t.Errorf("Expected degraded join, got %v", SeverityOf(joined))
	}

	plain := Join("extract", errors.New("x"), errors.New("y"))
	if !IsDegraded(plain) {
		t.Errorf("Expected plain errors to join as degraded, got %v", SeverityOf(plain))
	}
	if !strings.Contains(plain.Error(), "extract: x") {
		t.Errorf("Unexpected message %q", plain.Error())
	}

	escalated := Join("extract", Degradedf("a", errors.New("x")), Fatalf("b", errors.New("y")))
	if !IsFatal(escalated) {
		t.Errorf("Expected fatal join, got %v", SeverityOf(escalated))
	}
}
