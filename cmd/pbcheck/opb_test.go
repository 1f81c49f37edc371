package main

import (
	"strings"
	"testing"

	"github.com/crillab/pbsolve/pbtheory"
)

func TestParseOPBBasic(t *testing.T) {
	input := `* a comment line
2 x1 1 x2 >= 2;
x1 + x3 <= 1;
x2 = 1;
`
	constrs, nbVars, err := parseOPB(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if nbVars != 3 {
		t.Fatalf("expected 3 variables referenced, got %d", nbVars)
	}
	if len(constrs) != 3 {
		t.Fatalf("expected 3 constraints, got %d", len(constrs))
	}

	c0 := constrs[0]
	if c0.op != pbtheory.GE || c0.k != 2 {
		t.Errorf("unexpected first constraint shape: %+v", c0)
	}
	if len(c0.weights) != 2 || c0.weights[0] != 2 || c0.weights[1] != 1 {
		t.Errorf("unexpected weights in first constraint: %v", c0.weights)
	}

	c2 := constrs[2]
	if c2.op != pbtheory.EQ || c2.k != 1 {
		t.Errorf("unexpected third constraint shape: %+v", c2)
	}
}

func TestParseOPBNegatedLiteral(t *testing.T) {
	constrs, nbVars, err := parseOPB(strings.NewReader("x1 + ~x2 >= 1;\n"))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if nbVars != 2 {
		t.Fatalf("expected 2 variables, got %d", nbVars)
	}
	lits := constrs[0].lits
	if lits[0].IsPositive() == lits[1].IsPositive() {
		t.Errorf("expected one negated and one positive literal, got %v", lits)
	}
}

func TestParseOPBIgnoresObjective(t *testing.T) {
	constrs, _, err := parseOPB(strings.NewReader("min: x1 + x2;\nx1 >= 1;\n"))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(constrs) != 1 {
		t.Fatalf("expected the objective line to be ignored, got %d constraints", len(constrs))
	}
}

func TestParseOPBRejectsMissingSemicolon(t *testing.T) {
	_, _, err := parseOPB(strings.NewReader("x1 >= 1\n"))
	if err == nil {
		t.Errorf("expected an error for a line missing its terminating ';'")
	}
}
