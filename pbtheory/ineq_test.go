package pbtheory

import "testing"

func TestUnique(t *testing.T) {
	x1 := IntToVar(1).Lit()
	x2 := IntToVar(2).Lit()
	// 3*x1 + 2*~x1 + x2 >= 4  ->  x1 contributes min(3,2)=2 to K and the
	// remaining 1 to the positive occurrence (3>2).
	c := NewInequality(LitTrue, []Lit{x1, x1.Negation(), x2}, []int{3, 2, 1}, 4)
	c.Unique()
	if len(c.Args) != 2 {
		t.Fatalf("expected 2 args after Unique, got %d: %v", len(c.Args), c.Args)
	}
	if c.K != 2 {
		t.Errorf("expected K=2 after folding min(3,2) into K, got %d", c.K)
	}
	if c.Args[0].lit != x1 || c.Args[0].c != 1 {
		t.Errorf("expected surviving x1 term to have coefficient 1, got %+v", c.Args[0])
	}
}

func TestNormaliseTrivialSat(t *testing.T) {
	x1 := IntToVar(1).Lit()
	c := NewInequality(LitTrue, []Lit{x1}, []int{3}, 0)
	if got := c.Normalise(); got != StatusSat {
		t.Errorf("expected StatusSat for k<=0, got %s", got)
	}
}

func TestNormaliseTrivialUnsat(t *testing.T) {
	x1 := IntToVar(1).Lit()
	x2 := IntToVar(2).Lit()
	c := NewInequality(LitTrue, []Lit{x1, x2}, []int{1, 1}, 5)
	if got := c.Normalise(); got != StatusUnsat {
		t.Errorf("expected StatusUnsat when sum(ci)<k, got %s", got)
	}
}

func TestNormaliseDividesByGCD(t *testing.T) {
	x1 := IntToVar(1).Lit()
	x2 := IntToVar(2).Lit()
	c := NewInequality(LitTrue, []Lit{x1, x2}, []int{4, 6}, 6)
	if got := c.Normalise(); got != StatusUndecided {
		t.Fatalf("expected StatusUndecided, got %s", got)
	}
	if c.K != 3 {
		t.Errorf("expected K divided down to 3, got %d", c.K)
	}
	if c.Args[0].c != 2 || c.Args[1].c != 3 {
		t.Errorf("expected coefficients divided by gcd=2, got %v", c.Args)
	}
}

func TestPrune(t *testing.T) {
	x1 := IntToVar(1).Lit()
	x2 := IntToVar(2).Lit()
	c := NewInequality(LitTrue, []Lit{x1, x2}, []int{0, 9}, 3)
	c.Prune()
	if len(c.Args) != 1 {
		t.Fatalf("expected the zero-coefficient term dropped, got %v", c.Args)
	}
	if c.Args[0].c != 3 {
		t.Errorf("expected coefficient 9 saturated down to k=3, got %d", c.Args[0].c)
	}
}

func TestNegateIsInvolutive(t *testing.T) {
	x1 := IntToVar(1).Lit()
	x2 := IntToVar(2).Lit()
	c := NewInequality(IntToVar(3).Lit(), []Lit{x1, x2}, []int{2, 3}, 4)
	sum := c.WeightSum()
	c.Negate()
	if c.K != sum-4+1 {
		t.Errorf("expected Knuth-negated K=%d, got %d", sum-4+1, c.K)
	}
	if c.Args[0].lit != x1.Negation() || c.Args[1].lit != x2.Negation() {
		t.Errorf("expected every argument literal complemented, got %v", c.Args)
	}
	c.Negate()
	if c.K != 4 {
		t.Errorf("Negate should be involutive, got K=%d after negating twice", c.K)
	}
	if c.Args[0].lit != x1 || c.Args[1].lit != x2 {
		t.Errorf("Negate should be involutive on literals, got %v", c.Args)
	}
}

func TestWellFormedRejectsDuplicateVar(t *testing.T) {
	x1 := IntToVar(1).Lit()
	c := &Inequality{Lit: LitTrue, K: 2, Args: []term{{lit: x1, c: 1}, {lit: x1, c: 1}}}
	if err := c.WellFormed(); err == nil {
		t.Errorf("expected WellFormed to reject a duplicate variable")
	}
}

func TestWellFormedRejectsUnderweightSum(t *testing.T) {
	x1 := IntToVar(1).Lit()
	c := &Inequality{Lit: LitTrue, K: 5, Args: []term{{lit: x1, c: 1}}}
	if err := c.WellFormed(); err == nil {
		t.Errorf("expected WellFormed to reject sum(ci) < k")
	}
}
