package pbtheory

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLemmaAddTermMergesOppositePolarity(t *testing.T) {
	x1 := IntToVar(1).Lit()
	lm := newLemma(make(map[Var]int))
	lm.card = 5
	lm.addTerm(x1, 3)
	lm.addTerm(x1.Negation(), 2)
	if w := lm.weights[x1.Var()]; w != 1 {
		t.Errorf("expected surviving weight 1 on the positive occurrence, got %d", w)
	}
	if lm.card != 3 {
		t.Errorf("expected card reduced by min(3,2)=2 to 3, got %d", lm.card)
	}
}

func TestLemmaFalsifies(t *testing.T) {
	x1 := IntToVar(1).Lit()
	lm := newLemma(make(map[Var]int))
	lm.addTerm(x1, 2) // positive occurrence is the term
	if !lm.falsifies(x1.Negation()) {
		t.Errorf("expected ~x1 becoming true to falsify a lemma whose term is x1")
	}
	if lm.falsifies(x1) {
		t.Errorf("x1 becoming true should not falsify a lemma whose term is x1")
	}
}

func TestLemmaClash(t *testing.T) {
	x1 := IntToVar(1).Lit()
	x2 := IntToVar(2).Lit()
	a := newLemma(make(map[Var]int))
	a.card = 2
	a.addTerm(x1, 2)
	b := newLemma(make(map[Var]int))
	b.card = 3
	b.addTerm(x1.Negation(), 1)
	b.addTerm(x2, 4)
	a.clash(b)
	if a.card != 2+3-1 {
		t.Errorf("expected card = 2+3-min(2,1) = 4, got %d", a.card)
	}
	if w := a.weights[x1.Var()]; w != 1 {
		t.Errorf("expected x1's weight folded to 2-1=1, got %d", w)
	}
	if w := a.weights[x2.Var()]; w != 4 {
		t.Errorf("expected x2's weight carried over unchanged, got %d", w)
	}
}

func TestLemmaDivideByRounds(t *testing.T) {
	x1 := IntToVar(1).Lit()
	x2 := IntToVar(2).Lit()
	lm := newLemma(make(map[Var]int))
	lm.card = 7
	lm.addTerm(x1, 4)
	lm.addTerm(x2, 5)
	lm.divideBy(3)
	if lm.card != 3 { // ceil(7/3)
		t.Errorf("expected card rounded up to 3, got %d", lm.card)
	}
	if w := lm.weights[x1.Var()]; w != 2 { // ceil(4/3)
		t.Errorf("expected x1's weight rounded up to 2, got %d", w)
	}
	if w := lm.weights[x2.Var()]; w != 2 { // floor(5/3)=1, remainder!=0 -> +1 = 2
		t.Errorf("expected x2's weight rounded up to 2, got %d", w)
	}
}

func TestLemmaScale(t *testing.T) {
	x1 := IntToVar(1).Lit()
	lm := newLemma(make(map[Var]int))
	lm.card = 2
	lm.addTerm(x1, 3)
	lm.scale(4)
	if lm.card != 8 {
		t.Errorf("expected card scaled to 8, got %d", lm.card)
	}
	if w := lm.weights[x1.Var()]; w != 12 {
		t.Errorf("expected x1's weight scaled to 12, got %d", w)
	}
}

// TestLemmaClashIsCommutative checks that folding b into a produces the
// same resulting weights as folding a into b, regardless of call order —
// a property resolve's resolution loop implicitly relies on.
func TestLemmaClashIsCommutative(t *testing.T) {
	x1 := IntToVar(1).Lit()
	x2 := IntToVar(2).Lit()

	ab := newLemma(make(map[Var]int))
	ab.card = 2
	ab.addTerm(x1, 2)
	ab.addTerm(x2, 1)
	other1 := newLemma(make(map[Var]int))
	other1.card = 3
	other1.addTerm(x1.Negation(), 1)
	ab.clash(other1)

	ba := newLemma(make(map[Var]int))
	ba.card = 3
	ba.addTerm(x1.Negation(), 1)
	other2 := newLemma(make(map[Var]int))
	other2.card = 2
	other2.addTerm(x1, 2)
	other2.addTerm(x2, 1)
	ba.clash(other2)

	if diff := cmp.Diff(ab.weights, ba.weights); diff != "" {
		t.Errorf("clash should be commutative on weights (-a.clash(b) +b.clash(a)):\n%s", diff)
	}
	if ab.card != ba.card {
		t.Errorf("clash should be commutative on card: got %d vs %d", ab.card, ba.card)
	}
}

func TestConflictLevelIsMaxFalsifiedLevel(t *testing.T) {
	host := newFakeLevelHost()
	p := New(host, DefaultConfig())
	x1 := host.NewVar().Lit()
	x2 := host.NewVar().Lit()
	host.bind(x1.Var(), false, 1)
	host.bind(x2.Var(), false, 3)
	c := NewInequality(LitTrue, []Lit{x1, x2}, []int{1, 1}, 2)
	lvl := p.analyzer.conflictLevel(c)
	if lvl != 3 {
		t.Errorf("expected conflict level 3 (the deeper falsified literal), got %d", lvl)
	}
}

// fakeLevelHost is a bare-bones Host stub exercising only the surface
// conflictLevel needs (Assignment/AssignLevel), avoiding a dependency on
// refhost from this internal test package.
type fakeLevelHost struct {
	status map[Var]LitStatus
	level  map[Var]int
	nbVars int
}

func newFakeLevelHost() *fakeLevelHost {
	return &fakeLevelHost{status: map[Var]LitStatus{}, level: map[Var]int{}}
}

func (h *fakeLevelHost) bind(v Var, positive bool, lvl int) {
	if positive {
		h.status[v] = True
	} else {
		h.status[v] = False
	}
	h.level[v] = lvl
}

func (h *fakeLevelHost) Assignment(l Lit) LitStatus {
	s, ok := h.status[l.Var()]
	if !ok {
		return Undef
	}
	if !l.IsPositive() {
		switch s {
		case True:
			return False
		case False:
			return True
		}
	}
	return s
}

func (h *fakeLevelHost) AssignLevel(v Var) int         { return h.level[v] }
func (h *fakeLevelHost) Trail() []Lit                  { return nil }
func (h *fakeLevelHost) Justification(v Var) Justification { return Justification{} }
func (h *fakeLevelHost) AddClause(lits []Lit, kind ClauseKind) {}
func (h *fakeLevelHost) Assign(l Lit, just Justification) error { return nil }
func (h *fakeLevelHost) NewVar() Var {
	v := Var(h.nbVars)
	h.nbVars++
	return v
}

func TestValidateWatchAcceptsConsistentInvariant(t *testing.T) {
	host := newFakeLevelHost()
	p := New(host, DefaultConfig())
	x1 := host.NewVar().Lit()
	x2 := host.NewVar().Lit()
	c := NewInequality(LitTrue, []Lit{x1, x2}, []int{2, 3}, 4)
	c.WatchSz, c.WatchSum, c.MaxWatch = 2, 5, 3
	if err := p.analyzer.validateWatch(c); err != nil {
		t.Errorf("expected a consistent watch prefix to validate, got %v", err)
	}
}

func TestValidateWatchRejectsStaleSum(t *testing.T) {
	host := newFakeLevelHost()
	p := New(host, DefaultConfig())
	x1 := host.NewVar().Lit()
	x2 := host.NewVar().Lit()
	c := NewInequality(LitTrue, []Lit{x1, x2}, []int{2, 3}, 4)
	c.WatchSz, c.WatchSum, c.MaxWatch = 2, 99, 3
	if err := p.analyzer.validateWatch(c); err == nil {
		t.Error("expected a stale watch sum to be rejected")
	}
}
