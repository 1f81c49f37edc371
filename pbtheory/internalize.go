package pbtheory

import "github.com/pkg/errors"

// Op is the comparison operator of a PB atom being internalised (§4.2).
type Op byte

const (
	// GE is "sum(ci*li) >= k".
	GE Op = iota
	// LE is "sum(ci*li) <= k".
	LE
	// EQ is "sum(ci*li) == k".
	EQ
)

// NoVar marks PBAtom.Var as "allocate a fresh reifying variable".
const NoVar Var = -1

// PBAtom is the input to Internalize: a PB atom over literals that have
// already been reified (the expression manager / term rewriter that would
// turn arbitrary subterms into Lits is an external collaborator, out of
// scope per §1). This plays the role of the teacher's PBConstr (solver/pb.go)
// generalised with an explicit comparison operator.
type PBAtom struct {
	Var     Var // reifying variable, or NoVar to allocate a fresh one
	Lits    []Lit
	Weights []int // nil means every coefficient is 1 (cardinality)
	K       int
	Op      Op
}

// Internalize implements §4.2: it normalises atom into one or more
// canonical Inequalities, axiomatising or clausifying trivial cases, and
// registers whatever remains in p's inequality table keyed by the
// reifying variable. It returns that reifying literal.
func (p *Plugin) Internalize(atom PBAtom) (Lit, error) {
	v := atom.Var
	if v == NoVar {
		v = p.host.NewVar()
	}
	lit := v.Lit()
	p.stats.Predicates++

	switch atom.Op {
	case GE:
		if err := p.reifyGE(lit, atom.Lits, atom.Weights, atom.K); err != nil {
			return lit, err
		}
	case LE:
		negLits, w, k := negateToGE(atom.Lits, atom.Weights, atom.K)
		if err := p.reifyGE(lit, negLits, w, k); err != nil {
			return lit, err
		}
	case EQ:
		// v <-> (vGE & vLE): two 2-literal clauses plus one 3-literal
		// clause, the same biconditional gadget shape as the proxy
		// encoding of §4.2 step 2 and the k=1 clausification of step 6.
		vGE := p.host.NewVar()
		vLE := p.host.NewVar()
		p.host.AddClause([]Lit{lit.Negation(), vGE.Lit()}, ClauseAxiom)
		p.host.AddClause([]Lit{lit.Negation(), vLE.Lit()}, ClauseAxiom)
		p.host.AddClause([]Lit{lit, vGE.Lit().Negation(), vLE.Lit().Negation()}, ClauseAxiom)
		if err := p.reifyGE(vGE.Lit(), atom.Lits, atom.Weights, atom.K); err != nil {
			return lit, err
		}
		negLits, w, k := negateToGE(atom.Lits, atom.Weights, atom.K)
		if err := p.reifyGE(vLE.Lit(), negLits, w, k); err != nil {
			return lit, err
		}
	default:
		return lit, errors.Errorf("pbtheory: invalid operator %d", atom.Op)
	}
	return lit, nil
}

// negateToGE flips a "<= k" shape to the equivalent ">= k'" shape by
// negating every coefficient's sign (via literal negation) and the
// threshold, per §4.2 step 3.
func negateToGE(lits []Lit, weights []int, k int) ([]Lit, []int, int) {
	sum := 0
	negLits := make([]Lit, len(lits))
	w := make([]int, len(lits))
	for i, l := range lits {
		wi := 1
		if weights != nil {
			wi = weights[i]
		}
		negLits[i] = l.Negation()
		w[i] = wi
		sum += wi
	}
	return negLits, w, sum - k
}

// reifyGE implements §4.2 steps 4-7 for an atom already in ">= k" shape,
// reified by lit.
func (p *Plugin) reifyGE(lit Lit, lits []Lit, weights []int, k int) error {
	c := NewInequality(lit, lits, weights, k)
	c.Unique()
	status := c.Normalise()
	c.Prune()
	switch status {
	case StatusUnsat:
		return errors.Wrap(p.host.Assign(lit.Negation(), Justification{Kind: JustAxiom}), "pbtheory: axiomatising trivially-unsat atom")
	case StatusSat:
		return errors.Wrap(p.host.Assign(lit, Justification{Kind: JustAxiom}), "pbtheory: axiomatising trivially-sat atom")
	}

	if c.K == 1 {
		p.clausifyCardinality1(c)
		return nil
	}

	c.Args = termAlloc.newTerms(c.Args...)
	maxC := 0
	for _, t := range c.Args {
		if t.c > maxC {
			maxC = t.c
		}
	}
	if p.cfg.CompilationEnabled && maxC < p.cfg.MaxCoeffForCompilation {
		n := len(c.Args)
		c.CompilationThreshold = n * ceilLog2(n+1)
	} else {
		c.CompilationThreshold = maxThreshold
	}
	p.ineqs.put(lit.Var(), c, p.scopeDepth)
	return nil
}

// clausifyCardinality1 implements §4.2 step 6: a k=1 inequality (a
// disjunction, possibly with a reifying literal) is exactly a clause, so
// it is emitted directly instead of being handed to the watch propagator.
func (p *Plugin) clausifyCardinality1(c *Inequality) {
	big := make([]Lit, len(c.Args)+1)
	big[0] = c.Lit.Negation()
	for i, t := range c.Args {
		big[i+1] = t.lit
		p.host.AddClause([]Lit{c.Lit, t.lit.Negation()}, ClauseAxiom)
	}
	p.host.AddClause(big, ClauseAxiom)
}

// ceilLog2 returns ceil(log2(n)) for n >= 1.
func ceilLog2(n int) int {
	r := 0
	v := 1
	for v < n {
		v <<= 1
		r++
	}
	return r
}

// --- Convenience constructors, generalising the teacher's card.go/pb.go ---

// AtLeastAtom returns a PBAtom stating that at least k of lits must be true.
func AtLeastAtom(lits []Lit, k int) PBAtom {
	return PBAtom{Var: NoVar, Lits: lits, K: k, Op: GE}
}

// AtMostAtom returns a PBAtom stating that at most k of lits may be true.
func AtMostAtom(lits []Lit, k int) PBAtom {
	return PBAtom{Var: NoVar, Lits: lits, K: k, Op: LE}
}

// ExactlyAtom returns a PBAtom stating that exactly k of lits must be true.
func ExactlyAtom(lits []Lit, k int) PBAtom {
	return PBAtom{Var: NoVar, Lits: lits, K: k, Op: EQ}
}

// GtEqAtom returns a PBAtom for the weighted constraint sum(ci*li) >= k,
// normalising any negative weight the way the teacher's GtEq does: a
// negative coefficient on li is rewritten as a positive coefficient on
// not(li), folding the sign into k.
func GtEqAtom(lits []Lit, weights []int, k int) PBAtom {
	lits2 := make([]Lit, len(lits))
	w2 := make([]int, len(weights))
	copy(lits2, lits)
	copy(w2, weights)
	for i := range w2 {
		if w2[i] < 0 {
			w2[i] = -w2[i]
			k += w2[i]
			lits2[i] = lits2[i].Negation()
		}
	}
	return PBAtom{Var: NoVar, Lits: lits2, Weights: w2, K: k, Op: GE}
}

// LtEqAtom returns a PBAtom for the weighted constraint sum(ci*li) <= k.
func LtEqAtom(lits []Lit, weights []int, k int) PBAtom {
	return PBAtom{Var: NoVar, Lits: lits, Weights: weights, K: k, Op: LE}
}

// EqAtom returns a PBAtom for the weighted constraint sum(ci*li) == k.
func EqAtom(lits []Lit, weights []int, k int) PBAtom {
	return PBAtom{Var: NoVar, Lits: lits, Weights: weights, K: k, Op: EQ}
}
