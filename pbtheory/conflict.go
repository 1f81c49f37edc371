package pbtheory

import (
	"github.com/pkg/errors"
)

// This file implements component E, the cutting-planes conflict analyser
// (§4.5). It generalises the teacher's clause-only learning engine to PB
// inequalities, directly porting the RoundingSAT-style algorithm of
// solver/learn_pb.go (pbSet, roundToOne, divideBy, clash, backtrackLevel,
// onlyFalsified) from dense per-variable slices to the map-based scratch
// buffers (Plugin.pbSetBuf/pbSetBuf2) since the plugin, unlike the
// teacher's Solver, doesn't own a fixed nbVars-sized array.

// lemma is the PB-analysis analogue of solver/learn_pb.go's pbSet: for
// each variable with a nonzero entry, a positive weight means the
// positive occurrence of that variable is a term in the lemma; a
// negative weight means its negation is, with magnitude |weight|.
type lemma struct {
	weights map[Var]int
	card    int
}

func newLemma(buf map[Var]int) *lemma {
	for v := range buf {
		delete(buf, v)
	}
	return &lemma{weights: buf}
}

func (lm *lemma) loadFromIneq(c *Inequality) {
	lm.card = c.K
	for _, t := range c.Args {
		lm.addTerm(t.lit, t.c)
	}
}

func (lm *lemma) loadFromClause(lits []Lit) {
	lm.card = 1
	for _, l := range lits {
		lm.addTerm(l, 1)
	}
}

// addTerm folds coeff*lit into the lemma, merging with any existing
// opposite-polarity term on the same variable the way Inequality.Unique
// does (x + not(x) = 1).
func (lm *lemma) addTerm(lit Lit, coeff int) {
	v := lit.Var()
	w := lm.weights[v]
	var delta int
	if lit.IsPositive() {
		delta = coeff
	} else {
		delta = -coeff
	}
	newW := w + delta
	if w != 0 && delta != 0 && (w > 0) != (delta > 0) {
		lm.card -= min(abs(w), abs(delta))
	}
	if newW == 0 {
		delete(lm.weights, v)
	} else {
		lm.weights[v] = newW
	}
}

// falsifies reports whether lit being true falsifies lm's term on lit's
// variable (i.e. that term is the opposite occurrence of lit), mirroring
// pbSet.falsifies.
func (lm *lemma) falsifies(lit Lit) bool {
	w := lm.weights[lit.Var()]
	if w == 0 {
		return false
	}
	return (w < 0) == lit.IsPositive()
}

// clash folds other into lm, per pbSet.clash.
func (lm *lemma) clash(other *lemma) {
	lm.card += other.card
	for v, w2 := range other.weights {
		w1 := lm.weights[v]
		if w1 != 0 && (w1 > 0) != (w2 > 0) {
			lm.card -= min(abs(w1), abs(w2))
		}
		newW := w1 + w2
		if newW == 0 {
			delete(lm.weights, v)
		} else {
			lm.weights[v] = newW
		}
	}
}

// divideBy performs RoundingSAT's rounded division on every coefficient
// and on card, per pbSet.divideBy.
func (lm *lemma) divideBy(coeff int) {
	for v, w := range lm.weights {
		switch {
		case w%coeff == 0:
			lm.weights[v] = w / coeff
		case w > 0:
			lm.weights[v] = w/coeff + 1
		default:
			lm.weights[v] = w/coeff - 1
		}
	}
	if lm.card%coeff == 0 {
		lm.card /= coeff
	} else {
		lm.card = lm.card/coeff + 1
	}
}

// roundToOne weakens lm by dropping every term not falsified under p's
// current assignment whose coefficient is not a multiple of locked's, then
// divides through, per pbSet.roundToOne.
func (lm *lemma) roundToOne(p *Plugin, locked Var) {
	wi := abs(lm.weights[locked])
	if wi <= 1 {
		return
	}
	for v, w := range lm.weights {
		if w%wi == 0 {
			continue
		}
		lit := v.Lit()
		if w < 0 {
			lit = lit.Negation()
		}
		if p.litStatus(lit) != False {
			lm.card -= abs(w)
			delete(lm.weights, v)
		}
	}
	lm.divideBy(wi)
}

// scale multiplies every coefficient and card by g.
func (lm *lemma) scale(g int) {
	if g == 1 {
		return
	}
	for v, w := range lm.weights {
		lm.weights[v] = w * g
	}
	lm.card *= g
}

func (lm *lemma) weightSum() int {
	s := 0
	for _, w := range lm.weights {
		s += abs(w)
	}
	return s
}

func (lm *lemma) toInequality(lit Lit) *Inequality {
	args := make([]term, 0, len(lm.weights))
	for v, w := range lm.weights {
		l := v.Lit()
		if w < 0 {
			l = l.Negation()
		}
		args = append(args, term{lit: l, c: abs(w)})
	}
	return &Inequality{Lit: lit, Args: args, K: lm.card, CompilationThreshold: maxThreshold}
}

func lcm(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}

// analyzer owns the cutting-planes procedure's scratch state; it has no
// fields of its own since every buffer it needs lives on Plugin and is
// cleared per analysis by newLemma.
type analyzer struct {
	p *Plugin
}

func newAnalyzer(p *Plugin) *analyzer {
	return &analyzer{p: p}
}

// conflictLevel implements §4.5 step 1's "conflict_lvl": the maximum
// assignment level among confl's false literals.
func (a *analyzer) conflictLevel(confl *Inequality) int {
	lvl := 0
	for _, t := range confl.Args {
		if a.p.litStatus(t.lit) == False {
			if l := a.p.hostLevel(t.lit); l > lvl {
				lvl = l
			}
		}
	}
	return lvl
}

// onlyFalsifiedAt scans trail backwards from ptr while the trail entries'
// level equals lvl, returning the sole literal lm falsifies there. ok is
// false unless exactly one such literal exists — the cutting-planes
// invariant that lets the walk know when it has reached that level's UIP.
func (lm *lemma) onlyFalsifiedAt(p *Plugin, trail []Lit, ptr, lvl int) (lit Lit, ok bool) {
	found := 0
	for i := ptr; i >= 0; i-- {
		l := trail[i]
		if p.hostLevel(l) != lvl {
			break
		}
		if lm.falsifies(l) {
			found++
			if found > 1 {
				return 0, false
			}
			lit = l
		}
	}
	return lit, found == 1
}

// backtrackLevel implements pbSet.backtrackLevel: the second-highest
// assignment level among the learned lemma's remaining literals, i.e.
// where unit propagation of the asserting literal will actually fire.
func (lm *lemma) backtrackLevel(p *Plugin, asserting Lit) int {
	skip := asserting.Var()
	maxLvl := 1
	for v, w := range lm.weights {
		if w == 0 || v == skip {
			continue
		}
		l := v.Lit()
		if w < 0 {
			l = l.Negation()
		}
		if lv := p.hostLevel(l); lv > maxLvl {
			maxLvl = lv
		}
	}
	return maxLvl
}

// resolve implements §4.5 steps 2-7: it walks confl's level-lvl conflict
// back through the host's trail, folding each antecedent into a running
// lemma via cutting-planes resolution, and returns either a clause-shaped
// lemma (learned=nil, unit/ineqLits carry the clause) or a fresh
// Inequality to re-internalise.
func (a *analyzer) resolve(confl *Inequality, lvl int) (learned *Inequality, unit Lit, ineqLits []Lit, err error) {
	p := a.p
	lm := newLemma(p.pbSetBuf)
	lm.loadFromIneq(confl)
	trail := p.host.Trail()
	ptr := len(trail) - 1

	var asserting Lit
	for {
		only, ok := lm.onlyFalsifiedAt(p, trail, ptr, lvl)
		if ok {
			asserting = only
			break
		}
		if lvl <= 1 {
			return nil, 0, nil, errors.New("pbtheory: cutting-planes conflict bottomed out at base level")
		}
		var lit Lit
		for {
			if ptr < 0 {
				return nil, 0, nil, errors.New("pbtheory: cutting-planes exhausted trail")
			}
			lit = trail[ptr]
			if lm.falsifies(lit) {
				break
			}
			if p.host.Justification(lit.Var()).Kind == JustDecision {
				lvl--
			}
			ptr--
		}
		v := lit.Var()
		just := p.host.Justification(v)
		if just.Kind == JustDecision {
			lvl--
			ptr--
			continue
		}
		lm.roundToOne(p, v)

		switch {
		case just.Kind == JustExternal && just.TheoryID == selfTheoryID && just.Inequality != nil:
			cp := just.Inequality
			cpCoeff := cp.Coeff(v)
			if cpCoeff == 0 {
				ptr--
				continue
			}
			g := lcm(1, cpCoeff) // lm's coefficient on v is 1 after roundToOne
			lm2 := newLemma(p.pbSetBuf2)
			lm2.loadFromIneq(cp)
			lm2.scale(g / cpCoeff)
			lm.clash(lm2)
		case just.Kind == JustClause || just.Kind == JustAxiom:
			if len(just.Clause) == 0 {
				// No resolvable antecedent (a base fact): escape.
				ineqLits = append(ineqLits, lit)
				ptr--
				continue
			}
			lm2 := newLemma(p.pbSetBuf2)
			lm2.loadFromClause(just.Clause)
			lm.clash(lm2)
		default:
			// Foreign-theory justification with no literals to fold: the
			// conflict analysis can't see through it, so it escapes into
			// the final explanation clause instead (§9 "known limitation").
			p.log.WithField("var", v).Debug("cutting-planes: opaque antecedent, escaping")
			ineqLits = append(ineqLits, lit)
			ptr--
			continue
		}
		if lm.card <= 0 {
			return nil, 0, nil, errors.New("pbtheory: cutting-planes lemma became satisfied, abandoning")
		}
		ptr--
	}

	p.log.WithField("backtrack_level", lm.backtrackLevel(p, asserting)).Debug("cutting-planes: learned lemma")
	lm.roundToOne(p, asserting.Var())

	// §4.5 step 6: hoist_maximal_values.
	for v, w := range lm.weights {
		if abs(w) < lm.card {
			continue
		}
		l := v.Lit()
		if w < 0 {
			l = l.Negation()
		}
		ineqLits = append(ineqLits, l.Negation())
		delete(lm.weights, v)
	}

	if lm.weightSum() < lm.card {
		clause := make([]Lit, 0, len(ineqLits)+1)
		for _, l := range ineqLits {
			clause = append(clause, l.Negation())
		}
		clause = append(clause, asserting.Negation())
		return nil, asserting, clause, nil
	}

	fresh := lm.toInequality(0)
	return fresh, 0, ineqLits, nil
}

// validateWatch checks c's watch invariant (§3 "Watch invariant"): the
// watched prefix's coefficient sum must equal WatchSum, WatchSum must be
// at least K, and MaxWatch must equal the largest watched coefficient.
// It is an assertion, not a repair, grounded on the teacher's habit of
// shipping read-only consistency checkers for tests to call directly
// rather than compiling them in behind a build tag.
func (a *analyzer) validateWatch(c *Inequality) error {
	sum, max := 0, 0
	for i := 0; i < c.WatchSz; i++ {
		sum += c.Args[i].c
		if c.Args[i].c > max {
			max = c.Args[i].c
		}
	}
	if sum != c.WatchSum {
		return errors.Errorf("pbtheory: watch sum mismatch: got %d, want %d", c.WatchSum, sum)
	}
	if sum < c.K {
		return errors.Errorf("pbtheory: watch sum %d below k=%d", sum, c.K)
	}
	if max != c.MaxWatch {
		return errors.Errorf("pbtheory: max watch mismatch: got %d, want %d", c.MaxWatch, max)
	}
	return nil
}
