// Package refhost is a minimal reference implementation of pbtheory.Host,
// sufficient to drive Internalize/Assign/PushScope/PopScope/Restart for
// demos and tests. It is not a competitive CDCL engine: propagation is a
// linear clause scan rather than a watched-literal scheme, and decisions
// are made by the caller rather than by an activity heuristic — both
// choices the teacher's own Solver (solver/solver.go) makes very
// differently, since there performance is the point and here clarity is.
package refhost

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/crillab/pbsolve/pbtheory"
)

// decLevel mirrors solver/solver.go's Model convention: 0 means unbound,
// a positive value means bound true at that level, negative means bound
// false at that level.
type decLevel int

type storedClause struct {
	lits []pbtheory.Lit
	kind pbtheory.ClauseKind
}

// Solver is a tiny trail-based CDCL-shaped host, exposing just enough
// surface for pbtheory.Plugin to drive and be driven.
type Solver struct {
	log *logrus.Entry

	nbVars int
	model  []decLevel
	trail  []pbtheory.Lit
	reason []pbtheory.Justification

	clauses []storedClause

	level int

	// scopeMarks[d] is the trail length when scope d was pushed, for
	// PopScope's trail rewind.
	scopeMarks []int

	plugin *pbtheory.Plugin

	// Conflict holds the last raw conflicting clause detected by
	// Propagate, nil otherwise.
	Conflict []pbtheory.Lit
}

// New returns an empty Solver at decision level 1 (the teacher's base
// level convention — see solver/solver.go's decLevel).
func New() *Solver {
	return &Solver{
		log:   logrus.WithField("component", "refhost"),
		level: 1,
	}
}

// Attach binds p as the theory plugin this host drives.
func (s *Solver) Attach(p *pbtheory.Plugin) {
	s.plugin = p
}

// NewVar allocates a fresh Boolean variable.
func (s *Solver) NewVar() pbtheory.Var {
	v := pbtheory.Var(s.nbVars)
	s.nbVars++
	s.model = append(s.model, 0)
	s.reason = append(s.reason, pbtheory.Justification{})
	return v
}

// Assignment implements pbtheory.Host.
func (s *Solver) Assignment(l pbtheory.Lit) pbtheory.LitStatus {
	if l.IsSentinel() {
		if l == pbtheory.LitTrue {
			return pbtheory.True
		}
		return pbtheory.False
	}
	d := s.model[l.Var()]
	if d == 0 {
		return pbtheory.Undef
	}
	positive := d > 0
	if positive == l.IsPositive() {
		return pbtheory.True
	}
	return pbtheory.False
}

// AssignLevel implements pbtheory.Host.
func (s *Solver) AssignLevel(v pbtheory.Var) int {
	d := s.model[v]
	if d < 0 {
		d = -d
	}
	return int(d)
}

// Trail implements pbtheory.Host.
func (s *Solver) Trail() []pbtheory.Lit {
	return s.trail
}

// Justification implements pbtheory.Host.
func (s *Solver) Justification(v pbtheory.Var) pbtheory.Justification {
	return s.reason[v]
}

// AddClause implements pbtheory.Host.
func (s *Solver) AddClause(lits []pbtheory.Lit, kind pbtheory.ClauseKind) {
	cp := make([]pbtheory.Lit, len(lits))
	copy(cp, lits)
	s.clauses = append(s.clauses, storedClause{lits: cp, kind: kind})
}

// Assign implements pbtheory.Host: binds l to true at the current
// decision level, recording just as its justification.
func (s *Solver) Assign(l pbtheory.Lit, just pbtheory.Justification) error {
	if l.IsSentinel() {
		if l == pbtheory.LitTrue {
			return nil
		}
		return fmt.Errorf("refhost: assigning the false sentinel true")
	}
	v := l.Var()
	switch s.Assignment(l) {
	case pbtheory.True:
		return nil
	case pbtheory.False:
		return fmt.Errorf("refhost: conflicting assignment on var %d", v)
	}
	d := decLevel(s.level)
	if !l.IsPositive() {
		d = -d
	}
	s.model[v] = d
	s.reason[v] = just
	s.trail = append(s.trail, l)
	if s.plugin != nil {
		if err := s.plugin.Assign(v, l.IsPositive()); err != nil {
			return err
		}
	}
	return nil
}

// Decide pushes a new decision level and assigns lit as a decision
// literal, the moral equivalent of the teacher's chooseLit+propagateAndSearch
// pairing but driven by the caller instead of an activity heuristic.
func (s *Solver) Decide(lit pbtheory.Lit) error {
	s.level++
	return s.Assign(lit, pbtheory.Justification{Kind: pbtheory.JustDecision})
}

// Propagate does a naive fixed-point scan of every stored clause,
// assigning any literal forced by a clause with exactly one undefined
// literal and all others false, until no clause fires or a conflict is
// found. It returns true iff a conflict was detected (left in s.Conflict).
func (s *Solver) Propagate() bool {
	for {
		progressed := false
		for _, c := range s.clauses {
			undef := -1
			nUndef := 0
			sat := false
			for i, l := range c.lits {
				switch s.Assignment(l) {
				case pbtheory.True:
					sat = true
				case pbtheory.Undef:
					nUndef++
					undef = i
				}
			}
			if sat {
				continue
			}
			if nUndef == 0 {
				s.Conflict = c.lits
				return true
			}
			if nUndef == 1 {
				if err := s.Assign(c.lits[undef], pbtheory.Justification{Kind: pbtheory.JustClause, Clause: c.lits}); err != nil {
					s.Conflict = c.lits
					return true
				}
				progressed = true
			}
		}
		if !progressed {
			return false
		}
	}
}

// PushScope saves the current trail length and forwards to the plugin.
func (s *Solver) PushScope() {
	s.scopeMarks = append(s.scopeMarks, len(s.trail))
	if s.plugin != nil {
		s.plugin.PushScope()
	}
}

// PopScope rewinds the trail to the mark saved by the matching PushScope
// and forwards to the plugin, mirroring solver/solver.go's cleanupBindings.
func (s *Solver) PopScope(n int) error {
	if n <= 0 || n > len(s.scopeMarks) {
		return fmt.Errorf("refhost: invalid scope pop count %d at depth %d", n, len(s.scopeMarks))
	}
	mark := len(s.scopeMarks) - n
	target := s.scopeMarks[mark]
	for i := len(s.trail) - 1; i >= target; i-- {
		v := s.trail[i].Var()
		s.model[v] = 0
		s.reason[v] = pbtheory.Justification{}
	}
	s.trail = s.trail[:target]
	s.scopeMarks = s.scopeMarks[:mark]
	s.level -= n
	if s.level < 1 {
		s.level = 1
	}
	if s.plugin != nil {
		return s.plugin.PopScope(n)
	}
	return nil
}

// Restart forwards to the plugin's compile-queue drain.
func (s *Solver) Restart() {
	if s.plugin != nil {
		s.plugin.Restart()
	}
}

// Model returns the current total assignment as a []bool, true meaning
// the variable's positive literal holds.
func (s *Solver) Model() []bool {
	out := make([]bool, s.nbVars)
	for i, d := range s.model {
		out[i] = d > 0
	}
	return out
}
