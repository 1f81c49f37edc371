package pbtheory

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// compileState tracks whether an Inequality has been, or is queued to be,
// replaced by a sorting-network clausal encoding (§4.6).
type compileState byte

const (
	notCompiled compileState = iota
	compilePending
	compiled
)

// term is a single (literal, coefficient) pair of an Inequality.
type term struct {
	lit Lit
	c   int
}

// Inequality is the canonical internal representation of a PB constraint
//
//	c1*l1 + c2*l2 + ... + cn*ln >= k
//
// Lit is the reifying literal: when it is true the inequality above must
// hold; when it is false, the Knuth-negated inequality must hold instead
// (see Negate). Unique leaves Args sorted by variable; the watch
// propagator later reorders Args to keep the watched terms in a prefix.
//
// WatchSz, WatchSum and MaxWatch are watch metadata maintained exclusively
// by the watch propagator (watch.go); nothing else should write them.
type Inequality struct {
	Lit  Lit
	Args []term
	K    int

	WatchSz  int // prefix length of Args currently watched
	WatchSum int // sum of coefficients of the watched prefix
	MaxWatch int // max coefficient among the watched prefix

	Compiled             compileState
	NumPropagations      int
	CompilationThreshold int // +inf (represented as maxThreshold) disables compilation

	// CompileID is logged as compile_id on this inequality's compilation
	// log line; it is the zero UUID until Compiled. Stats carries no id.
	CompileID uuid.UUID
}

// maxThreshold marks an Inequality as never eligible for compilation.
const maxThreshold = int(^uint(0) >> 1)

// NewInequality builds an Inequality from an unreduced, possibly malformed,
// list of (literal, coefficient) terms. The caller must still run Unique,
// Normalise and Prune (in that order, per §4.1) before relying on any
// invariant.
func NewInequality(lit Lit, lits []Lit, weights []int, k int) *Inequality {
	args := make([]term, len(lits))
	for i, l := range lits {
		w := 1
		if weights != nil {
			w = weights[i]
		}
		args[i] = term{lit: l, c: w}
	}
	return &Inequality{Lit: lit, Args: args, K: k, CompilationThreshold: maxThreshold}
}

// WeightSum returns the sum of all coefficients, sum(ci).
func (c *Inequality) WeightSum() int {
	sum := 0
	for _, t := range c.Args {
		sum += t.c
	}
	return sum
}

// Coeff returns the coefficient of the term over variable v in c, or 0 if
// absent, whatever the sign of that term's literal.
func (c *Inequality) Coeff(v Var) int {
	for _, t := range c.Args {
		if t.lit.Var() == v {
			return t.c
		}
	}
	return 0
}

// Negate applies the Knuth transformation: flips Lit, complements every
// argument literal and replaces K with sum(ci) - K + 1. Per §4.1, the
// result must be passed through Normalise before further use.
func (c *Inequality) Negate() {
	c.Lit = c.Lit.Negation()
	sum := 0
	for i, t := range c.Args {
		sum += t.c
		c.Args[i].lit = t.lit.Negation()
	}
	c.K = sum - c.K + 1
}

// argSorter sorts Args by variable, mirroring the teacher's clauseSorter
// in solver/sort.go (there it orders by decision level; here by variable,
// since Unique needs adjacent duplicates to merge).
type argSorter struct {
	args []term
}

func (s *argSorter) Len() int      { return len(s.args) }
func (s *argSorter) Swap(i, j int) { s.args[i], s.args[j] = s.args[j], s.args[i] }
func (s *argSorter) Less(i, j int) bool {
	return s.args[i].lit.Var() < s.args[j].lit.Var()
}

// Unique sorts Args by variable and merges entries sharing a variable.
// Two opposite-sign occurrences of the same variable, with coefficients
// c1 and c2, contribute min(c1,c2) to the constant term (folded into K)
// and |c1-c2| to whichever literal had the larger coefficient — the
// standard x + not(x) = 1 substitution (§4.1).
func (c *Inequality) Unique() {
	if len(c.Args) == 0 {
		return
	}
	sort.Sort(&argSorter{c.Args})
	out := c.Args[:0]
	i := 0
	for i < len(c.Args) {
		t := c.Args[i]
		j := i + 1
		for j < len(c.Args) && c.Args[j].lit.Var() == t.lit.Var() {
			t2 := c.Args[j]
			if t2.lit == t.lit {
				t.c += t2.c
			} else {
				// opposite sign on the same variable
				m := min(t.c, t2.c)
				c.K -= m
				if t2.c > t.c {
					t = term{lit: t2.lit, c: t2.c - t.c}
				} else {
					t.c -= t2.c
				}
			}
			j++
		}
		out = append(out, t)
		i = j
	}
	c.Args = out
}

// Prune drops any term whose coefficient is 0 and saturates any
// coefficient exceeding K down to K (§4.1 invariant 2; §4.2 step 4): in a
// 0/1 context, contributing c or K above K to the sum are indistinguishable.
func (c *Inequality) Prune() {
	out := c.Args[:0]
	for _, t := range c.Args {
		if t.c == 0 {
			continue
		}
		if c.K > 0 && t.c > c.K {
			t.c = c.K
		}
		out = append(out, t)
	}
	c.Args = out
}

// Normalise simplifies c using the two sentinel literals, divides every
// coefficient and K by their gcd, and reports whether c is now trivially
// satisfied, trivially violated, or still undecided. On Undecided, c is
// left well-formed; on Sat or Unsat, c's fields are unspecified and it
// must be discarded by the caller (§4.1, §4.2 step 5).
func (c *Inequality) Normalise() Status {
	out := c.Args[:0]
	for _, t := range c.Args {
		switch t.lit {
		case LitTrue:
			c.K -= t.c
		case LitFalse:
			// dropped; contributes nothing
		default:
			out = append(out, t)
		}
	}
	c.Args = out
	if c.K <= 0 {
		return StatusSat
	}
	sum := c.WeightSum()
	if sum < c.K {
		return StatusUnsat
	}
	g := 0
	for _, t := range c.Args {
		g = gcd(g, t.c)
		if g == 1 {
			break
		}
	}
	g = gcd(g, c.K)
	if g > 1 {
		for i := range c.Args {
			c.Args[i].c /= g
		}
		if c.K%g == 0 {
			c.K /= g
		} else {
			c.K = c.K/g + 1
		}
	}
	return StatusUndecided
}

// Status is the three-valued outcome of Normalise, and of the watch
// propagator's per-event check (§4.1, §4.4, §7).
type Status byte

const (
	// StatusUndecided means no trivial verdict could be reached.
	StatusUndecided Status = iota
	// StatusSat means the inequality is trivially satisfied.
	StatusSat
	// StatusUnsat means the inequality is trivially violated.
	StatusUnsat
)

func (s Status) String() string {
	switch s {
	case StatusUndecided:
		return "UNDECIDED"
	case StatusSat:
		return "SAT"
	case StatusUnsat:
		return "UNSAT"
	default:
		panic("invalid status")
	}
}

// PBString renders c as "2 x1 + 3 ~x2 ... >= k  [lit=N]", for logging and
// tests — the pseudo-Boolean equivalent of the teacher's Clause.CNF().
func (c *Inequality) PBString() string {
	res := ""
	for i, t := range c.Args {
		if i > 0 {
			res += " + "
		}
		sign := ""
		if !t.lit.IsPositive() {
			sign = "~"
		}
		res += fmt.Sprintf("%d %sx%d", t.c, sign, t.lit.Var()+1)
	}
	return fmt.Sprintf("%s >= %d  [lit=%d]", res, c.K, c.Lit)
}

// WellFormed checks the five invariants of §3 and is used by tests and by
// debug-gated assertions (§7, §10.3); it never runs on a hot path.
func (c *Inequality) WellFormed() error {
	if c.K <= 0 {
		return fmt.Errorf("pbtheory: k=%d must be positive", c.K)
	}
	seen := make(map[Var]bool, len(c.Args))
	sum := 0
	for _, t := range c.Args {
		if t.c < 1 || t.c > c.K {
			return fmt.Errorf("pbtheory: coefficient %d out of range (0,%d] for var %d", t.c, c.K, t.lit.Var())
		}
		if t.lit.IsSentinel() {
			return fmt.Errorf("pbtheory: sentinel literal %d present in well-formed inequality", t.lit)
		}
		if seen[t.lit.Var()] {
			return fmt.Errorf("pbtheory: duplicate variable %d", t.lit.Var())
		}
		seen[t.lit.Var()] = true
		sum += t.c
	}
	if sum < c.K {
		return fmt.Errorf("pbtheory: sum of coefficients %d < k=%d", sum, c.K)
	}
	return nil
}
