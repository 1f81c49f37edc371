package pbtheory

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// selfTheoryID is the plugin's own theory id, used to recognise its own
// PB justifications on the host's trail during conflict analysis (§4.5
// step 3, §9 "Polymorphic justifications").
const selfTheoryID = 1

// Plugin is the host façade (component F): it owns every other
// component's mutable state (§3 "Ownership & lifecycle", §5 "Shared
// resource policy") and is the type a host event loop drives through
// Internalize, Assign, PushScope/PopScope, Restart and FinalCheck.
//
// Plugin corresponds to the teacher's Solver (solver/solver.go), cut down
// to exactly the theory-plugin surface: no decision heuristic, no trail,
// no restart *policy* — all of that belongs to the host.
type Plugin struct {
	host Host
	cfg  Config
	log  *logrus.Entry

	ineqs *ineqTable
	watch *watchSet

	scopeDepth int
	// No per-scope watch-list mark is kept; each Inequality's creation
	// scope is recorded in ineqs.createdAt, and PopScope removes the watch
	// entries of every inequality it drops right away (watch.go's
	// unwatchAll).

	compileQ *compileQueue

	analyzer *analyzer

	stats Stats

	// pbSetBuf/pbSetBuf2 are scratch buffers for conflict analysis,
	// reused across calls the way the teacher reuses s.pbSetBuf
	// (solver/learn_pb.go) to avoid per-conflict allocation.
	pbSetBuf  map[Var]int
	pbSetBuf2 map[Var]int
}

// New creates a Plugin bound to host, using cfg for every tunable.
func New(host Host, cfg Config) *Plugin {
	p := &Plugin{
		host:      host,
		cfg:       cfg,
		log:       logrus.WithField("component", "pbtheory"),
		ineqs:     newIneqTable(),
		watch:     newWatchSet(),
		compileQ:  newCompileQueue(),
		pbSetBuf:  make(map[Var]int),
		pbSetBuf2: make(map[Var]int),
	}
	p.analyzer = newAnalyzer(p)
	return p
}

// Assign is called by the host whenever it binds v to value (§6
// "assign(v, polarity)"). It updates the watch lists of every inequality
// watching v's newly-falsified occurrence and, for the inequality table
// entry keyed by v itself (if any), activates it via assignIneq.
func (p *Plugin) Assign(v Var, value bool) error {
	if c := p.ineqs.get(v); c != nil {
		if conflict := p.assignIneq(c, value); conflict != nil {
			return p.raiseConflict(conflict, c)
		}
	}
	trueLit := v.SignedLit(!value) // the occurrence made true by this binding
	return p.onLiteralTrue(trueLit)
}

// raiseConflict hands a freshly-detected conflict clause to the cutting
// planes analyser (§4.5), and, if it returns a learned lemma or unit
// literals, forwards those to the host.
func (p *Plugin) raiseConflict(conflictClause []Lit, confl *Inequality) error {
	p.stats.Conflicts++
	lvl := p.analyzer.conflictLevel(confl)
	if lvl <= 1 || lvl < p.hostLevel(confl.Lit) {
		// §4.5 step 1: abandon PB analysis, fall back to the clausal
		// conflict the host's own analyser will process.
		p.host.AddClause(conflictClause, ClauseLearned)
		return nil
	}
	learned, unit, ineqLits, err := p.analyzer.resolve(confl, lvl)
	if err != nil {
		p.log.WithError(err).Debug("cutting-planes analysis abandoned")
		p.host.AddClause(conflictClause, ClauseLearned)
		return nil
	}
	if learned == nil {
		// Resolution bottomed out in a clause-shaped lemma.
		return p.host.Assign(unit, Justification{Kind: JustClause, Clause: ineqLits})
	}
	lit, ierr := p.Internalize(PBAtom{
		Var:     NoVar,
		Lits:    litsOf(learned),
		Weights: weightsOf(learned),
		K:       learned.K,
		Op:      GE,
	})
	if ierr != nil {
		return ierr
	}
	return p.host.Assign(lit, Justification{
		Kind:       JustExternal,
		TheoryID:   selfTheoryID,
		Inequality: learned,
		Clause:     ineqLits,
	})
}

func (p *Plugin) hostLevel(lit Lit) int {
	if lit.IsSentinel() {
		return 0
	}
	return p.host.AssignLevel(lit.Var())
}

func litsOf(c *Inequality) []Lit {
	lits := make([]Lit, len(c.Args))
	for i, t := range c.Args {
		lits[i] = t.lit
	}
	return lits
}

func weightsOf(c *Inequality) []int {
	w := make([]int, len(c.Args))
	for i, t := range c.Args {
		w[i] = t.c
	}
	return w
}

// PushScope saves a high-water mark (§3 "Ownership & lifecycle").
func (p *Plugin) PushScope() {
	p.scopeDepth++
}

// PopScope pops n scopes, destroying every inequality created after the
// resulting mark and removing its watch-list entries (§3, §6
// "push_scope()/pop_scope(n)").
func (p *Plugin) PopScope(n int) error {
	if n <= 0 || n > p.scopeDepth {
		return errors.Errorf("pbtheory: invalid scope pop count %d at depth %d", n, p.scopeDepth)
	}
	mark := p.scopeDepth - n
	removed := p.ineqs.evictAbove(mark)
	for _, c := range removed {
		p.watch.unwatchAll(c)
	}
	p.scopeDepth = mark
	return nil
}

// Restart drains the compile queue (§4.6, §6 "restart()").
func (p *Plugin) Restart() {
	p.drainCompileQueue()
}

// FinalCheck always returns StatusSat: the plugin is complete over
// Boolean assignments (§6 "final_check()").
func (p *Plugin) FinalCheck() Status {
	return StatusSat
}

// MkValue returns a function that evaluates c's truth value under a given
// assignment, for the host's model construction (§6 "mk_value(enode)"):
// it sums the coefficients of every true argument and compares to K.
func (p *Plugin) MkValue(c *Inequality) func(assignment func(Lit) bool) bool {
	return func(assignment func(Lit) bool) bool {
		sum := 0
		for _, t := range c.Args {
			if assignment(t.lit) {
				sum += t.c
			}
		}
		holds := sum >= c.K
		if !c.Lit.IsPositive() {
			return !holds
		}
		return holds
	}
}

// CollectStatistics returns a snapshot of p's counters (§6
// "collect_statistics(sink)").
func (p *Plugin) CollectStatistics() Stats {
	return p.stats
}

// DumpWatches logs p's entire watch table at debug level, one line per
// watched literal listing the inequalities keyed on it. It is the
// pseudo-Boolean analogue of the teacher's clause-store dump helpers,
// meant for attaching to a failing test or an interactive debug session,
// never for a hot path.
func (p *Plugin) DumpWatches() {
	for lit, cs := range p.watch.byLit {
		rows := make([]string, len(cs))
		for i, c := range cs {
			rows[i] = c.PBString()
		}
		p.log.WithField("lit", lit).WithField("count", len(cs)).
			WithField("ineqs", rows).Debug("watch entry")
	}
}
