package pbtheory

// ClauseKind distinguishes why a clause is being emitted, mirroring the
// "kind" argument of the host's ctx.mk_clause contract (§6).
type ClauseKind byte

const (
	// ClauseAxiom is a clause that is unconditionally true (biconditional
	// encodings, trivial-atom axioms, k=1 clausal encodings, §4.2).
	ClauseAxiom ClauseKind = iota
	// ClauseLearned is a clause produced by conflict analysis (§4.5), or
	// by the sorting-network compiler replacing a hot constraint (§4.6).
	ClauseLearned
)

// JustKind tags the variant of Justification a host reports for a bound
// variable (§3 "Conflict-analysis state", §4.5 step 3, §9 "Polymorphic
// justifications").
type JustKind byte

const (
	// JustDecision means v was bound by the host's decision heuristic,
	// not implied by any clause/inequality.
	JustDecision JustKind = iota
	// JustClause means v was propagated by a (binary or longer) clause.
	JustClause
	// JustAxiom means v was bound by a unit axiom.
	JustAxiom
	// JustExternal means v was propagated by a theory, identified by
	// TheoryID; only when TheoryID is this plugin's own id does Inequality
	// reveal an inner PB handle (§9).
	JustExternal
)

// Justification is the tagged union the host reports for a bound variable
// through Host.Justification, and the shape the plugin itself constructs
// when calling Host.Assign for its own propagations.
type Justification struct {
	Kind JustKind

	// Clause literals for JustClause/JustAxiom: the unit/binary/longer
	// clause that forced the binding, reified as "at least one of these
	// is true".
	Clause []Lit

	// TheoryID identifies the external theory for JustExternal.
	TheoryID int
	// Inequality is the PB inequality responsible for the propagation,
	// set only when TheoryID is the PB plugin's own id.
	Inequality *Inequality
}

// Host is the set of contracts the plugin consumes from its CDCL host
// (§6 "Contracts the plugin consumes"). A production host implements the
// full assignment trail, decision heuristic and clause-learning storage;
// this package never implements Host itself (that machinery is out of
// scope per §1), but ships a minimal reference implementation in the
// sibling refhost package for demos and tests.
type Host interface {
	// Assignment returns the current truth value of l.
	Assignment(l Lit) LitStatus
	// AssignLevel returns the decision level at which l's variable was
	// bound. Must not be called on an unbound variable.
	AssignLevel(v Var) int
	// Trail returns the assignment trail in chronological order.
	Trail() []Lit
	// Justification returns why v is currently bound.
	Justification(v Var) Justification
	// AddClause emits a new clause of the given kind.
	AddClause(lits []Lit, kind ClauseKind)
	// Assign binds l to true with the given justification. It is an
	// error to call Assign on an already-bound variable with a
	// conflicting value.
	Assign(l Lit, just Justification) error
	// NewVar allocates a fresh Boolean variable, e.g. for a proxy
	// literal (§4.2 step 2) or a sorting-network gate output (§4.3).
	NewVar() Var
}

// Stats mirrors the stable counter names of §6 ("Statistics counters").
type Stats struct {
	Conflicts       int // "pb conflicts"
	Propagations    int // "pb propagations"
	Predicates      int // "pb predicates"
	Compilations    int // "pb compilations"
	CompiledClauses int // "pb compiled clauses"
	CompiledVars    int // "pb compiled vars"
}
