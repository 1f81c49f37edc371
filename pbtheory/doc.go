/*
Package pbtheory implements the core of a pseudo-Boolean (PB) theory
plugin for a CDCL-style SMT/SAT solver.

The plugin decides conjunctions of linear integer constraints over
Boolean literals of the form

    c1*l1 + c2*l2 + ... + cn*ln >= k

with non-negative integer coefficients and threshold, including the
cardinality specialisation where every coefficient is 1. It does not
implement a CDCL engine itself: the assignment trail, decision
heuristic, clause-learning storage and backtracking scopes all belong
to a host, described by the Host interface in host.go. This package
only implements:

  - Internalisation of a PB atom into a canonical Inequality (Internalize).
  - A watched-literal propagator over the non-unit general form.
  - Cutting-planes conflict resolution generalising 1-UIP from clauses.
  - Opportunistic compilation of hot cardinality constraints into a
    sorting-network clausal encoding, scheduled at Restart.

Building a problem

A PBAtom is built either directly or through the convenience
constructors mirroring the common shapes of a PB atom, then handed to
Plugin.Internalize:

    AtLeastAtom(lits, k)            // at least k of lits are true
    AtMostAtom(lits, k)             // at most k of lits are true
    GtEqAtom(lits, weights, k)      // weighted >= k
    LtEqAtom(lits, weights, k)      // weighted <= k
    EqAtom(lits, weights, k)        // weighted == k

A Plugin owns the table of internalised inequalities and the watch
lists, and is the type a host event loop drives through Internalize,
Assign, PushScope/PopScope and Restart.
*/
package pbtheory
