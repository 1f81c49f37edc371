package pbtheory_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/crillab/pbsolve/pbtheory"
	"github.com/crillab/pbsolve/refhost"
)

// newNetworkFixture returns a Plugin/Solver pair with nbVars fresh
// variables already allocated, for exercising GE/LE/EQ's emitted clauses
// through refhost's naive propagator.
func newNetworkFixture(nbVars int) (*refhost.Solver, *pbtheory.Plugin, []pbtheory.Lit) {
	host := refhost.New()
	plugin := pbtheory.New(host, pbtheory.DefaultConfig())
	host.Attach(plugin)
	xs := make([]pbtheory.Lit, nbVars)
	for i := 0; i < nbVars; i++ {
		xs[i] = host.NewVar().Lit()
	}
	return host, plugin, xs
}

func TestGEAtLeastTwoOfFour(t *testing.T) {
	host, plugin, xs := newNetworkFixture(4)
	y := plugin.GE(false, 2, 4, xs)

	// Forcing y true and x1, x2 false must force x3 true, since otherwise
	// fewer than 2 of the 4 literals hold.
	if err := host.Assign(y, pbtheory.Justification{Kind: pbtheory.JustAxiom}); err != nil {
		t.Fatalf("assigning y: %v", err)
	}
	if err := host.Assign(xs[0].Negation(), pbtheory.Justification{Kind: pbtheory.JustAxiom}); err != nil {
		t.Fatalf("assigning ~x1: %v", err)
	}
	if err := host.Assign(xs[1].Negation(), pbtheory.Justification{Kind: pbtheory.JustAxiom}); err != nil {
		t.Fatalf("assigning ~x2: %v", err)
	}
	if host.Propagate() {
		t.Fatalf("unexpected conflict propagating GE(2,4) with 2 of 4 already false")
	}
	if got := host.Assignment(xs[2]); got != pbtheory.True {
		t.Errorf("expected x3 forced true, got %s", got)
	}
}

func TestGEDegenerateBounds(t *testing.T) {
	_, plugin, xs := newNetworkFixture(3)
	if got := plugin.GE(false, 0, 3, xs); got != pbtheory.LitTrue {
		t.Errorf("GE with k<=0 should be trivially true, got %d", got)
	}
	if got := plugin.GE(false, 4, 3, xs); got != pbtheory.LitFalse {
		t.Errorf("GE with k>n should be trivially false, got %d", got)
	}
}

func TestLEAtMostOneOfFour(t *testing.T) {
	host, plugin, xs := newNetworkFixture(4)
	// le(1, 4, xs): at most 1 of 4 true. With 2*k=2 <= n=4 this stays on
	// the LE path directly rather than dualising.
	y := plugin.LE(false, 1, 4, xs)
	if err := host.Assign(y, pbtheory.Justification{Kind: pbtheory.JustAxiom}); err != nil {
		t.Fatalf("assigning y: %v", err)
	}
	if err := host.Assign(xs[0], pbtheory.Justification{Kind: pbtheory.JustAxiom}); err != nil {
		t.Fatalf("assigning x1: %v", err)
	}
	if host.Propagate() {
		t.Fatalf("unexpected conflict propagating LE(1,4) with one literal true")
	}
	for _, x := range xs[1:] {
		if got := host.Assignment(x); got != pbtheory.False {
			t.Errorf("expected remaining literal forced false under le(1,4), got %s for lit %d", got, x)
		}
	}
}

func TestEQExactlyOneOfTwo(t *testing.T) {
	host, plugin, xs := newNetworkFixture(2)
	y := plugin.EQ(false, 1, 2, xs)
	if err := host.Assign(y, pbtheory.Justification{Kind: pbtheory.JustAxiom}); err != nil {
		t.Fatalf("assigning y: %v", err)
	}
	if err := host.Assign(xs[0], pbtheory.Justification{Kind: pbtheory.JustAxiom}); err != nil {
		t.Fatalf("assigning x1: %v", err)
	}
	if host.Propagate() {
		t.Fatalf("unexpected conflict propagating eq(1,2) with x1 true")
	}
	if got := host.Assignment(xs[1]); got != pbtheory.False {
		t.Errorf("expected x2 forced false under eq(1,2) with x1 true, got %s", got)
	}
}

// geStatuses builds ge(2,4,xs) under cfg, asserts it and x1 true, then
// returns the resulting truth value of every original xs literal — used to
// diff the direct and recursive constructions against each other below the
// n<10 threshold (§4.3's "disable"/"force" gates exist "to aid differential
// testing").
func geStatuses(t *testing.T, cfg pbtheory.Config) []string {
	t.Helper()
	host := refhost.New()
	plugin := pbtheory.New(host, cfg)
	host.Attach(plugin)
	xs := make([]pbtheory.Lit, 4)
	for i := range xs {
		xs[i] = host.NewVar().Lit()
	}
	y := plugin.GE(false, 2, 4, xs)
	if err := host.Assign(y, pbtheory.Justification{Kind: pbtheory.JustAxiom}); err != nil {
		t.Fatalf("asserting ge(2,4): %v", err)
	}
	if err := host.Assign(xs[0], pbtheory.Justification{Kind: pbtheory.JustAxiom}); err != nil {
		t.Fatalf("assigning x1: %v", err)
	}
	if host.Propagate() {
		t.Fatalf("unexpected conflict propagating ge(2,4) with x1 true")
	}
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = host.Assignment(x).String()
	}
	return out
}

func TestForcedDirectEncodingAgreesWithRecursive(t *testing.T) {
	recursive := pbtheory.DefaultConfig()
	recursive.DisableDirectSorting = true
	recursive.DisableDirectMerge = true
	recursive.DisableDirectCard = true

	direct := pbtheory.DefaultConfig()
	direct.ForceDirectSorting = true
	direct.ForceDirectCard = true

	if diff := cmp.Diff(geStatuses(t, recursive), geStatuses(t, direct)); diff != "" {
		t.Errorf("direct and recursive encodings of ge(2,4) disagree on x1..x4 (-recursive +direct):\n%s", diff)
	}
}
