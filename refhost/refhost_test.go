package refhost_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crillab/pbsolve/pbtheory"
	"github.com/crillab/pbsolve/refhost"
)

func TestPushPopScopeRewindsTrail(t *testing.T) {
	host := refhost.New()
	x1 := host.NewVar().Lit()

	host.PushScope()
	require.NoError(t, host.Assign(x1, pbtheory.Justification{Kind: pbtheory.JustDecision}))
	assert.Equal(t, pbtheory.True, host.Assignment(x1))

	require.NoError(t, host.PopScope(1))
	assert.Equal(t, pbtheory.Undef, host.Assignment(x1))
}

func TestPopScopeRejectsOverPop(t *testing.T) {
	host := refhost.New()
	host.PushScope()
	err := host.PopScope(2)
	assert.Error(t, err)
}

func TestPropagateUnitClause(t *testing.T) {
	host := refhost.New()
	x1 := host.NewVar().Lit()
	x2 := host.NewVar().Lit()
	host.AddClause([]pbtheory.Lit{x1, x2}, pbtheory.ClauseAxiom)

	require.NoError(t, host.Assign(x1.Negation(), pbtheory.Justification{Kind: pbtheory.JustDecision}))
	conflict := host.Propagate()
	require.False(t, conflict)
	assert.Equal(t, pbtheory.True, host.Assignment(x2))
}

func TestPropagateDetectsConflict(t *testing.T) {
	host := refhost.New()
	x1 := host.NewVar().Lit()
	host.AddClause([]pbtheory.Lit{x1}, pbtheory.ClauseAxiom)

	require.NoError(t, host.Assign(x1.Negation(), pbtheory.Justification{Kind: pbtheory.JustDecision}))
	assert.True(t, host.Propagate())
}

func TestModelReflectsBindings(t *testing.T) {
	host := refhost.New()
	x1 := host.NewVar().Lit()
	x2 := host.NewVar().Lit()
	require.NoError(t, host.Assign(x1, pbtheory.Justification{Kind: pbtheory.JustDecision}))
	require.NoError(t, host.Assign(x2.Negation(), pbtheory.Justification{Kind: pbtheory.JustDecision}))

	model := host.Model()
	require.Len(t, model, 2)
	assert.True(t, model[0])
	assert.False(t, model[1])
}
