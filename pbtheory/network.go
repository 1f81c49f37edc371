package pbtheory

import "github.com/google/uuid"

// This file implements component C, the sorting-network compiler (§4.3).
// It plays the role the teacher never needed (gophersat never replaces a
// hot constraint with a derived clausal network); the shape of its
// memoized gate construction is grounded on go-air-gini's logic.C.And
// (logic/c.go), which caches AND gates in a strash keyed by operand pair
// so that structurally identical subformulas share one variable. Here the
// cache is a plain map rather than gini's open-addressed table, since the
// plugin builds comparatively few networks per restart and the point
// being borrowed is the memoization discipline, not gini's hash layout.

// polarity selects which half (or both) of a comparator's implications a
// network construction emits, per §4.3 "cmp".
type polarity byte

const (
	polGE polarity = iota
	polLE
	polEQ
)

// netBuilder threads one top-level ge/le/eq call's polarity and gate
// cache through every recursive helper, and centralises every call into
// the host so compilation statistics (§6 "pb compiled clauses/vars") are
// counted in one place.
type netBuilder struct {
	p    *Plugin
	mode polarity

	maxMemo map[[2]Lit]Lit
	minMemo map[[2]Lit]Lit
}

func newNetBuilder(p *Plugin, mode polarity) *netBuilder {
	return &netBuilder{p: p, mode: mode, maxMemo: map[[2]Lit]Lit{}, minMemo: map[[2]Lit]Lit{}}
}

func (n *netBuilder) newVar() Lit {
	n.p.stats.CompiledVars++
	return n.p.host.NewVar().Lit()
}

func (n *netBuilder) addClause(lits []Lit) {
	n.p.stats.CompiledClauses++
	n.p.host.AddClause(lits, ClauseLearned)
}

func memoKey(a, b Lit) [2]Lit {
	if a > b {
		a, b = b, a
	}
	return [2]Lit{a, b}
}

// maxGate lazily introduces a fresh variable equivalent to a||b (§4.3
// "max(a,b)"), skipping gate creation when a=b.
func (n *netBuilder) maxGate(a, b Lit) Lit {
	if a == b {
		return a
	}
	k := memoKey(a, b)
	if y, ok := n.maxMemo[k]; ok {
		return y
	}
	y := n.newVar()
	n.addClause([]Lit{y.Negation(), a, b})
	n.addClause([]Lit{y, a.Negation()})
	n.addClause([]Lit{y, b.Negation()})
	n.maxMemo[k] = y
	return y
}

// minGate lazily introduces a fresh variable equivalent to a&&b.
func (n *netBuilder) minGate(a, b Lit) Lit {
	if a == b {
		return a
	}
	k := memoKey(a, b)
	if y, ok := n.minMemo[k]; ok {
		return y
	}
	y := n.newVar()
	n.addClause([]Lit{y, a.Negation(), b.Negation()})
	n.addClause([]Lit{y.Negation(), a})
	n.addClause([]Lit{y.Negation(), b})
	n.minMemo[k] = y
	return y
}

// cmp encodes a single comparator element: (y1,y2) = (max(x1,x2),
// min(x1,x2)), emitting only the implications n.mode calls for (§4.3
// "cmp(x1,x2,y1,y2)").
func (n *netBuilder) cmp(x1, x2 Lit) (y1, y2 Lit) {
	if x1 == x2 {
		return x1, x2
	}
	y1 = n.newVar()
	y2 = n.newVar()
	if n.mode != polLE {
		n.addClause([]Lit{y1.Negation(), x1, x2})
		n.addClause([]Lit{y2.Negation(), x1})
		n.addClause([]Lit{y2.Negation(), x2})
	}
	if n.mode != polGE {
		n.addClause([]Lit{x1.Negation(), y1})
		n.addClause([]Lit{x2.Negation(), y1})
		n.addClause([]Lit{x1.Negation(), x2.Negation(), y2})
	}
	return y1, y2
}

func splitEvenOdd(xs []Lit) (even, odd []Lit) {
	for i, x := range xs {
		if i%2 == 0 {
			even = append(even, x)
		} else {
			odd = append(odd, x)
		}
	}
	return
}

// merge implements the odd-even merging network of §4.3 "merge(a,as,b,bs)":
// as and bs are each assumed already sorted (descending: true-before-false),
// and the result is their sorted merge.
func (n *netBuilder) merge(as, bs []Lit) []Lit {
	if len(as) == 0 {
		return bs
	}
	if len(bs) == 0 {
		return as
	}
	if len(as) == 1 && len(bs) == 1 {
		y1, y2 := n.cmp(as[0], bs[0])
		return []Lit{y1, y2}
	}
	aEven, aOdd := splitEvenOdd(as)
	bEven, bOdd := splitEvenOdd(bs)
	d := n.merge(aEven, bEven)
	e := n.merge(aOdd, bOdd)

	out := make([]Lit, 0, len(as)+len(bs))
	out = append(out, d[0])
	i, j := 1, 0
	for i < len(d) && j < len(e) {
		y1, y2 := n.cmp(d[i], e[j])
		out = append(out, y1, y2)
		i++
		j++
	}
	for ; i < len(d); i++ {
		out = append(out, d[i])
	}
	for ; j < len(e); j++ {
		out = append(out, e[j])
	}
	return out
}

// sorting is the full odd-even sort, built by recursively splitting and
// merging; it is what card falls back to when n<=k (§4.3 "card"). The
// dsorting gate (Config.{Disable,Force}DirectSorting) can replace this
// whole call with the direct exact-sorting encoding instead.
func (n *netBuilder) sorting(xs []Lit) []Lit {
	if len(xs) <= 1 {
		return xs
	}
	if n.p.useDirect(n.p.cfg.ForceDirectSorting, n.p.cfg.DisableDirectSorting, len(xs), len(xs)) {
		return n.dsorting(len(xs), len(xs), xs)
	}
	mid := len(xs) / 2
	left := n.sorting(xs[:mid])
	right := n.sorting(xs[mid:])
	return n.merge(left, right)
}

// smerge is the simplified merge of §4.3: it returns at most min(a+b,c)
// outputs, since only the top c ranks matter to a "k=c-1" cardinality
// query. The dsmerge gate (Config.{Disable,Force}DirectMerge) can replace
// this call with the direct c-bounded merge encoding instead.
func (n *netBuilder) smerge(c int, as, bs []Lit) []Lit {
	if len(as) == 1 && len(bs) == 1 && c == 1 {
		y1, _ := n.cmp(as[0], bs[0])
		return []Lit{y1}
	}
	if len(as) > c {
		as = as[:c]
	}
	if len(bs) > c {
		bs = bs[:c]
	}
	if len(as)+len(bs) <= c {
		return n.merge(as, bs)
	}
	if n.p.useDirect(n.p.cfg.ForceDirectMerge, n.p.cfg.DisableDirectMerge, len(as)+len(bs), c) {
		return n.dsmerge(c, as, bs)
	}

	aEven, aOdd := splitEvenOdd(as)
	bEven, bOdd := splitEvenOdd(bs)
	c1 := c/2 + 1
	c2 := c / 2
	d := n.smerge(c1, aEven, bEven)
	e := n.smerge(c2, aOdd, bOdd)

	out := make([]Lit, 0, c)
	out = append(out, d[0])
	i, j := 1, 0
	for i < len(d) && j < len(e) && len(out) < c-1 {
		y1, y2 := n.cmp(d[i], e[j])
		out = append(out, y1, y2)
		i++
		j++
	}
	if c%2 == 0 && i < len(d) && j < len(e) {
		out = append(out, n.maxGate(d[i], e[j]))
	}
	for ; i < len(d) && len(out) < c; i++ {
		out = append(out, d[i])
	}
	for ; j < len(e) && len(out) < c; j++ {
		out = append(out, e[j])
	}
	if len(out) > c {
		out = out[:c]
	}
	return out
}

// card returns the top k rank outputs of sorting xs, per §4.3 "card(k,n,xs)".
func (n *netBuilder) card(k, nn int, xs []Lit) []Lit {
	if nn <= k {
		return n.sorting(xs)
	}
	mid := nn / 2
	left := n.card(k, mid, xs[:mid])
	right := n.card(k, nn-mid, xs[mid:])
	return n.smerge(k, left, right)
}

// combinations calls f once per size-k subset of {0,...,nn-1}, in
// increasing lexicographic order. The n<10 direct-encoding threshold (§4.3
// "Cost model") bounds the exponential blow-up only when no Force gate is
// set; this helper itself applies no bound.
func combinations(nn, k int, f func(subset []int)) {
	if k < 0 || k > nn {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	if k == 0 {
		f(nil)
		return
	}
	for {
		f(idx)
		i := k - 1
		for i >= 0 && idx[i] == nn-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// dsorting is the direct (exponential) exact-sorting encoding of §4.3,
// used below the direct-encoding threshold in place of the recursive
// sorting network.
func (n *netBuilder) dsorting(m, nn int, xs []Lit) []Lit {
	out := make([]Lit, m)
	for i := range out {
		out[i] = n.newVar()
	}
	if n.mode != polGE {
		for k := 1; k <= m; k++ {
			combinations(nn, k, func(subset []int) {
				clause := make([]Lit, 0, len(subset)+1)
				clause = append(clause, out[k-1])
				for _, idx := range subset {
					clause = append(clause, xs[idx].Negation())
				}
				n.addClause(clause)
			})
		}
	}
	if n.mode != polLE {
		for k := 1; k <= m; k++ {
			size := nn - k + 1
			if size < 0 || size > nn {
				continue
			}
			combinations(nn, size, func(subset []int) {
				clause := make([]Lit, 0, len(subset)+1)
				clause = append(clause, out[k-1].Negation())
				for _, idx := range subset {
					clause = append(clause, xs[idx])
				}
				n.addClause(clause)
			})
		}
	}
	return out
}

// dsmerge is the direct encoding of a c-bounded merge of two already-direct
// encoded inputs (§4.3 "dsmerge(c,a,as,b,bs)").
func (n *netBuilder) dsmerge(c int, as, bs []Lit) []Lit {
	out := make([]Lit, c)
	for i := range out {
		out[i] = n.newVar()
	}
	all := append(append([]Lit{}, as...), bs...)
	if n.mode != polLE {
		for i, a := range as {
			for m := i + len(bs); m < c; m++ {
				n.addClause([]Lit{out[m].Negation(), a})
			}
		}
		for j, b := range bs {
			for m := j + len(as); m < c; m++ {
				n.addClause([]Lit{out[m].Negation(), b})
			}
		}
		for i, a := range as {
			for j, b := range bs {
				if i+j+1 <= c {
					n.addClause([]Lit{out[i+j].Negation(), a, b})
				}
			}
		}
	}
	if n.mode != polGE {
		for k := 1; k <= c; k++ {
			size := k
			if size < 0 || size > len(all) {
				continue
			}
			combinations(len(all), size, func(subset []int) {
				clause := make([]Lit, 0, len(subset)+1)
				clause = append(clause, out[k-1])
				for _, idx := range subset {
					clause = append(clause, all[idx].Negation())
				}
				n.addClause(clause)
			})
		}
	}
	return out
}

// vc is the cost model of §4.3: "vc(v,c) = 5v+c", vertices and clauses.
func vc(vertices, clauses int) int {
	return 5*vertices + clauses
}

// directCost estimates a direct encoding's cost without building it: m
// fresh vars, and up to 2*2^(n-1) clauses.
func directCost(m, nn int) int {
	clauses := 1
	for i := 0; i < nn-1; i++ {
		clauses *= 2
		if clauses > 1<<20 {
			break
		}
	}
	return vc(m, 2*clauses)
}

// recursiveCost is a rough vertex/clause estimate for the recursive
// sorting network: n*ceil(log2 n) comparators, three clauses each.
func recursiveCost(nn int) int {
	comparators := 0
	for sz := 1; sz < nn; sz *= 2 {
		comparators += nn
	}
	return vc(comparators, comparators*3)
}

// useDirect decides, per the differential-testing gates of Config and the
// n<10 threshold, whether a direct encoding should replace the recursive
// one for an nn-sized input.
func (p *Plugin) useDirect(forced, disabled bool, nn, m int) bool {
	if disabled {
		return false
	}
	if forced {
		return true
	}
	if nn >= p.cfg.DirectEncodingThreshold {
		return false
	}
	return directCost(m, nn) < recursiveCost(nn)
}

func negateAll(xs []Lit) []Lit {
	out := make([]Lit, len(xs))
	for i, x := range xs {
		out[i] = x.Negation()
	}
	return out
}

// GE implements the top-level §4.3 "ge(full,k,n,xs)": it returns a single
// literal equivalent to sum(xs) >= k, half-reified unless full is set.
func (p *Plugin) GE(full bool, k, nn int, xs []Lit) Lit {
	if k <= 0 {
		return LitTrue
	}
	if k > nn {
		return LitFalse
	}
	if 2*k > nn {
		return p.LE(full, nn-k, nn, negateAll(xs))
	}
	mode := polGE
	if full {
		mode = polEQ // full reification needs both directions, like EQ's gadget
	}
	nb := newNetBuilder(p, mode)
	outs := p.cardWith(nb, k, nn, xs)
	return outs[k-1]
}

// LE implements "le(full,k,n,xs)": sum(xs) <= k.
func (p *Plugin) LE(full bool, k, nn int, xs []Lit) Lit {
	if k < 0 {
		return LitFalse
	}
	if k >= nn {
		return LitTrue
	}
	if 2*k > nn {
		return p.GE(full, nn-k, nn, negateAll(xs))
	}
	mode := polLE
	if full {
		mode = polEQ
	}
	nb := newNetBuilder(p, mode)
	outs := p.cardWith(nb, k+1, nn, xs)
	return outs[k].Negation()
}

// EQ implements "eq(full,k,n,xs)": sum(xs) == k, conjoining out[k-1] with
// not(out[k]) per §9's completeness note.
func (p *Plugin) EQ(full bool, k, nn int, xs []Lit) Lit {
	if k < 0 || k > nn {
		return LitFalse
	}
	if 2*k > nn {
		return p.EQ(full, nn-k, nn, negateAll(xs))
	}
	nb := newNetBuilder(p, polEQ)
	outs := p.cardWith(nb, k+1, nn, xs)
	if k == nn {
		return outs[k-1]
	}
	return nb.minGate(outs[k-1], outs[k].Negation())
}

// cardWith chooses between the direct and recursive constructions for the
// top-level card(k,n,xs) call, per the §4.3 cost model, honouring the
// dcard gate (Config.{Disable,Force}DirectCard); the sorting and merge
// gates apply one level down, inside card's own recursion.
func (p *Plugin) cardWith(nb *netBuilder, k, nn int, xs []Lit) []Lit {
	if p.useDirect(p.cfg.ForceDirectCard, p.cfg.DisableDirectCard, nn, k) {
		return nb.dsorting(k, nn, xs)
	}
	return nb.card(k, nn, xs)
}

// unroll turns a weighted sum into the multiset of literals the sorting
// network compiler expects (§4.6 step 1): each li repeated ci times.
//
// TODO: fold any argument already decided at the host's base level into
// K and drop it here, the way compile_ineq narrows its network before
// unrolling; skipped for now since it only shrinks the compiled network
// and never changes correctness.
func unroll(args []term) []Lit {
	var out []Lit
	for _, t := range args {
		for i := 0; i < t.c; i++ {
			out = append(out, t.lit)
		}
	}
	return out
}

// compile implements §4.6 "for each queued C": it adds a
// sorting-network-derived reification of C as host clauses. C itself is
// not unwatched: its watch-list entries stay in place and the watch
// propagator keeps processing it alongside the new clauses.
func (p *Plugin) compile(c *Inequality) {
	in := unroll(c.Args)
	baseTrue := p.litStatus(c.Lit) == True && p.hostLevel(c.Lit) == 0

	id := uuid.New()
	var result Lit
	if baseTrue {
		result = p.GE(false, c.K, len(in), in)
		p.host.AddClause([]Lit{c.Lit.Negation(), result}, ClauseLearned)
	} else {
		result = p.GE(true, c.K, len(in), in)
		p.host.AddClause([]Lit{c.Lit.Negation(), result}, ClauseLearned)
		p.host.AddClause([]Lit{c.Lit, result.Negation()}, ClauseLearned)
	}
	c.Compiled = compiled
	c.CompileID = id
	p.stats.Compilations++
	p.log.WithField("compile_id", id).
		WithField("vars", len(in)).
		WithField("k", c.K).
		Info("pbtheory: compiled inequality to a sorting network")
}
