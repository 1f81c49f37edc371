package pbtheory

// This file deals with arena-style ownership of Inequality argument slices
// (§9: "Cyclic back-references between an inequality and its watch-list
// entries: resolve with arena-style ownership"). It is a direct adaptation
// of the teacher's clause allocator (solver/clause_alloc.go), which pools
// []Lit backing arrays for binary/ternary clauses; here the pool holds
// []term backing arrays for Inequality.Args, since inequalities, unlike
// clauses, are frequently rebuilt during cutting-planes resolution (§4.5)
// and would otherwise churn the GC heavily.

const termsPerChunk = 200000 // how many terms are preallocated per chunk

type termAllocator struct {
	chunk   []term
	ptrFree int
}

var termAlloc termAllocator

// newTerms returns a []term containing a copy of ts, taken from the
// preallocated pool when there's room, or freshly allocated otherwise.
func (a *termAllocator) newTerms(ts ...term) []term {
	if a.ptrFree+len(ts) > len(a.chunk) {
		n := termsPerChunk
		if len(ts) > n {
			n = len(ts)
		}
		a.chunk = make([]term, n)
		copy(a.chunk, ts)
		a.ptrFree = len(ts)
		return a.chunk[:len(ts)]
	}
	copy(a.chunk[a.ptrFree:], ts)
	a.ptrFree += len(ts)
	return a.chunk[a.ptrFree-len(ts) : a.ptrFree]
}

// ineqTable owns every live Inequality, keyed by the variable of its
// reifying literal — the sole owner referred to in §3's "Ownership &
// lifecycle" and §9. Watch lists (watch.go) hold non-owning references
// into this table; nothing outside ineqTable ever calls delete on an
// Inequality's backing storage directly.
type ineqTable struct {
	byVar map[Var]*Inequality
	// createdAt[v] is the scope depth at which ineqs[v] was created, used
	// by PopScope to find and evict everything created after a mark.
	createdAt map[Var]int
}

func newIneqTable() *ineqTable {
	return &ineqTable{
		byVar:     make(map[Var]*Inequality),
		createdAt: make(map[Var]int),
	}
}

func (t *ineqTable) put(v Var, c *Inequality, scope int) {
	t.byVar[v] = c
	t.createdAt[v] = scope
}

func (t *ineqTable) get(v Var) *Inequality {
	return t.byVar[v]
}

func (t *ineqTable) remove(v Var) {
	delete(t.byVar, v)
	delete(t.createdAt, v)
}

// evictAbove removes every inequality created at a scope depth greater
// than mark, returning the evicted inequalities themselves (not just their
// keys) so the caller (PopScope) can still purge their watch-list entries
// after they're gone from the table.
func (t *ineqTable) evictAbove(mark int) []*Inequality {
	var removed []*Inequality
	var keys []Var
	for v, depth := range t.createdAt {
		if depth > mark {
			keys = append(keys, v)
			removed = append(removed, t.byVar[v])
		}
	}
	for _, v := range keys {
		t.remove(v)
	}
	return removed
}
