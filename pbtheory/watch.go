package pbtheory

// This file implements component D, the watched-literal engine for
// weighted PB constraints (§4.4). It generalises the teacher's
// cardinality-only watcher (solver/watcher.go: wlist/wlistBin, swapFalse,
// simplifyCardClause) to arbitrary positive integer coefficients: instead
// of watching exactly "cardinality + 1" literals, the watched prefix grows
// until its coefficient sum clears k + the largest watched coefficient
// (§3 "Watch invariant"), which is what lets a single falsified watched
// literal be replaced without re-scanning the whole constraint.

// watchSet holds, for each literal, the list of inequalities whose watched
// prefix contains the argument term whose negation is that literal — i.e.
// the inequalities to revisit when that literal becomes true (mirroring
// the teacher's convention: an inequality is stored at the key
// `term.lit.Negation()`, exactly like solver/watcher.go's
// `neg := lit.Negation(); s.wl.wlist[neg] = append(...)`).
type watchSet struct {
	byLit map[Lit][]*Inequality
}

func newWatchSet() *watchSet {
	return &watchSet{byLit: make(map[Lit][]*Inequality)}
}

func (w *watchSet) add(l Lit, c *Inequality) {
	w.byLit[l] = append(w.byLit[l], c)
}

// remove deletes the first occurrence of c from l's list using swap-to-back
// removal, matching solver/watcher.go's removeFrom.
func (w *watchSet) remove(l Lit, c *Inequality) {
	lst := w.byLit[l]
	for i, cc := range lst {
		if cc == c {
			last := len(lst) - 1
			lst[i] = lst[last]
			w.byLit[l] = lst[:last]
			return
		}
	}
}

// unwatchAll removes every watch-list entry for c's current watched
// prefix, used by PopScope when c is evicted (§3).
func (w *watchSet) unwatchAll(c *Inequality) {
	if c == nil {
		return
	}
	for i := 0; i < c.WatchSz && i < len(c.Args); i++ {
		w.remove(c.Args[i].lit.Negation(), c)
	}
}

// litStatus reports l's current truth value under the host's assignment,
// treating the two sentinels specially.
func (p *Plugin) litStatus(l Lit) LitStatus {
	switch l {
	case LitTrue:
		return True
	case LitFalse:
		return False
	default:
		return p.host.Assignment(l)
	}
}

// reasonClause builds the explanation/conflict clause shared by every
// outcome of §4.4: not(lit(C)) plus the falsified literals involved.
// Every variant named in the spec — "(not lit(C) or OR l : false)" for
// conflicts and "(lit(C) or OR not l) -> forced" for propagations —
// reduces to this same clause once negations are pushed through; callers
// that propagate a forced literal append it themselves.
func reasonClause(c *Inequality, falsified []Lit) []Lit {
	clause := make([]Lit, 0, len(falsified)+2)
	clause = append(clause, c.Lit.Negation())
	clause = append(clause, falsified...)
	return clause
}

// assignIneq implements §4.4 "Activation (assign_ineq(C, polarity))": it
// is called once, when the plugin observes that C's own reifying variable
// has been bound. It returns a non-nil conflict clause iff C is already
// violated under the current assignment.
func (p *Plugin) assignIneq(c *Inequality, polarity bool) []Lit {
	if polarity != c.Lit.IsPositive() {
		c.Negate()
		switch c.Normalise() {
		case StatusUnsat:
			return []Lit{} // empty conflict: top-level contradiction
		case StatusSat:
			return nil
		}
		c.Prune()
	}

	maxsum := 0
	mininc := -1
	var falsifiedLits []Lit
	for _, t := range c.Args {
		switch p.litStatus(t.lit) {
		case False:
			falsifiedLits = append(falsifiedLits, t.lit)
		default:
			maxsum += t.c
			if p.litStatus(t.lit) == Undef && (mininc == -1 || t.c < mininc) {
				mininc = t.c
			}
		}
	}
	if maxsum < c.K {
		return reasonClause(c, falsifiedLits)
	}

	// Greedily grow the watched prefix until watch_sum >= k + max_watch,
	// or the whole list is watched (§4.4 step 4).
	c.WatchSz, c.WatchSum, c.MaxWatch = 0, 0, 0
	for i, t := range c.Args {
		if p.litStatus(t.lit) == False {
			continue
		}
		c.Args[c.WatchSz], c.Args[i] = c.Args[i], c.Args[c.WatchSz]
		c.WatchSum += t.c
		if t.c > c.MaxWatch {
			c.MaxWatch = t.c
		}
		c.WatchSz++
		p.watch.add(t.lit.Negation(), c)
		if c.WatchSum >= c.K+c.MaxWatch {
			break
		}
	}

	if mininc != -1 && maxsum-mininc < c.K {
		for _, t := range c.Args {
			if p.litStatus(t.lit) == Undef {
				clause := append(reasonClause(c, falsifiedLits), t.lit)
				p.propagateUnit(t.lit, c, clause)
			}
		}
	}
	return nil
}

// propagateUnit records one forced propagation, bumping statistics and
// scheduling c for compilation once it crosses its threshold (§4.6).
func (p *Plugin) propagateUnit(lit Lit, c *Inequality, clause []Lit) {
	p.stats.Propagations++
	c.NumPropagations++
	_ = p.host.Assign(lit, Justification{
		Kind:       JustExternal,
		TheoryID:   selfTheoryID,
		Inequality: c,
		Clause:     clause,
	})
	p.maybeScheduleCompile(c)
}

func (p *Plugin) maybeScheduleCompile(c *Inequality) {
	if c.Compiled == notCompiled && c.NumPropagations >= c.CompilationThreshold {
		c.Compiled = compilePending
		p.compileQ.push(c)
	}
}

// onLiteralTrue is called whenever the host reports that lit became true;
// it is the entry point for the second half of §4.4: re-examining every
// inequality whose watched term (at key lit) was just falsified.
func (p *Plugin) onLiteralTrue(lit Lit) error {
	watchers := p.watch.byLit[lit]
	if len(watchers) == 0 {
		return nil
	}
	// Copy: the loop body mutates p.watch.byLit[lit] via remove/add as it
	// promotes and evicts watched literals.
	cs := make([]*Inequality, len(watchers))
	copy(cs, watchers)
	for _, c := range cs {
		if conflict, forced := p.updateOnFalsify(c, lit); conflict != nil {
			if err := p.raiseConflict(conflict, c); err != nil {
				return err
			}
		} else {
			for _, f := range forced {
				p.propagateUnit(f.lit, c, f.clause)
			}
		}
	}
	return nil
}

type forcedLit struct {
	lit    Lit
	clause []Lit
}

// updateOnFalsify implements the second half of §4.4: trueLit is the
// literal that just became true, falsifying the watched term whose
// argument literal is trueLit.Negation() inside c.
func (p *Plugin) updateOnFalsify(c *Inequality, trueLit Lit) (conflict []Lit, forced []forcedLit) {
	falsifiedArg := trueLit.Negation()
	w := -1
	for i := 0; i < c.WatchSz; i++ {
		if c.Args[i].lit == falsifiedArg {
			w = i
			break
		}
	}
	if w == -1 {
		// Stale entry (already promoted out by an earlier event in this
		// same batch); nothing to do.
		return nil, nil
	}
	coeff := c.Args[w].c
	ws := c.WatchSum - coeff
	var falsifiedLits []Lit
	for i := 0; i < c.WatchSz; i++ {
		if p.litStatus(c.Args[i].lit) == False {
			falsifiedLits = append(falsifiedLits, c.Args[i].lit)
		}
	}

	// Step 2: promote from the unwatched suffix while there's room.
	for ws < c.K+c.MaxWatch {
		promoted := -1
		for i := c.WatchSz; i < len(c.Args); i++ {
			if p.litStatus(c.Args[i].lit) != False {
				promoted = i
				break
			}
		}
		if promoted == -1 {
			break
		}
		t := c.Args[promoted]
		c.Args[promoted], c.Args[c.WatchSz] = c.Args[c.WatchSz], c.Args[promoted]
		p.watch.add(t.lit.Negation(), c)
		ws += t.c
		if t.c > c.MaxWatch {
			c.MaxWatch = t.c
		}
		c.WatchSz++
	}

	if ws < c.K {
		return reasonClause(c, falsifiedLits), nil
	}

	// Step 4: commit, and evict w from the watched prefix.
	c.WatchSum = ws
	p.watch.remove(trueLit, c)
	last := c.WatchSz - 1
	// w may have moved during promotion only if w >= c.WatchSz, which
	// cannot happen since promotion only ever touches indices >= the
	// (unchanged) original WatchSz; w < original WatchSz always.
	c.Args[w], c.Args[last] = c.Args[last], c.Args[w]
	c.WatchSz--
	if coeff == c.MaxWatch {
		c.MaxWatch = 0
		for i := 0; i < c.WatchSz; i++ {
			if c.Args[i].c > c.MaxWatch {
				c.MaxWatch = c.Args[i].c
			}
		}
	}

	// Step 5: force every watched-but-undefined literal whose coefficient
	// alone would close the gap.
	if c.WatchSum < c.K+c.MaxWatch {
		for i := 0; i < c.WatchSz; i++ {
			t := c.Args[i]
			if p.litStatus(t.lit) == Undef && t.c > c.WatchSum-c.K {
				clause := append(reasonClause(c, falsifiedLits), t.lit)
				forced = append(forced, forcedLit{lit: t.lit, clause: clause})
			}
		}
	}
	return nil, forced
}
