package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/crillab/pbsolve/pbtheory"
)

// constraint is one parsed OPB line, generalising solver/parser_pb.go's
// PBConstr to carry its own comparison operator instead of always being
// coerced to ">=".
type constraint struct {
	lits    []pbtheory.Lit
	weights []int
	op      pbtheory.Op
	k       int
}

// parseOPB reads the pseudo-Boolean evaluation format (as in
// solver/parser_pb.go's ParseOPB), extended with "<=" alongside ">=" and
// "=", and returns every constraint line plus the number of variables
// referenced.
func parseOPB(r io.Reader) (constrs []constraint, nbVars int, err error) {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "*") {
			continue
		}
		if !strings.HasSuffix(line, ";") {
			return nil, 0, fmt.Errorf("line %d: %q does not end with ';'", lineNo, line)
		}
		fields := strings.Fields(line[:len(line)-1])
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "min:" {
			continue // optimisation objective: out of scope, ignored
		}
		c, err := parseConstraintLine(fields, &nbVars)
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", lineNo, err)
		}
		constrs = append(constrs, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	return constrs, nbVars, nil
}

func parseConstraintLine(fields []string, nbVars *int) (constraint, error) {
	if len(fields) < 3 {
		return constraint{}, fmt.Errorf("invalid constraint %q", strings.Join(fields, " "))
	}
	opStr := fields[len(fields)-2]
	var op pbtheory.Op
	switch opStr {
	case ">=":
		op = pbtheory.GE
	case "<=":
		op = pbtheory.LE
	case "=":
		op = pbtheory.EQ
	default:
		return constraint{}, fmt.Errorf("invalid operator %q", opStr)
	}
	k, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return constraint{}, fmt.Errorf("invalid right-hand side %q: %w", fields[len(fields)-1], err)
	}
	weights, lits, err := parseTerms(fields[:len(fields)-2], nbVars)
	if err != nil {
		return constraint{}, err
	}
	return constraint{lits: lits, weights: weights, op: op, k: k}, nil
}

func parseTerms(terms []string, nbVars *int) (weights []int, lits []pbtheory.Lit, err error) {
	i := 0
	for i < len(terms) {
		if terms[i] == "+" {
			i++
			continue
		}
		w := 1
		if v, convErr := strconv.Atoi(terms[i]); convErr == nil {
			w = v
			i++
		}
		if i >= len(terms) {
			return nil, nil, fmt.Errorf("dangling weight with no variable")
		}
		name := terms[i]
		i++
		negated := strings.HasPrefix(name, "~")
		if negated {
			name = name[1:]
		}
		if !strings.HasPrefix(name, "x") || len(name) < 2 {
			return nil, nil, fmt.Errorf("invalid variable name %q", name)
		}
		idx, convErr := strconv.Atoi(name[1:])
		if convErr != nil || idx < 1 {
			return nil, nil, fmt.Errorf("invalid variable index in %q", name)
		}
		if idx > *nbVars {
			*nbVars = idx
		}
		lit := pbtheory.Var(idx - 1).Lit()
		if negated {
			lit = lit.Negation()
		}
		weights = append(weights, w)
		lits = append(lits, lit)
	}
	return weights, lits, nil
}
