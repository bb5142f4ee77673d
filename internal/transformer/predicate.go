package transformer

import (
	"fmt"
	"strings"
)

// Op is a numeric comparison operator.
type Op int

const (
	OpGT Op = iota
	OpGE
	OpLT
	OpLE
	OpEQ
	OpNE
)

var opNames = [...]string{"gt", "ge", "lt", "le", "eq", "ne"}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// ParseOp accepts the short names (gt, ge, ...) and their symbols (>, >=, ...).
func ParseOp(s string) (Op, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gt", ">":
		return OpGT, nil
	case "ge", ">=":
		return OpGE, nil
	case "lt", "<":
		return OpLT, nil
	case "le", "<=":
		return OpLE, nil
	case "eq", "=", "==":
		return OpEQ, nil
	case "ne", "!=", "<>":
		return OpNE, nil
	}
	return 0, fmt.Errorf("transformer: unknown operator %q", s)
}

// Predicate compares one numeric column against a constant.
type Predicate struct {
	Column string
	Op     Op
	Value  float64
}

// GreaterThan is the Predicate column > v.
func GreaterThan(column string, v float64) Predicate {
	return Predicate{Column: column, Op: OpGT, Value: v}
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s %s %v", p.Column, p.Op, p.Value)
}

func (p Predicate) eval(x float64) bool {
	switch p.Op {
	case OpGT:
		return x > p.Value
	case OpGE:
		return x >= p.Value
	case OpLT:
		return x < p.Value
	case OpLE:
		return x <= p.Value
	case OpEQ:
		return x == p.Value
	case OpNE:
		return x != p.Value
	}
	return false
}
