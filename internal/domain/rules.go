package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// EvaluateRules applies a job's rule set to env. Rules are tried in
// declared order; the first whose condition matches decides the outcome
// and no later rule is consulted. A rule with an empty condition always
// matches. A job without rules runs unconditionally; a job whose rules
// all miss is skipped.
func EvaluateRules(rules []Rule, env Env) (Decision, error) {
	if len(rules) == 0 {
		return Decision{Run: true}, nil
	}

	for i, r := range rules {
		matched := true
		if r.If != "" {
			ok, err := EvalCondition(r.If, env)
			if err != nil {
				return Decision{}, fmt.Errorf("rule %d: %w", i, err)
			}
			matched = ok
		}
		if !matched {
			continue
		}

		if r.When == WhenNever {
			return Decision{Run: false}, nil
		}
		return Decision{Run: true, Variables: r.Variables}, nil
	}

	return Decision{Run: false}, nil
}

// EvalCondition evaluates a rule condition against env. The grammar is
// the usual CI one: `$VAR == "lit"`, `$VAR != "lit"`, bare `$VAR` (set
// and non-empty), grouped with parentheses and combined with && and ||,
// || binding looser.
func EvalCondition(expr string, env Env) (bool, error) {
	toks, err := lexCondition(expr)
	if err != nil {
		return false, err
	}

	p := &condParser{toks: toks, env: env}
	v, err := p.or()
	if err != nil {
		return false, err
	}
	if p.pos != len(p.toks) {
		return false, fmt.Errorf("condition %q: unexpected %q", expr, p.toks[p.pos].val)
	}
	return v, nil
}

type condToken struct {
	kind string // "var", "str", "op", "lparen", "rparen"
	val  string
}

func lexCondition(expr string) ([]condToken, error) {
	var toks []condToken
	rs := []rune(expr)

	for i := 0; i < len(rs); {
		switch c := rs[i]; {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			toks = append(toks, condToken{"lparen", "("})
			i++
		case c == ')':
			toks = append(toks, condToken{"rparen", ")"})
			i++
		case c == '$':
			j := i + 1
			for j < len(rs) && (rs[j] == '_' || unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j])) {
				j++
			}
			if j == i+1 {
				return nil, fmt.Errorf("condition %q: bare $ at offset %d", expr, i)
			}
			toks = append(toks, condToken{"var", string(rs[i+1 : j])})
			i = j
		case c == '"' || c == '\'':
			j := i + 1
			for j < len(rs) && rs[j] != c {
				j++
			}
			if j == len(rs) {
				return nil, fmt.Errorf("condition %q: unterminated string", expr)
			}
			toks = append(toks, condToken{"str", string(rs[i+1 : j])})
			i = j + 1
		default:
			rest := string(rs[i:])
			op := ""
			for _, cand := range []string{"==", "!=", "&&", "||"} {
				if strings.HasPrefix(rest, cand) {
					op = cand
					break
				}
			}
			if op == "" {
				return nil, fmt.Errorf("condition %q: unexpected character %q", expr, c)
			}
			toks = append(toks, condToken{"op", op})
			i += 2
		}
	}

	return toks, nil
}

type condParser struct {
	toks []condToken
	pos  int
	env  Env
}

func (p *condParser) or() (bool, error) {
	v, err := p.and()
	if err != nil {
		return false, err
	}
	for p.peekOp("||") {
		p.pos++
		r, err := p.and()
		if err != nil {
			return false, err
		}
		v = v || r
	}
	return v, nil
}

func (p *condParser) and() (bool, error) {
	v, err := p.term()
	if err != nil {
		return false, err
	}
	for p.peekOp("&&") {
		p.pos++
		r, err := p.term()
		if err != nil {
			return false, err
		}
		v = v && r
	}
	return v, nil
}

func (p *condParser) term() (bool, error) {
	if p.pos >= len(p.toks) {
		return false, fmt.Errorf("unexpected end of condition")
	}

	t := p.toks[p.pos]
	switch t.kind {
	case "lparen":
		p.pos++
		v, err := p.or()
		if err != nil {
			return false, err
		}
		if p.pos >= len(p.toks) || p.toks[p.pos].kind != "rparen" {
			return false, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil

	case "var":
		p.pos++
		val := p.env[t.val]

		if p.peekOp("==") || p.peekOp("!=") {
			op := p.toks[p.pos].val
			p.pos++
			if p.pos >= len(p.toks) || p.toks[p.pos].kind != "str" {
				return false, fmt.Errorf("operator %s needs a string literal", op)
			}
			lit := p.toks[p.pos].val
			p.pos++
			if op == "==" {
				return val == lit, nil
			}
			return val != lit, nil
		}

		return val != "", nil

	default:
		return false, fmt.Errorf("unexpected %q", t.val)
	}
}

func (p *condParser) peekOp(op string) bool {
	return p.pos < len(p.toks) && p.toks[p.pos].kind == "op" && p.toks[p.pos].val == op
}
