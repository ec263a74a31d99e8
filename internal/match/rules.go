package match

import (
	"fmt"

	"github.com/roach88/buildspec/internal/ir"
)

type compiledRule struct {
	rule    ir.Rule
	test    Matcher
	exclude Matcher
}

// Rules is an ordered, compiled set of transform rules.
type Rules struct {
	rules []compiledRule
}

// CompileRules compiles every rule's test and exclude patterns. The error
// names the first offending rule by index.
func CompileRules(rules []ir.Rule) (*Rules, error) {
	out := &Rules{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		test, err := Compile(r.Test)
		if err != nil {
			return nil, fmt.Errorf("rules[%d].test: %w", i, err)
		}
		cr := compiledRule{rule: r, test: test}
		if r.Exclude != "" {
			cr.exclude, err = Compile(r.Exclude)
			if err != nil {
				return nil, fmt.Errorf("rules[%d].exclude: %w", i, err)
			}
		}
		out.rules = append(out.rules, cr)
	}
	return out, nil
}

// Lookup returns the first rule that applies to file and its index.
func (r *Rules) Lookup(file string) (ir.Rule, int, bool) {
	for i, cr := range r.rules {
		if !cr.test.Match(file) {
			continue
		}
		if cr.exclude != nil && cr.exclude.Match(file) {
			continue
		}
		return cr.rule, i, true
	}
	return ir.Rule{}, -1, false
}

// Len returns the number of rules.
func (r *Rules) Len() int {
	return len(r.rules)
}

// Handler compiles rules and looks up file in one step.
func Handler(rules []ir.Rule, file string) (ir.Rule, bool, error) {
	set, err := CompileRules(rules)
	if err != nil {
		return ir.Rule{}, false, err
	}
	rule, _, ok := set.Lookup(file)
	return rule, ok, nil
}
