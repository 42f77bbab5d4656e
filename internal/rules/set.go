package rules

import (
	"fmt"
	"sort"

	"github.com/conduit-lang/typecache/internal/errtree"
	"github.com/conduit-lang/typecache/internal/typeinfo"
)

// Set is the rule set of one category
type Set struct {
	Category string
	Priority int
	Any      []Rule
	Must     []Rule
}

// Validate reports definition problems that would make classification
// meaningless
func (s Set) Validate() []error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, &SetupError{Category: s.Category, Message: fmt.Sprintf(format, args...)})
	}

	if s.Category == "" {
		fail("category name is required")
	}
	if len(s.Any) == 0 && len(s.Must) == 0 {
		fail("no rules defined")
	}
	for _, r := range s.Any {
		if r.Match == nil {
			fail("any rule %q has no matcher", r.Name)
		}
	}
	for _, r := range s.Must {
		if r.Match == nil {
			fail("must rule %q has no matcher", r.Name)
		}
	}
	for i := range s.Must {
		for j := i + 1; j < len(s.Must); j++ {
			if s.Must[i].contradicts(s.Must[j]) {
				fail("must rules %q and %q contradict each other", s.Must[i].Name, s.Must[j].Name)
			}
		}
	}
	if len(s.Any) > 0 {
		dead := 0
		for _, a := range s.Any {
			for _, m := range s.Must {
				if a.contradicts(m) {
					dead++
					break
				}
			}
		}
		if dead == len(s.Any) {
			fail("every any rule contradicts a must rule, the category can never match")
		}
	}
	return errs
}

// ValidateSets validates each set and checks names are unique
func ValidateSets(sets []Set) []error {
	var errs []error
	seen := make(map[string]bool)
	for _, s := range sets {
		errs = append(errs, s.Validate()...)
		if s.Category != "" {
			if seen[s.Category] {
				errs = append(errs, &SetupError{Category: s.Category, Message: "category defined more than once"})
			}
			seen[s.Category] = true
		}
	}
	return errs
}

// Match evaluates s against t. A rule that panics or has no matcher counts
// as not matching and is reported as a *RuleError. The priority of a match
// is the highest of the set priority and the explicit priorities of the
// matched rules.
func (s Set) Match(t *typeinfo.Type) (matched bool, priority int, errs []error) {
	eval := func(r Rule) bool {
		if r.Match == nil {
			errs = append(errs, newRuleError(t, s.Category, r.Name, fmt.Errorf("rule has no matcher")))
			return false
		}
		var ok bool
		if err := errtree.Capture(func() error {
			ok = r.Match(t)
			return nil
		}); err != nil {
			errs = append(errs, newRuleError(t, s.Category, r.Name, err))
			return false
		}
		return ok
	}

	best := s.Priority
	note := func(r Rule) {
		if p, ok := r.Priority(); ok && p > best {
			best = p
		}
	}

	// every rule is evaluated so that all rule errors are reported
	mustMatched := true
	for _, r := range s.Must {
		if eval(r) {
			note(r)
		} else {
			mustMatched = false
		}
	}

	anyMatched := len(s.Any) == 0
	for _, r := range s.Any {
		if eval(r) {
			anyMatched = true
			note(r)
		}
	}

	if !mustMatched || !anyMatched {
		return false, 0, errs
	}
	return true, best, errs
}

// Outcome is the result of classifying one type
type Outcome struct {
	Type     *typeinfo.Type
	Category string // empty when the type was not placed
	Priority int
	// Matched lists every matching category sorted by name
	Matched    []string
	RuleErrors []error
}

// Classify places t in exactly one of sets. The result does not depend on
// the order of sets. The returned error is a *ClassificationError; rule
// failures are reported in the outcome.
func Classify(t *typeinfo.Type, sets []Set) (Outcome, error) {
	out := Outcome{Type: t}
	priorities := make(map[string]int)
	for _, s := range sets {
		ok, p, errs := s.Match(t)
		out.RuleErrors = append(out.RuleErrors, errs...)
		if ok {
			out.Matched = append(out.Matched, s.Category)
			priorities[s.Category] = p
		}
	}
	sort.Strings(out.Matched)

	if len(out.Matched) == 0 {
		return out, &ClassificationError{Type: t.ID(), Reason: ErrNoCategory}
	}

	best := priorities[out.Matched[0]]
	for _, c := range out.Matched[1:] {
		if priorities[c] > best {
			best = priorities[c]
		}
	}
	var top []string
	for _, c := range out.Matched {
		if priorities[c] == best {
			top = append(top, c)
		}
	}
	if len(top) > 1 {
		return out, &ClassificationError{Type: t.ID(), Candidates: top, Priority: best, Reason: ErrAmbiguous}
	}

	out.Category = top[0]
	out.Priority = best
	return out, nil
}
