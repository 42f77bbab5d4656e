package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/conduit-lang/typecache/internal/typeinfo"
)

var (
	// ErrNoCategory is matched by a ClassificationError when no category
	// accepts a type
	ErrNoCategory = errors.New("no category accepts this type")
	// ErrAmbiguous is matched by a ClassificationError when several
	// categories tie on the highest priority
	ErrAmbiguous = errors.New("ambiguous classification")
	// ErrSetup is matched by every SetupError
	ErrSetup = errors.New("invalid category setup")
)

// ClassificationError reports a type that could not be placed in exactly
// one category
type ClassificationError struct {
	Type       string
	Candidates []string // tied categories, sorted; empty when none matched
	Priority   int
	Reason     error // ErrNoCategory or ErrAmbiguous
}

func (e *ClassificationError) Error() string {
	if errors.Is(e.Reason, ErrAmbiguous) {
		return fmt.Sprintf("type %s: %v: categories %s all match with priority %d",
			e.Type, e.Reason, strings.Join(e.Candidates, ", "), e.Priority)
	}
	return fmt.Sprintf("type %s: %v", e.Type, e.Reason)
}

func (e *ClassificationError) Unwrap() error {
	return e.Reason
}

// Kind names the error class for structured output
func (e *ClassificationError) Kind() string {
	return "classification"
}

// SetupError reports a malformed category definition
type SetupError struct {
	Category string
	Message  string
}

func (e *SetupError) Error() string {
	if e.Category == "" {
		return "category setup: " + e.Message
	}
	return fmt.Sprintf("category %s: %s", e.Category, e.Message)
}

func (e *SetupError) Is(target error) bool {
	return target == ErrSetup
}

// Kind names the error class for structured output
func (e *SetupError) Kind() string {
	return "setup"
}

// RuleError reports a rule that failed while evaluating a type. The
// panic or error is kept as the cause.
type RuleError struct {
	Type     string
	Category string
	Rule     string
	Cause    error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("type %s: rule %q of category %s failed: %v", e.Type, e.Rule, e.Category, e.Cause)
}

func (e *RuleError) Unwrap() error {
	return e.Cause
}

// Kind names the error class for structured output
func (e *RuleError) Kind() string {
	return "validation"
}

func newRuleError(t *typeinfo.Type, set, rule string, cause error) *RuleError {
	return &RuleError{Type: t.ID(), Category: set, Rule: rule, Cause: cause}
}
