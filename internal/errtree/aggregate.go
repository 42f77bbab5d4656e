package errtree

import (
	"encoding/json"
	"errors"
	"strings"
)

// AggregateError is the flattened form of a Node
type AggregateError struct {
	Label  string
	Errors []error
}

// Error renders the tree with one entry per line, children indented below
// their parent
func (e *AggregateError) Error() string {
	var sb strings.Builder
	writeTree(&sb, e, 0)
	return strings.TrimRight(sb.String(), "\n")
}

// Unwrap exposes the direct entries to errors.Is and errors.As
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// Len returns the number of leaf errors beneath e
func (e *AggregateError) Len() int {
	return len(Leaves(e))
}

func writeTree(sb *strings.Builder, err error, depth int) {
	indent := strings.Repeat("  ", depth)
	agg, ok := err.(*AggregateError)
	if !ok {
		lines := strings.Split(err.Error(), "\n")
		sb.WriteString(indent + "- " + lines[0] + "\n")
		for _, l := range lines[1:] {
			sb.WriteString(indent + "  " + l + "\n")
		}
		return
	}
	label := agg.Label
	if label == "" {
		label = "errors"
	}
	if depth == 0 {
		sb.WriteString(label + ":\n")
	} else {
		sb.WriteString(indent + "- " + label + ":\n")
	}
	for _, child := range agg.Errors {
		writeTree(sb, child, depth+1)
	}
}

// Leaves returns every non-aggregate error reachable from err, depth first
// in insertion order. Any error exposing Unwrap() []error is expanded.
func Leaves(err error) []error {
	if err == nil {
		return nil
	}
	var out []error
	var walk func(error)
	walk = func(e error) {
		switch x := e.(type) {
		case *AggregateError:
			for _, c := range x.Errors {
				walk(c)
			}
		case interface{ Unwrap() []error }:
			inner := x.Unwrap()
			if len(inner) == 0 {
				out = append(out, e)
				return
			}
			for _, c := range inner {
				walk(c)
			}
		default:
			out = append(out, e)
		}
	}
	walk(err)
	return out
}

// Find returns the first aggregate in err's tree carrying label
func Find(err error, label string) (*AggregateError, bool) {
	var agg *AggregateError
	if !errors.As(err, &agg) {
		return nil, false
	}
	if agg.Label == label {
		return agg, true
	}
	for _, c := range agg.Errors {
		if found, ok := Find(c, label); ok {
			return found, true
		}
	}
	return nil, false
}

// jsonNode is the wire form of an aggregate
type jsonNode struct {
	Label    string      `json:"label"`
	Errors   []jsonLeaf  `json:"errors,omitempty"`
	Children []*jsonNode `json:"children,omitempty"`
}

type jsonLeaf struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

// MarshalJSON renders the tree as nested label/errors/children objects
func (e *AggregateError) MarshalJSON() ([]byte, error) {
	return json.Marshal(toJSONNode(e))
}

func toJSONNode(e *AggregateError) *jsonNode {
	n := &jsonNode{Label: e.Label}
	for _, c := range e.Errors {
		if agg, ok := c.(*AggregateError); ok {
			n.Children = append(n.Children, toJSONNode(agg))
			continue
		}
		leaf := jsonLeaf{Message: c.Error()}
		if k, ok := c.(interface{ Kind() string }); ok {
			leaf.Kind = k.Kind()
		}
		n.Errors = append(n.Errors, leaf)
	}
	return n
}

// Report is the JSON envelope written by tooling that prints a build result
type Report struct {
	Status  string          `json:"status"`
	Errors  *AggregateError `json:"errors,omitempty"`
	Summary Summary         `json:"summary"`
}

// Summary contains leaf error counts
type Summary struct {
	ErrorCount int `json:"error_count"`
}

// NewReport wraps err, which may be nil, into a Report
func NewReport(err error) Report {
	if err == nil {
		return Report{Status: "success"}
	}
	var agg *AggregateError
	if !errors.As(err, &agg) {
		agg = &AggregateError{Errors: []error{err}}
	}
	return Report{
		Status:  "error",
		Errors:  agg,
		Summary: Summary{ErrorCount: agg.Len()},
	}
}

// FormatJSON renders err as an indented Report
func FormatJSON(err error) (string, error) {
	data, jerr := json.MarshalIndent(NewReport(err), "", "  ")
	if jerr != nil {
		return "", jerr
	}
	return string(data), nil
}
