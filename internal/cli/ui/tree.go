package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/conduit-lang/typecache/internal/errtree"
)

// WriteErrorTree renders an error tree: aggregate labels in bold, one
// "✗" line per leaf, continuation lines of a leaf indented under it
//
// Example output:
//
//	type registry
//	  Repository
//	    Repository validation failed: 'shop.OrderRepository' is not valid
//	      ✗ could not resolve data object 'shop.Ordr'
func WriteErrorTree(w io.Writer, err error, noColor bool) {
	if err == nil {
		return
	}
	label := color.New(color.Bold)
	leaf := color.New(color.FgRed)
	if noColor {
		label.DisableColor()
		leaf.DisableColor()
	}

	var walk func(error, int)
	walk = func(e error, depth int) {
		indent := strings.Repeat("  ", depth)
		if agg, ok := e.(*errtree.AggregateError); ok {
			label.Fprintf(w, "%s%s\n", indent, agg.Label)
			for _, c := range agg.Errors {
				walk(c, depth+1)
			}
			return
		}
		if j, ok := e.(interface{ Unwrap() []error }); ok && len(j.Unwrap()) > 0 {
			for _, c := range j.Unwrap() {
				walk(c, depth)
			}
			return
		}
		lines := strings.Split(e.Error(), "\n")
		leaf.Fprintf(w, "%s✗ %s\n", indent, lines[0])
		for _, l := range lines[1:] {
			fmt.Fprintf(w, "%s  %s\n", indent, l)
		}
	}
	walk(err, 0)
}

// CountLeaves returns the number of leaf errors in err
func CountLeaves(err error) int {
	return len(errtree.Leaves(err))
}
