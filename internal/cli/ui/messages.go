package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel represents the severity of a message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Consequence  string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

type palette struct {
	header, body, accent, hint *color.Color
	symbol                     string
}

func newPalette(level ErrorLevel, noColor bool) palette {
	var p palette
	switch level {
	case ErrorLevelWarning:
		p = palette{header: color.New(color.FgYellow, color.Bold), body: color.New(color.FgYellow), symbol: "⚠️"}
	case ErrorLevelInfo:
		p = palette{header: color.New(color.FgCyan, color.Bold), body: color.New(color.FgCyan), symbol: "ℹ️"}
	default:
		p = palette{header: color.New(color.FgRed, color.Bold), body: color.New(color.FgRed), symbol: "❌"}
	}
	p.accent = color.New(color.FgYellow)
	p.hint = color.New(color.FgCyan)
	if noColor {
		for _, c := range []*color.Color{p.header, p.body, p.accent, p.hint} {
			c.DisableColor()
		}
	}
	return p
}

// FormatError creates a standardized message with suggestions and help
// commands
//
// Example output:
//
//	❌ TYPE NOT FOUND: shop.Ordr
//	   No descriptor for type 'shop.Ordr'.
//
//	   Did you mean: shop.Order?
//
//	   → See all types: typecache list
func FormatError(opts ErrorOptions) string {
	var b strings.Builder
	p := newPalette(opts.Level, opts.NoColor)

	if opts.Context != "" {
		p.header.Fprintf(&b, "%s %s\n", p.symbol, strings.ToUpper(opts.Context))
		p.body.Fprintf(&b, "   %s\n", opts.Problem)
	} else {
		p.header.Fprintf(&b, "%s %s\n", p.symbol, opts.Problem)
	}

	if opts.Consequence != "" {
		b.WriteString("\n")
		p.body.Fprintf(&b, "   %s\n", opts.Consequence)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		p.accent.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		for _, cmd := range opts.HelpCommands {
			p.hint.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted message to w
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to w
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// TypeNotFoundError reports a type missing from the registry
func TypeNotFoundError(id string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Context:     "type not found",
		Problem:     fmt.Sprintf("No descriptor for type '%s'.", id),
		Suggestions: suggestions,
		HelpCommands: []string{
			"See all types: typecache list",
			"See the bundle: typecache bundle --types",
		},
		NoColor: noColor,
	})
}

// CategoryNotFoundError reports an unknown category name
func CategoryNotFoundError(name string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Context:      "category not found",
		Problem:      fmt.Sprintf("Unknown category '%s'.", name),
		Suggestions:  suggestions,
		HelpCommands: []string{"See all categories: typecache list"},
		NoColor:      noColor,
	})
}

// BuildFailedError summarizes a failed registry build
func BuildFailedError(problems int, noColor bool) string {
	noun := "problems"
	if problems == 1 {
		noun = "problem"
	}
	return FormatError(ErrorOptions{
		Context:     "registry build failed",
		Problem:     fmt.Sprintf("Found %d %s.", problems, noun),
		Consequence: "The registry was not sealed.",
		HelpCommands: []string{
			"Machine-readable report: typecache check --format json",
			"Get help: typecache check --help",
		},
		NoColor: noColor,
	})
}

// ConfigError creates a standardized configuration error
func ConfigError(message string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Context:     "configuration error",
		Problem:     message,
		Suggestions: suggestions,
		HelpCommands: []string{
			"Create a config: typecache init",
			"Get help: typecache --help",
		},
		NoColor: noColor,
	})
}

// Warning creates a standardized warning message
func Warning(message string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelWarning,
		Problem:     message,
		Suggestions: suggestions,
		NoColor:     noColor,
	})
}

// Info creates a standardized info message
func Info(message string, noColor bool) string {
	return FormatError(ErrorOptions{Level: ErrorLevelInfo, Problem: message, NoColor: noColor})
}
