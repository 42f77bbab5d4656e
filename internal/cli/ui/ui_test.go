package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/conduit-lang/typecache/internal/errtree"
)

func TestFormatError(t *testing.T) {
	tests := []struct {
		name     string
		opts     ErrorOptions
		contains []string
	}{
		{
			name: "context and problem",
			opts: ErrorOptions{Context: "type not found", Problem: "No descriptor for type 'x'."},
			contains: []string{
				"❌ TYPE NOT FOUND\n",
				"   No descriptor for type 'x'.\n",
			},
		},
		{
			name:     "suggestions",
			opts:     ErrorOptions{Problem: "missing", Suggestions: []string{"a", "b"}},
			contains: []string{"Did you mean: a, b?"},
		},
		{
			name:     "help commands",
			opts:     ErrorOptions{Problem: "missing", HelpCommands: []string{"See all types: typecache list"}},
			contains: []string{"→ See all types: typecache list"},
		},
		{
			name:     "consequence",
			opts:     ErrorOptions{Problem: "broken", Consequence: "nothing sealed"},
			contains: []string{"\n   nothing sealed\n"},
		},
		{
			name:     "warning",
			opts:     ErrorOptions{Level: ErrorLevelWarning, Problem: "careful"},
			contains: []string{"⚠️ careful"},
		},
		{
			name:     "info",
			opts:     ErrorOptions{Level: ErrorLevelInfo, Problem: "note"},
			contains: []string{"ℹ️ note"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.NoColor = true
			out := FormatError(tt.opts)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestCannedMessages(t *testing.T) {
	assert.Contains(t, TypeNotFoundError("shop.Ordr", []string{"shop.Order"}, true), "Did you mean: shop.Order?")
	assert.Contains(t, CategoryNotFoundError("Entty", nil, true), "Unknown category 'Entty'.")
	assert.Contains(t, BuildFailedError(1, true), "Found 1 problem.")
	assert.Contains(t, BuildFailedError(3, true), "Found 3 problems.")
	assert.Contains(t, ConfigError("bad", nil, true), "typecache init")
	assert.Equal(t, "✓ done", FormatSuccess("done", true))

	var buf bytes.Buffer
	WriteSuccess(&buf, "sealed", true)
	assert.Equal(t, "✓ sealed\n", buf.String())
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"Order", "Ordr", 1},
		{"Ünit", "Unit", 1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, LevenshteinDistance(tt.a, tt.b))
			assert.Equal(t, tt.want, LevenshteinDistance(tt.b, tt.a))
		})
	}
}

func TestFindSimilar(t *testing.T) {
	candidates := []string{"Entity", "Repository", "ValueType", "Entry"}

	assert.Equal(t, []string{"Entity", "Entry"}, FindSimilar("entty", candidates, nil))
	assert.Empty(t, FindSimilar("entty", candidates, &FuzzyMatchOptions{CaseSensitive: true, MaxDistance: 1}))
	assert.Equal(t, []string{"Entity"}, FindSimilar("Entty", candidates, &FuzzyMatchOptions{MaxSuggestions: 1}))
	assert.Equal(t, "Repository", FindBestMatch("Repositry", candidates, nil))
	assert.Equal(t, "", FindBestMatch("zzzzzzzz", candidates, nil))
}

func TestSuggestTypes(t *testing.T) {
	ids := []string{"shop.Order", "billing.Order", "shop.Line", "core.Object"}

	assert.Equal(t, []string{"shop.Order", "billing.Order"}, SuggestTypes("Ordr", ids))
	assert.Equal(t, []string{"shop.Order"}, SuggestTypes("shop.Ordr", ids))
	assert.Empty(t, SuggestTypes("Completely", ids))
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, []string{"TYPE", "CATEGORY"}, true)
	table.AddRow("shop.Order", "Entity")
	table.AddRow("shop.Ö", "ValueType", "ignored")
	table.AddRow("short")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"TYPE        CATEGORY",
		"──────────  ─────────",
		"shop.Order  Entity",
		"shop.Ö      ValueType",
		"short       ",
	}, lines)
	assert.Equal(t, 3, table.Len())
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	kv := NewKeyValueTable(&buf, true)
	kv.AddRow("type", "shop.Order")
	kv.AddRow("category", "Entity")
	kv.Render()

	assert.Equal(t, "type:     shop.Order\ncategory: Entity\n", buf.String())
}

func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	Header(&buf, "Types", true)
	assert.Equal(t, "Types\n─────\n", buf.String())
}

func TestWriteErrorTree(t *testing.T) {
	root := errtree.New("type registry")
	cat := root.Child("Repository")
	cat.Add(&errtree.AggregateError{
		Label:  "Repository validation failed: 'shop.R' is not valid",
		Errors: []error{errors.New("should not be generic\n  hint: use a provider")},
	})
	root.Child("empty")
	root.Add(errors.Join(errors.New("a"), errors.New("b")))

	var buf bytes.Buffer
	WriteErrorTree(&buf, root.Err(), true)

	assert.Equal(t, strings.Join([]string{
		"type registry",
		"  ✗ a",
		"  ✗ b",
		"  Repository",
		"    Repository validation failed: 'shop.R' is not valid",
		"      ✗ should not be generic",
		"          hint: use a provider",
		"",
	}, "\n"), buf.String())
	assert.Equal(t, 3, CountLeaves(root.Err()))

	buf.Reset()
	WriteErrorTree(&buf, nil, true)
	assert.Empty(t, buf.String())
}
