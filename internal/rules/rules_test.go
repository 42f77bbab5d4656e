package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/conduit-lang/typecache/internal/typeinfo"
)

func entityType() *typeinfo.Type {
	return &typeinfo.Type{
		Package:    "shop",
		Name:       "Order",
		Kind:       typeinfo.KindStruct,
		Bases:      []typeinfo.Ref{typeinfo.R("core.Object")},
		Interfaces: []typeinfo.Ref{typeinfo.R("data.Entity"), typeinfo.R("data.Reader", typeinfo.R("shop.Order"))},
		Tags:       []string{"audited"},
		Exported:   true,
	}
}

func TestPredicates(t *testing.T) {
	typ := entityType()
	generic := &typeinfo.Type{Name: "Box", Params: []string{"T"}, Kind: typeinfo.KindInterface, Abstract: true}

	tests := []struct {
		name string
		rule Rule
		t    *typeinfo.Type
		want bool
	}{
		{"derived", DerivedFrom("core.Object"), typ, true},
		{"not derived", NotDerivedFrom("core.Object"), typ, false},
		{"derived any", DerivedFromAny("x.Y", "core.Object"), typ, true},
		{"implements exact", Implements(typeinfo.R("data.Reader", typeinfo.R("shop.Order"))), typ, true},
		{"implements wrong arg", Implements(typeinfo.R("data.Reader", typeinfo.R("shop.Line"))), typ, false},
		{"implements any", ImplementsAny("data.Reader"), typ, true},
		{"not implements any", NotImplementsAny("data.Reader"), typ, false},
		{"struct", IsStruct(), typ, true},
		{"interface", IsInterface(), generic, true},
		{"abstract", IsAbstract(), generic, true},
		{"not abstract", NotAbstract(), typ, true},
		{"generic", IsGeneric(), generic, true},
		{"not generic", NotGeneric(), typ, true},
		{"tag", HasTag("audited"), typ, true},
		{"not tag", NotTag("audited"), typ, false},
		{"suffix", NameSuffix("der"), typ, true},
		{"package", InPackage("shop"), typ, true},
		{"exported", Exported(), typ, true},
		{"custom", New("named Order", func(t *typeinfo.Type) bool { return t.Name == "Order" }), typ, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Match(tt.t))
		})
	}
}

func TestNotName(t *testing.T) {
	r := IsAbstract()
	assert.Equal(t, "not is abstract", Not(r).Name)
	assert.Equal(t, "is abstract", Not(Not(r)).Name)
	assert.True(t, Not(Not(r)).Match(&typeinfo.Type{Abstract: true}))
}

func TestSetValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		s := Set{Category: "Entity", Must: []Rule{ImplementsAny("data.Entity"), NotAbstract()}}
		assert.Empty(t, s.Validate())
	})

	t.Run("no rules", func(t *testing.T) {
		errs := Set{Category: "Empty"}.Validate()
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], ErrSetup)
		assert.Contains(t, errs[0].Error(), "no rules")
	})

	t.Run("missing name and matcher", func(t *testing.T) {
		errs := Set{Must: []Rule{{Name: "broken"}}}.Validate()
		assert.Len(t, errs, 2)
	})

	t.Run("contradictory must rules", func(t *testing.T) {
		errs := Set{Category: "X", Must: []Rule{IsGeneric(), NotGeneric()}}.Validate()
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Error(), "contradict")
	})

	t.Run("dead any rules", func(t *testing.T) {
		errs := Set{Category: "X", Any: []Rule{IsAbstract()}, Must: []Rule{NotAbstract()}}.Validate()
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Error(), "never match")
	})

	t.Run("duplicate names", func(t *testing.T) {
		errs := ValidateSets([]Set{
			{Category: "A", Must: []Rule{IsStruct()}},
			{Category: "A", Must: []Rule{IsInterface()}},
		})
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Error(), "more than once")
	})
}

func TestSetMatch(t *testing.T) {
	typ := entityType()

	t.Run("any rules are ORed", func(t *testing.T) {
		s := Set{Category: "X", Any: []Rule{HasTag("nope"), HasTag("audited")}}
		ok, _, errs := s.Match(typ)
		assert.True(t, ok)
		assert.Empty(t, errs)
	})

	t.Run("must rules are ANDed", func(t *testing.T) {
		s := Set{Category: "X", Must: []Rule{IsStruct(), IsAbstract()}}
		ok, _, _ := s.Match(typ)
		assert.False(t, ok)
	})

	t.Run("any and must combine", func(t *testing.T) {
		s := Set{Category: "X", Any: []Rule{HasTag("nope")}, Must: []Rule{IsStruct()}}
		ok, _, _ := s.Match(typ)
		assert.False(t, ok)
	})

	t.Run("explicit rule priority overrides category", func(t *testing.T) {
		s := Set{
			Category: "X",
			Priority: 1,
			Any:      []Rule{HasTag("audited").WithPriority(7), IsStruct().WithPriority(3)},
		}
		ok, p, _ := s.Match(typ)
		require.True(t, ok)
		assert.Equal(t, 7, p)
	})

	t.Run("lower explicit rule priority keeps the category priority", func(t *testing.T) {
		hi := Set{Category: "Hi", Priority: 20, Any: []Rule{IsStruct().WithPriority(10)}}
		ok, p, _ := hi.Match(typ)
		require.True(t, ok)
		assert.Equal(t, 20, p)

		mid := Set{Category: "Mid", Priority: 15, Must: []Rule{IsStruct()}}
		out, err := Classify(typ, []Set{mid, hi})
		require.NoError(t, err)
		assert.Equal(t, "Hi", out.Category)
		assert.Equal(t, 20, out.Priority)
	})

	t.Run("every rule is evaluated after a must rule fails", func(t *testing.T) {
		s := Set{
			Category: "Bad",
			Must:     []Rule{IsAbstract()},
			Any:      []Rule{New("explodes", func(*typeinfo.Type) bool { panic("kaboom") })},
		}
		ok, _, errs := s.Match(typ)
		assert.False(t, ok)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Error(), "explodes")
	})

	t.Run("panicking rule is reported", func(t *testing.T) {
		s := Set{Category: "Bad", Must: []Rule{New("explodes", func(*typeinfo.Type) bool { panic("kaboom") })}}
		ok, _, errs := s.Match(typ)
		assert.False(t, ok)
		require.Len(t, errs, 1)
		var re *RuleError
		require.True(t, errors.As(errs[0], &re))
		assert.Equal(t, "Bad", re.Category)
		assert.Equal(t, "explodes", re.Rule)
		assert.Contains(t, re.Error(), "kaboom")
	})
}

func TestClassify(t *testing.T) {
	typ := entityType()
	entity := Set{Category: "Entity", Must: []Rule{ImplementsAny("data.Entity"), IsStruct()}}
	repo := Set{Category: "Repository", Must: []Rule{ImplementsAny("data.Reader")}}
	value := Set{Category: "Value", Must: []Rule{DerivedFrom("values.ValueType")}}

	t.Run("single match", func(t *testing.T) {
		out, err := Classify(typ, []Set{entity, value})
		require.NoError(t, err)
		assert.Equal(t, "Entity", out.Category)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := Classify(typ, []Set{value})
		var ce *ClassificationError
		require.True(t, errors.As(err, &ce))
		assert.ErrorIs(t, err, ErrNoCategory)
		assert.Empty(t, ce.Candidates)
	})

	t.Run("tie is ambiguous", func(t *testing.T) {
		out, err := Classify(typ, []Set{repo, entity})
		assert.ErrorIs(t, err, ErrAmbiguous)
		var ce *ClassificationError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, []string{"Entity", "Repository"}, ce.Candidates)
		assert.Equal(t, []string{"Entity", "Repository"}, out.Matched)
		assert.Empty(t, out.Category)
	})

	t.Run("priority breaks the tie", func(t *testing.T) {
		hi := repo
		hi.Priority = 5
		out, err := Classify(typ, []Set{entity, hi})
		require.NoError(t, err)
		assert.Equal(t, "Repository", out.Category)
		assert.Equal(t, 5, out.Priority)
	})

	t.Run("lower priority tie is not ambiguous", func(t *testing.T) {
		hi := repo
		hi.Priority = 5
		other := Set{Category: "Tagged", Must: []Rule{HasTag("audited")}}
		out, err := Classify(typ, []Set{entity, other, hi})
		require.NoError(t, err)
		assert.Equal(t, "Repository", out.Category)
	})
}

// Classification must not depend on the order categories are declared in.
func TestClassifyOrderIndependence(t *testing.T) {
	sets := []Set{
		{Category: "Entity", Must: []Rule{ImplementsAny("data.Entity")}},
		{Category: "Reader", Priority: 2, Must: []Rule{ImplementsAny("data.Reader")}},
		{Category: "Audited", Priority: 2, Any: []Rule{HasTag("audited")}},
		{Category: "Struct", Priority: 1, Must: []Rule{IsStruct()}},
		{Category: "Generic", Priority: 9, Must: []Rule{IsGeneric()}},
	}
	types := []*typeinfo.Type{
		entityType(),
		{Name: "Plain", Kind: typeinfo.KindStruct},
		{Name: "G", Params: []string{"T"}, Tags: []string{"audited"}},
		{Name: "Iface", Kind: typeinfo.KindInterface},
	}

	rapid.Check(t, func(rt *rapid.T) {
		perm := rapid.Permutation(sets).Draw(rt, "perm")
		for _, typ := range types {
			want, wantErr := Classify(typ, sets)
			got, gotErr := Classify(typ, perm)
			if want.Category != got.Category {
				rt.Fatalf("%s: category %q vs %q", typ.ID(), want.Category, got.Category)
			}
			if (wantErr == nil) != (gotErr == nil) {
				rt.Fatalf("%s: error mismatch %v vs %v", typ.ID(), wantErr, gotErr)
			}
			if wantErr != nil && wantErr.Error() != gotErr.Error() {
				rt.Fatalf("%s: error text %q vs %q", typ.ID(), wantErr, gotErr)
			}
		}
	})
}
