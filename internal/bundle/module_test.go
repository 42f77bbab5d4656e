package bundle

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/typecache/internal/typeinfo"
)

func mod(name, version string, provides bool, reqs ...Requirement) *Module {
	m := &Module{Name: name, ProvidesTypes: provides, Requires: reqs}
	if version != "" {
		m.Version = semver.MustParse(version)
	}
	m.Types = []*typeinfo.Type{typ(name, "Exported"), {Package: name, Name: "hidden"}}
	return m
}

func req(module, constraint string) Requirement {
	r := Requirement{Module: module}
	if constraint != "" {
		c, err := semver.NewConstraint(constraint)
		if err != nil {
			panic(err)
		}
		r.Constraint = c
	}
	return r
}

func TestModuleSetResolve(t *testing.T) {
	set, err := NewModuleSet(
		mod("app", "1.0.0", false, req("orders", "^1.2"), req("util", "")),
		mod("orders", "1.4.0", true, req("core", ">= 2.0")),
		mod("core", "2.1.0", true),
		mod("util", "0.3.0", false),
		mod("unrelated", "1.0.0", true),
	)
	require.NoError(t, err)

	t.Run("referenced includes everything reached", func(t *testing.T) {
		mods, err := set.Resolve("app", IncludeReferenced)
		require.NoError(t, err)
		names := moduleNames(mods)
		assert.ElementsMatch(t, []string{"app", "orders", "core", "util"}, names)
		assert.Equal(t, "app", names[len(names)-1], "root comes last")
		assert.Less(t, indexOf(names, "core"), indexOf(names, "orders"))
	})

	t.Run("opted-in skips non-providers but keeps root", func(t *testing.T) {
		mods, err := set.Resolve("app", IncludeOptedIn)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"app", "orders", "core"}, moduleNames(mods))
	})

	t.Run("bundle keeps root internals only", func(t *testing.T) {
		b, err := FromModules(set, "app", IncludeReferenced)
		require.NoError(t, err)
		assert.True(t, b.Contains("app.hidden"))
		assert.True(t, b.Contains("core.Exported"))
		assert.False(t, b.Contains("core.hidden"))
		assert.False(t, b.Contains("unrelated.Exported"))
	})

	t.Run("unknown root", func(t *testing.T) {
		_, err := set.Resolve("nope", IncludeReferenced)
		assert.ErrorIs(t, err, ErrModuleNotFound)
	})
}

func TestResolveFailures(t *testing.T) {
	t.Run("missing requirement", func(t *testing.T) {
		set, err := NewModuleSet(mod("app", "1.0.0", false, req("gone", "")))
		require.NoError(t, err)
		_, err = set.Resolve("app", IncludeReferenced)
		assert.ErrorIs(t, err, ErrModuleNotFound)
		assert.Contains(t, err.Error(), "required by app")
	})

	t.Run("version mismatch", func(t *testing.T) {
		set, err := NewModuleSet(
			mod("app", "1.0.0", false, req("core", "^3")),
			mod("core", "2.1.0", true),
		)
		require.NoError(t, err)
		_, err = set.Resolve("app", IncludeReferenced)
		assert.ErrorIs(t, err, ErrVersionMismatch)
	})

	t.Run("constraint on unversioned module", func(t *testing.T) {
		set, err := NewModuleSet(
			mod("app", "1.0.0", false, req("core", "^1")),
			mod("core", "", true),
		)
		require.NoError(t, err)
		_, err = set.Resolve("app", IncludeReferenced)
		assert.ErrorIs(t, err, ErrVersionMismatch)
	})

	t.Run("requirement cycle", func(t *testing.T) {
		set, err := NewModuleSet(
			mod("app", "1.0.0", false, req("a", "")),
			mod("a", "1.0.0", true, req("b", "")),
			mod("b", "1.0.0", true, req("a", "")),
		)
		require.NoError(t, err)
		_, err = set.Resolve("app", IncludeReferenced)
		assert.ErrorIs(t, err, ErrRequirementCycle)
		assert.Contains(t, err.Error(), "a -> b -> a")
	})

	t.Run("duplicate module", func(t *testing.T) {
		_, err := NewModuleSet(mod("a", "1.0.0", true), mod("a", "2.0.0", true))
		assert.Error(t, err)
	})
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("opted-in")
	require.NoError(t, err)
	assert.Equal(t, IncludeOptedIn, p)
	assert.Equal(t, "opted-in", p.String())

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, IncludeReferenced, p)

	_, err = ParsePolicy("some")
	assert.Error(t, err)
}

func TestFromAllModules(t *testing.T) {
	set, err := NewModuleSet(mod("a", "1.0.0", false), mod("b", "1.0.0", false))
	require.NoError(t, err)
	b := FromAllModules(set)
	assert.Equal(t, 4, b.Len())
}

func moduleNames(mods []*Module) []string {
	out := make([]string, len(mods))
	for i, m := range mods {
		out[i] = m.Name
	}
	return out
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
