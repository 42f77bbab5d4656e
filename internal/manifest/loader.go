package manifest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/conduit-lang/typecache/internal/bundle"
	"github.com/conduit-lang/typecache/internal/errtree"
	"github.com/conduit-lang/typecache/internal/typeinfo"
)

// Source is a named directory searched for manifests
type Source struct {
	Name string `mapstructure:"name" yaml:"name"`
	Path string `mapstructure:"path" yaml:"path"`
}

// Discovered is a manifest file found in a source
type Discovered struct {
	Source string
	Path   string
}

// IsManifest reports whether a file name carries a manifest suffix
func IsManifest(name string) bool {
	for _, s := range manifestSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// Discover walks each source in order and returns its manifest files,
// sorted by path within a source
func Discover(sources []Source) ([]Discovered, error) {
	var out []Discovered
	for _, src := range sources {
		info, err := os.Stat(src.Path)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("source %s: %s is not a directory", src.Name, src.Path)
		}

		var found []string
		err = filepath.WalkDir(src.Path, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != src.Path && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if IsManifest(d.Name()) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking source %s: %w", src.Name, err)
		}
		sort.Strings(found)
		for _, p := range found {
			out = append(out, Discovered{Source: src.Name, Path: p})
		}
	}
	return out, nil
}

// Load discovers, parses and converts every manifest in sources, then links
// types across modules. Problems are recorded on sink, one child per file,
// and the modules that loaded cleanly are returned. A module name found in
// an earlier source shadows the same name in later sources.
func Load(sources []Source, sink *errtree.Node) *bundle.ModuleSet {
	set, _ := bundle.NewModuleSet()

	files, err := Discover(sources)
	if err != nil {
		sink.Add(err)
		return set
	}

	owner := make(map[string]Discovered)
	var modules []*bundle.Module
	for _, f := range files {
		m, err := ParseFile(f.Path)
		if err != nil {
			sink.Add(err)
			continue
		}
		if prev, ok := owner[m.Module]; ok {
			if prev.Source == f.Source {
				sink.Add(fmt.Errorf("module %s declared twice in source %s: %s and %s",
					m.Module, f.Source, prev.Path, f.Path))
			}
			continue
		}
		owner[m.Module] = f

		fileErrs := sink.Child(f.Path)
		mod := Convert(m, fileErrs)
		mod.Source = f.Source
		modules = append(modules, mod)
	}

	for _, m := range modules {
		if err := set.Add(m); err != nil {
			sink.Add(err)
		}
	}
	Link(modules, sink.Child("linking"))
	return set
}

// Convert turns a manifest into a module. Field errors are recorded on errs
// and the offending entry is skipped.
func Convert(m *ModuleManifest, errs *errtree.Node) *bundle.Module {
	mod := &bundle.Module{Name: m.Module, ProvidesTypes: m.ProvidesTypes}
	if m.Version != "" {
		v, err := semver.NewVersion(m.Version)
		if err != nil {
			errs.Add(fmt.Errorf("module %s: invalid version %q: %w", m.Module, m.Version, err))
		} else {
			mod.Version = v
		}
	}

	for _, r := range m.Requires {
		req := bundle.Requirement{Module: r.Module}
		if r.Version != "" {
			c, err := semver.NewConstraint(r.Version)
			if err != nil {
				errs.Add(fmt.Errorf("module %s: invalid constraint %q on %s: %w", m.Module, r.Version, r.Module, err))
				continue
			}
			req.Constraint = c
		}
		mod.Requires = append(mod.Requires, req)
	}

	for _, spec := range m.Types {
		if t := convertType(spec, m.Module, "", errs); t != nil {
			mod.Types = append(mod.Types, t)
		}
	}
	return mod
}

func convertType(spec TypeSpec, module, outer string, errs *errtree.Node) *typeinfo.Type {
	pkg := spec.Package
	if pkg == "" {
		pkg = module
	}
	name := spec.Name
	if outer != "" {
		name = outer + "." + spec.Name
	}
	t := &typeinfo.Type{
		Name:     name,
		Package:  pkg,
		Module:   module,
		Abstract: spec.Abstract,
		Exported: !spec.Internal,
		Params:   spec.Params,
		Tags:     spec.Tags,
	}
	fail := func(format string, args ...any) *typeinfo.Type {
		errs.Add(fmt.Errorf("type %s: %s", t.ID(), fmt.Sprintf(format, args...)))
		return nil
	}

	kind, err := typeinfo.ParseKind(spec.Kind)
	if err != nil {
		return fail("%v", err)
	}
	t.Kind = kind
	if kind == typeinfo.KindInterface {
		t.Abstract = true
	}

	for _, a := range spec.Args {
		ref, err := typeinfo.ParseRef(a)
		if err != nil {
			return fail("args: %v", err)
		}
		t.Args = append(t.Args, ref)
	}
	if spec.Extends != "" {
		ref, err := typeinfo.ParseRef(spec.Extends)
		if err != nil {
			return fail("extends: %v", err)
		}
		t.Bases = []typeinfo.Ref{ref}
	}
	for _, i := range spec.Implements {
		ref, err := typeinfo.ParseRef(i)
		if err != nil {
			return fail("implements: %v", err)
		}
		t.Interfaces = append(t.Interfaces, ref)
	}

	for _, p := range spec.Properties {
		prop, err := convertProperty(p, t.ID())
		if err != nil {
			return fail("property %s: %v", p.Name, err)
		}
		t.Properties = append(t.Properties, prop)
	}

	for _, n := range spec.Nested {
		if nt := convertType(n, module, name, errs); nt != nil {
			if n.Package == "" {
				nt.Package = pkg
			}
			t.Nested = append(t.Nested, nt)
		}
	}
	return t
}

func convertProperty(p PropertySpec, declaring string) (typeinfo.Property, error) {
	ref, err := typeinfo.ParseRef(p.Type)
	if err != nil {
		return typeinfo.Property{}, err
	}
	get := typeinfo.AccessPublic
	if p.Get != "" {
		if get, err = typeinfo.ParseAccess(p.Get); err != nil {
			return typeinfo.Property{}, err
		}
	}
	set, err := typeinfo.ParseAccess(p.Set)
	if err != nil {
		return typeinfo.Property{}, err
	}
	return typeinfo.Property{
		Name:      p.Name,
		Type:      ref,
		Get:       get,
		Set:       set,
		Static:    p.Static,
		Declaring: declaring,
		Tags:      p.Tags,
	}, nil
}

// Link completes each type's ancestor chain, interface set and inherited
// properties from the declarations of every loaded type. Ancestors outside
// the loaded set end the chain.
func Link(modules []*bundle.Module, errs *errtree.Node) {
	type decl struct {
		extends    *typeinfo.Ref
		interfaces []typeinfo.Ref
		properties []typeinfo.Property
	}

	index := make(map[string]*typeinfo.Type)
	direct := make(map[string]decl)
	var all []*typeinfo.Type

	var visit func(t *typeinfo.Type)
	visit = func(t *typeinfo.Type) {
		if prev, dup := index[t.ID()]; dup {
			errs.Add(fmt.Errorf("type %s declared by both %s and %s", t.ID(), prev.Module, t.Module))
			return
		}
		index[t.ID()] = t
		all = append(all, t)
		d := decl{
			interfaces: append([]typeinfo.Ref(nil), t.Interfaces...),
			properties: append([]typeinfo.Property(nil), t.Properties...),
		}
		if b := t.Base(); b != nil {
			d.extends = b
		}
		direct[t.ID()] = d
		for _, n := range t.Nested {
			visit(n)
		}
	}
	for _, m := range modules {
		for _, t := range m.Types {
			visit(t)
		}
	}

	for _, t := range all {
		d := direct[t.ID()]
		if d.extends == nil {
			continue
		}

		chain := []typeinfo.Ref{*d.extends}
		seen := map[string]bool{t.ID(): true}
		ifaces := newRefSet(t.Interfaces)
		props := make(map[string]bool)
		for _, p := range t.Properties {
			props[p.Name] = true
		}

		cur := *d.extends
		for {
			if seen[cur.Name] {
				errs.Add(fmt.Errorf("type %s: circular extends through %s", t.ID(), cur.Name))
				chain = chain[:len(chain)-1]
				break
			}
			seen[cur.Name] = true
			parent, ok := index[cur.Name]
			if !ok {
				break
			}
			pd := direct[parent.ID()]
			for _, i := range pd.interfaces {
				if ifaces.add(i) {
					t.Interfaces = append(t.Interfaces, i)
				}
			}
			for _, p := range pd.properties {
				if !props[p.Name] {
					props[p.Name] = true
					t.Properties = append(t.Properties, p)
				}
			}
			if pd.extends == nil {
				break
			}
			cur = *pd.extends
			chain = append(chain, cur)
		}
		t.Bases = chain
	}
}

type refSet map[string]bool

func newRefSet(refs []typeinfo.Ref) refSet {
	s := make(refSet, len(refs))
	for _, r := range refs {
		s[r.String()] = true
	}
	return s
}

func (s refSet) add(r typeinfo.Ref) bool {
	k := r.String()
	if s[k] {
		return false
	}
	s[k] = true
	return true
}
