// Package registry classifies a bundle of candidate types into descriptor
// categories and runs every descriptor through its lifecycle.
//
// Build proceeds in phases: setup, classification, construction, basic
// initialization, navigation, validation and sealing. Classification, basic
// initialization and validation run in parallel; navigation runs on one
// goroutine after a full barrier so resolvers never observe a descriptor
// that has not finished basic initialization. Every problem found along the
// way is recorded in an error tree rather than returned early.
package registry

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/conduit-lang/typecache/internal/bundle"
	"github.com/conduit-lang/typecache/internal/errtree"
	"github.com/conduit-lang/typecache/internal/navigation"
	"github.com/conduit-lang/typecache/internal/rules"
	"github.com/conduit-lang/typecache/internal/typeinfo"
)

// RootLabel labels the error node of every build
const RootLabel = "type registry"

type phase int32

const (
	phaseConstructing phase = iota
	phaseBasic
	phaseNavigation
	phaseValidation
	phaseComplete
	phaseSealed
)

// Registry is the result of one Build. Once sealed it is read-only and
// safe for concurrent use without further locking.
type Registry struct {
	id     string
	bundle *bundle.Bundle
	opts   *options
	log    *zap.Logger

	current atomic.Int32

	node      *errtree.Node
	setupNode *errtree.Node
	classNode *errtree.Node
	catNodes  map[string]*errtree.Node

	categories []*Category
	catByName  map[string]*Category

	byType     map[string]Descriptor
	ordered    []Descriptor
	byCategory map[string][]Descriptor

	err error

	closeOnce  sync.Once
	unregister func()
}

type classified struct {
	typ      *typeinfo.Type
	category string
}

// Build classifies and initializes every type of b. It never fails
// outright: problems are collected under a node labeled RootLabel that is
// attached to sink, and the registry is sealed only when that node is
// empty. A nil sink is allowed; the outcome is then only available from
// Err.
func Build(ctx context.Context, b *bundle.Bundle, categories []*Category, sink *errtree.Node, opts ...Option) *Registry {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if b == nil {
		b = bundle.Of()
	}

	r := &Registry{
		id:         uuid.NewString(),
		bundle:     b,
		opts:       o,
		node:       errtree.New(RootLabel),
		catNodes:   make(map[string]*errtree.Node),
		catByName:  make(map[string]*Category),
		byType:     make(map[string]Descriptor),
		byCategory: make(map[string][]Descriptor),
	}
	r.log = o.logger.With(zap.String("build_id", r.id))
	r.setupNode = r.node.Child("setup")
	r.classNode = r.node.Child("classification")

	ctx, span := o.tracer.Start(ctx, "registry.build", trace.WithAttributes(
		attribute.String("build_id", r.id),
		attribute.Int("types", b.Len()),
	))
	defer span.End()
	start := time.Now()

	r.setup(categories)

	var matched []classified
	steps := []struct {
		name string
		run  func(context.Context)
	}{
		{"classify", func(ctx context.Context) { matched = r.classify() }},
		{"construct", func(ctx context.Context) { r.construct(matched) }},
		{"basic", r.initBasic},
		{"navigation", r.initNavigation},
		{"validation", r.validate},
	}
	for _, s := range steps {
		if !r.runPhase(ctx, s.name, s.run) {
			break
		}
	}

	if !r.node.HasErrors() {
		for _, d := range r.ordered {
			d.descriptorBase().advance(Validated, Sealed)
		}
		r.current.Store(int32(phaseSealed))
		if o.scope != nil {
			r.unregister = o.scope.Register(r)
		}
	} else if r.currentPhase() < phaseComplete {
		r.current.Store(int32(phaseComplete))
	}

	if sink != nil {
		sink.AddChild(r.node)
	}
	r.err = r.node.Err()

	span.SetAttributes(attribute.Int("descriptors", len(r.ordered)), attribute.Bool("sealed", r.Sealed()))
	if r.err != nil {
		span.SetStatus(codes.Error, "registry build failed")
		r.log.Warn("type registry build failed",
			zap.Int("errors", len(errtree.Leaves(r.err))),
			zap.Int("descriptors", len(r.ordered)),
			zap.Duration("elapsed", time.Since(start)))
	} else {
		r.log.Info("type registry sealed",
			zap.Int("types", b.Len()),
			zap.Int("descriptors", len(r.ordered)),
			zap.Duration("elapsed", time.Since(start)))
	}
	return r
}

func (r *Registry) runPhase(ctx context.Context, name string, fn func(context.Context)) bool {
	if err := ctx.Err(); err != nil {
		r.node.Add(fmt.Errorf("registry build interrupted before %s: %w", name, err))
		return false
	}
	ctx, span := r.opts.tracer.Start(ctx, "registry."+name)
	defer span.End()
	start := time.Now()
	fn(ctx)
	r.log.Debug("phase complete", zap.String("phase", name), zap.Duration("elapsed", time.Since(start)))
	return true
}

func (r *Registry) currentPhase() phase {
	return phase(r.current.Load())
}

func (r *Registry) setup(categories []*Category) {
	count := make(map[string]int)
	for _, c := range categories {
		if c != nil {
			count[c.Name()]++
		}
	}

	reported := make(map[string]bool)
	for _, c := range categories {
		if c == nil {
			r.setupNode.Add(&rules.SetupError{Message: "nil category"})
			continue
		}
		errs := c.validate()
		if count[c.Name()] > 1 && c.Name() != "" {
			if !reported[c.Name()] {
				errs = append(errs, &rules.SetupError{Category: c.Name(), Message: "category defined more than once"})
				reported[c.Name()] = true
			} else if len(errs) == 0 {
				continue
			}
		}
		if len(errs) > 0 {
			r.setupNode.AddAll(errs...)
			continue
		}
		r.categories = append(r.categories, c)
	}

	sort.Slice(r.categories, func(i, j int) bool {
		return r.categories[i].Name() < r.categories[j].Name()
	})
	for _, c := range r.categories {
		r.catByName[c.Name()] = c
		r.catNodes[c.Name()] = r.node.Child(c.Name())
	}
}

func (r *Registry) classify() []classified {
	types := r.bundle.Types()
	sets := make([]rules.Set, len(r.categories))
	for i, c := range r.categories {
		sets[i] = c.Set
	}

	outcomes := make([]rules.Outcome, len(types))
	errs := make([]error, len(types))
	var g errgroup.Group
	g.SetLimit(r.opts.workers)
	for i, t := range types {
		g.Go(func() error {
			outcomes[i], errs[i] = rules.Classify(t, sets)
			return nil
		})
	}
	_ = g.Wait()

	var out []classified
	for i, t := range types {
		for _, rerr := range outcomes[i].RuleErrors {
			r.ruleNode(rerr).Add(rerr)
		}
		if errs[i] != nil {
			r.classNode.Add(errs[i])
			continue
		}
		out = append(out, classified{typ: t, category: outcomes[i].Category})
	}
	r.log.Debug("classified types", zap.Int("types", len(types)), zap.Int("classified", len(out)))
	return out
}

func (r *Registry) ruleNode(err error) *errtree.Node {
	var rerr *rules.RuleError
	if errors.As(err, &rerr) {
		if n, ok := r.catNodes[rerr.Category]; ok {
			return n
		}
	}
	return r.classNode
}

func (r *Registry) construct(matched []classified) {
	for _, m := range matched {
		c := r.catByName[m.category]
		var d Descriptor
		err := errtree.Capture(func() error {
			d = c.construct()
			if d == nil {
				return errors.New("constructor returned nil")
			}
			d.descriptorBase().bind(m.typ, c.Name(), r)
			return nil
		})
		if err != nil {
			r.catNodes[c.Name()].Add(fmt.Errorf("constructing %s descriptor for %s: %w", c.Name(), m.typ.ID(), err))
			continue
		}
		d.descriptorBase().advance(Unclassified, Classified)

		r.byType[m.typ.ID()] = d
		r.ordered = append(r.ordered, d)
		r.byCategory[c.Name()] = append(r.byCategory[c.Name()], d)
	}
	r.current.Store(int32(phaseBasic))
}

// each runs fn for every descriptor on the worker pool and returns when
// all calls have finished
func (r *Registry) each(fn func(Descriptor)) {
	var g errgroup.Group
	g.SetLimit(r.opts.workers)
	for _, d := range r.ordered {
		g.Go(func() error {
			fn(d)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Registry) initBasic(context.Context) {
	r.each(func(d Descriptor) {
		b := d.descriptorBase()
		if bi, ok := d.(BasicInitializer); ok {
			if err := errtree.Capture(func() error {
				bi.InitBasic(b.vctx)
				return nil
			}); err != nil {
				b.vctx.Violationf("basic initialization failed: %v", err)
			}
		}
		b.advance(Classified, BasicInitialized)
	})
	r.current.Store(int32(phaseNavigation))
}

func (r *Registry) initNavigation(ctx context.Context) {
	for _, d := range r.ordered {
		b := d.descriptorBase()
		for _, n := range b.navFields() {
			if err := n.force(ctx); err != nil {
				recordNavError(b, n, err)
			}
		}
		if ni, ok := d.(NavigationInitializer); ok {
			if err := errtree.Capture(func() error {
				ni.InitNavigation(ctx, b.vctx)
				return nil
			}); err != nil {
				b.vctx.Violationf("navigation initialization failed: %v", err)
			}
		}
		b.advance(BasicInitialized, NavigationInitialized)
	}
	r.current.Store(int32(phaseValidation))
}

// recordNavError adds a navigation failure to the owning descriptor. A
// cycle is reported only by the field where it closed. Resolver panics name
// the field they came from.
func recordNavError(b *Base, n navField, err error) {
	var cerr *navigation.CycleError
	if errors.As(err, &cerr) && cerr.Closed() != n.label() {
		return
	}
	var perr *errtree.PanicError
	if errors.As(err, &perr) {
		b.vctx.Violationf("resolving %s failed: %v", n.label(), err)
		return
	}
	b.vctx.Violation(err.Error())
}

func (r *Registry) validate(ctx context.Context) {
	r.each(func(d Descriptor) {
		b := d.descriptorBase()
		if v, ok := d.(Validator); ok {
			if err := errtree.Capture(func() error {
				v.Validate(ctx, b.vctx)
				return nil
			}); err != nil {
				b.vctx.Violationf("validation failed: %v", err)
			}
		}
		b.advance(NavigationInitialized, Validated)
	})
	for _, d := range r.ordered {
		b := d.descriptorBase()
		r.catNodes[d.Category()].Add(b.vctx.Err())
	}
	r.current.Store(int32(phaseComplete))
}

// BuildID returns the unique ID of this build
func (r *Registry) BuildID() string {
	return r.id
}

// Bundle returns the bundle the registry was built from
func (r *Registry) Bundle() *bundle.Bundle {
	return r.bundle
}

// Sealed reports whether the build completed without errors
func (r *Registry) Sealed() bool {
	return r.currentPhase() == phaseSealed
}

// Err returns the flattened build errors, or nil for a sealed registry
func (r *Registry) Err() error {
	return r.err
}

// Categories returns the accepted categories sorted by name
func (r *Registry) Categories() []*Category {
	return append([]*Category(nil), r.categories...)
}

// Category returns the accepted category called name
func (r *Registry) Category(name string) (*Category, bool) {
	c, ok := r.catByName[name]
	return c, ok
}

// Lookup returns the descriptor of the type with the given ID. It finds
// nothing until construction has finished.
func (r *Registry) Lookup(id string) (Descriptor, bool) {
	if r == nil || r.currentPhase() < phaseBasic {
		return nil, false
	}
	d, ok := r.byType[id]
	return d, ok
}

// Descriptors iterates over every descriptor in type ID order. Like All it
// yields before the registry is sealed.
func (r *Registry) Descriptors() iter.Seq[Descriptor] {
	return func(yield func(Descriptor) bool) {
		if r.currentPhase() < phaseBasic {
			return
		}
		for _, d := range r.ordered {
			if !yield(d) {
				return
			}
		}
	}
}

// ByCategory returns the descriptors of one category in type ID order
func (r *Registry) ByCategory(name string) []Descriptor {
	if r.currentPhase() < phaseBasic {
		return nil
	}
	return append([]Descriptor(nil), r.byCategory[name]...)
}

// Count returns the number of descriptors
func (r *Registry) Count() int {
	if r.currentPhase() < phaseBasic {
		return 0
	}
	return len(r.ordered)
}

// CountByCategory returns descriptor counts keyed by category name.
// Accepted categories without descriptors are present with zero.
func (r *Registry) CountByCategory() map[string]int {
	out := make(map[string]int, len(r.categories))
	for _, c := range r.categories {
		out[c.Name()] = 0
	}
	if r.currentPhase() < phaseBasic {
		return out
	}
	for name, ds := range r.byCategory {
		out[name] = len(ds)
	}
	return out
}

// Close removes the registry from the scope it was registered in
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		if r.unregister != nil {
			r.unregister()
		}
	})
}
