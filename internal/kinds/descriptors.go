package kinds

import (
	"context"
	"strconv"
	"strings"

	"github.com/conduit-lang/typecache/internal/registry"
	"github.com/conduit-lang/typecache/internal/typeinfo"
	"github.com/conduit-lang/typecache/internal/validation"
)

// ValueType wraps a single native value
type ValueType struct {
	registry.Base
	NativeType typeinfo.Ref
	Mapped     bool
}

func newValueType() *ValueType { return &ValueType{} }

func (d *ValueType) InitBasic(v *validation.TypeContext) {
	if base, ok := d.Type().AncestorRef(ValueTypeBase); ok {
		d.NativeType, _ = base.Arg(0)
	}
	d.Mapped = !d.Type().HasTag(TagUnmapped) && !d.Type().Abstract
}

func (d *ValueType) Validate(ctx context.Context, v *validation.TypeContext) {
	if d.NativeType.IsZero() {
		v.Violation("should declare its native type", "derive from "+ValueTypeBase+"[T]")
	}
}

func (d *ValueType) Details() []Detail {
	return []Detail{
		{"native type", d.NativeType.String()},
		{"mapped", strconv.FormatBool(d.Mapped)},
	}
}

// Entity is a persistent domain object
type Entity struct {
	registry.Base
	Key *typeinfo.Property
}

func newEntity() *Entity { return &Entity{} }

func (d *Entity) InitBasic(v *validation.TypeContext) {
	if p, ok := d.Type().Property("ID"); ok {
		d.Key = &p
	}
}

func (d *Entity) Details() []Detail {
	key := "-"
	if d.Key != nil {
		key = d.Key.Name + " " + d.Key.Type.String()
	}
	return []Detail{{"key", key}}
}

// commandEntity declares the CommandEntity navigation shared by GraphQL
// objects: the entity named by the first argument of marker
func commandEntity(b *registry.Base, marker string) *registry.Nav[*Entity] {
	return registry.NewNav(b, "CommandEntity", func(ctx context.Context, r *registry.Registry) (*Entity, error) {
		ref, _ := b.Type().InterfaceRef(marker)
		arg, ok := ref.Arg(0)
		if !ok {
			return nil, &registry.UnresolvedError{From: b.ID(), What: "command entity"}
		}
		e, ok := registry.TryGetRef[*Entity](r, arg)
		if !ok {
			return nil, registry.Unresolved(b, "command entity", arg)
		}
		return e, nil
	})
}

func entityDetail(n *registry.Nav[*Entity]) Detail {
	if e := n.Value(); e != nil {
		return Detail{"command entity", e.ID()}
	}
	return Detail{"command entity", "unresolved"}
}

// GraphQLDataObject exposes an entity through GraphQL
type GraphQLDataObject struct {
	registry.Base
	CommandEntity *registry.Nav[*Entity]
}

func newGraphQLDataObject() *GraphQLDataObject {
	d := &GraphQLDataObject{}
	d.CommandEntity = commandEntity(&d.Base, GraphQLDataObjectMarker)
	return d
}

func (d *GraphQLDataObject) Details() []Detail {
	return []Detail{entityDetail(d.CommandEntity)}
}

// GraphQLMutationParameter is a mutation input targeting an entity
type GraphQLMutationParameter struct {
	registry.Base
	CommandEntity *registry.Nav[*Entity]
}

func newGraphQLMutationParameter() *GraphQLMutationParameter {
	d := &GraphQLMutationParameter{}
	d.CommandEntity = commandEntity(&d.Base, GraphQLMutationMarker)
	return d
}

func (d *GraphQLMutationParameter) Details() []Detail {
	return []Detail{entityDetail(d.CommandEntity)}
}

// SourceDataProvider is a generic data source
type SourceDataProvider struct {
	registry.Base
	CanWrite bool
}

func newSourceDataProvider() *SourceDataProvider { return &SourceDataProvider{} }

func (d *SourceDataProvider) InitBasic(v *validation.TypeContext) {
	d.CanWrite = d.Type().ImplementsAny(ReadWriter)
}

func (d *SourceDataProvider) Validate(ctx context.Context, v *validation.TypeContext) {
	if d.CanWrite {
		v.ShouldImplementAny(SourceReadWriter, "writable providers expose their writer to sources")
	}
}

func (d *SourceDataProvider) Details() []Detail {
	return []Detail{
		{"parameters", strings.Join(d.Type().Params, ", ")},
		{"writable", strconv.FormatBool(d.CanWrite)},
	}
}

// Repository serves one data object
type Repository struct {
	registry.Base
	CanWrite bool

	// ProvidedDataObject is the entity or GraphQL object named by the
	// reader's type argument
	ProvidedDataObject *registry.Nav[registry.Descriptor]
	// ProvidedEntity is the entity behind ProvidedDataObject
	ProvidedEntity *registry.Nav[*Entity]
}

func newRepository() *Repository {
	d := &Repository{}
	d.ProvidedDataObject = registry.NewNav(&d.Base, "ProvidedDataObject",
		func(ctx context.Context, r *registry.Registry) (registry.Descriptor, error) {
			ref, _ := d.Type().InterfaceRef(Reader)
			arg, ok := ref.Arg(0)
			if !ok {
				return nil, &registry.UnresolvedError{From: d.ID(), What: "data object"}
			}
			if e, ok := registry.TryGetRef[*Entity](r, arg); ok {
				return e, nil
			}
			if g, ok := registry.TryGetRef[*GraphQLDataObject](r, arg); ok {
				return g, nil
			}
			return nil, registry.Unresolved(d, "data object", arg)
		})
	d.ProvidedEntity = registry.NewNav(&d.Base, "ProvidedEntity",
		func(ctx context.Context, r *registry.Registry) (*Entity, error) {
			obj, err := d.ProvidedDataObject.Get(ctx)
			if err != nil {
				return nil, err
			}
			switch o := obj.(type) {
			case *Entity:
				return o, nil
			case *GraphQLDataObject:
				// a missing command entity is reported on the object itself
				e, _ := o.CommandEntity.Get(ctx)
				return e, nil
			}
			return nil, &registry.UnresolvedError{From: d.ID(), What: "entity", Reference: obj.Type().ID()}
		})
	return d
}

func (d *Repository) InitBasic(v *validation.TypeContext) {
	d.CanWrite = d.Type().ImplementsAny(ReadWriter)
}

func (d *Repository) Validate(ctx context.Context, v *validation.TypeContext) {
	v.ShouldImplementAny(Reader, "repositories read exactly one data object")
	v.ShouldNotBeGeneric("generic readers are data providers; implement " + SourceReader)
	v.ShouldNotImplementAny(SourceReader, "source readers must be generic")
}

func (d *Repository) Details() []Detail {
	obj := "unresolved"
	if o := d.ProvidedDataObject.Value(); o != nil {
		obj = o.Category() + " " + o.Type().ID()
	}
	return []Detail{
		{"data object", obj},
		{"writable", strconv.FormatBool(d.CanWrite)},
	}
}

// MappingProfile configures object mapping
type MappingProfile struct {
	registry.Base
	AutoRegister bool
}

func newMappingProfile() *MappingProfile { return &MappingProfile{} }

func (d *MappingProfile) InitBasic(v *validation.TypeContext) {
	d.AutoRegister = !d.Type().HasTag(TagDisableAutoProfile)
}

func (d *MappingProfile) Details() []Detail {
	return []Detail{{"auto register", strconv.FormatBool(d.AutoRegister)}}
}

// DataPackage generates test data
type DataPackage struct {
	registry.Base
}

func newDataPackage() *DataPackage { return &DataPackage{} }

func (d *DataPackage) Validate(ctx context.Context, v *validation.TypeContext) {
	ids := v.Properties(func(p typeinfo.Property) bool {
		return !p.Static && strings.HasSuffix(p.Type.Name, "ID")
	})
	for _, p := range ids {
		p.HaveSetAccess(typeinfo.AccessProtected, "ids are assigned by the package")
	}
}

func (d *DataPackage) Details() []Detail {
	return []Detail{{"properties", strconv.Itoa(len(d.Type().Properties))}}
}
