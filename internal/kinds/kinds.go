// Package kinds defines the built-in descriptor categories.
//
// Categories are selected by metadata-level marker names: a type belongs to
// a category when it derives from or implements one of the markers below.
package kinds

import (
	"iter"

	"github.com/conduit-lang/typecache/internal/registry"
	"github.com/conduit-lang/typecache/internal/rules"
)

// Marker names
const (
	ValueTypeBase           = "values.ValueType"
	EntityMarker            = "data.Entity"
	Reader                  = "data.Reader"
	ReadWriter              = "data.ReadWriter"
	SourceReader            = "data.SourceReader"
	SourceReadWriter        = "data.SourceReadWriter"
	GraphQLDataObjectMarker = "graphql.DataObject"
	GraphQLMutationMarker   = "graphql.MutationParameter"
	MappingProfileBase      = "mapping.Profile"
	DataPackageBase         = "datagen.Package"
)

// Tags understood by the built-in categories
const (
	TagUnmapped           = "unmapped"
	TagDisableAutoProfile = "disable-auto-profile"
)

// Category names
const (
	CategoryValueType         = "ValueType"
	CategoryEntity            = "Entity"
	CategoryGraphQLDataObject = "GraphQLDataObject"
	CategoryGraphQLMutation   = "GraphQLMutationParameter"
	CategorySourceProvider    = "SourceDataProvider"
	CategoryRepository        = "Repository"
	CategoryMappingProfile    = "MappingProfile"
	CategoryDataPackage       = "DataPackage"
)

// GraphQL objects usually also carry entity-like markers; they win
const graphQLPriority = 5

// Catalog returns fresh instances of every built-in category
func Catalog() []*registry.Category {
	return []*registry.Category{
		registry.Define(CategoryValueType, newValueType,
			registry.Any(rules.DerivedFrom(ValueTypeBase)),
			registry.Describe("value objects wrapping a native type")),

		registry.Define(CategoryEntity, newEntity,
			registry.Must(rules.ImplementsAny(EntityMarker), rules.IsStruct(), rules.NotAbstract()),
			registry.Describe("persistent entities")),

		registry.Define(CategoryGraphQLDataObject, newGraphQLDataObject,
			registry.Must(rules.ImplementsAny(GraphQLDataObjectMarker), rules.IsStruct(), rules.NotAbstract()),
			registry.Priority(graphQLPriority),
			registry.Describe("GraphQL objects exposing an entity")),

		registry.Define(CategoryGraphQLMutation, newGraphQLMutationParameter,
			registry.Must(rules.ImplementsAny(GraphQLMutationMarker), rules.IsStruct(), rules.NotAbstract()),
			registry.Priority(graphQLPriority),
			registry.Describe("GraphQL mutation inputs targeting an entity")),

		registry.Define(CategorySourceProvider, newSourceDataProvider,
			registry.Any(rules.ImplementsAny(SourceReader).WithPriority(10)),
			registry.Must(rules.IsGeneric(), rules.IsStruct(), rules.NotAbstract()),
			registry.Describe("generic data sources")),

		registry.Define(CategoryRepository, newRepository,
			registry.Any(rules.ImplementsAny(Reader), rules.NameSuffix("Repository")),
			registry.Must(rules.IsStruct(), rules.NotAbstract()),
			registry.Describe("repositories serving one data object")),

		registry.Define(CategoryMappingProfile, newMappingProfile,
			registry.Any(rules.DerivedFrom(MappingProfileBase)),
			registry.Must(rules.NotAbstract()),
			registry.Describe("object mapping profiles")),

		registry.Define(CategoryDataPackage, newDataPackage,
			registry.Any(rules.DerivedFrom(DataPackageBase)),
			registry.Must(rules.NotAbstract()),
			registry.Describe("generated test data packages")),
	}
}

// Detail is one named, rendered piece of descriptor data
type Detail struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Describer is implemented by descriptors that expose derived data
type Describer interface {
	Details() []Detail
}

// Details returns d's derived data, or nil when d exposes none
func Details(d registry.Descriptor) []Detail {
	if ds, ok := d.(Describer); ok {
		return ds.Details()
	}
	return nil
}

// Entities iterates over all entity descriptors
func Entities(r *registry.Registry) iter.Seq[*Entity] {
	return registry.All[*Entity](r, nil)
}

// WritableProviders iterates over data providers that can write
func WritableProviders(r *registry.Registry) iter.Seq[*SourceDataProvider] {
	return registry.All(r, func(d *SourceDataProvider) bool { return d.CanWrite })
}

// AutoProfiles iterates over mapping profiles registered automatically
func AutoProfiles(r *registry.Registry) iter.Seq[*MappingProfile] {
	return registry.All(r, func(d *MappingProfile) bool { return d.AutoRegister })
}

// RepositoryFor returns the repository whose data object wraps the entity
// with the given ID
func RepositoryFor(r *registry.Registry, entityID string) (*Repository, bool) {
	for repo := range registry.All[*Repository](r, nil) {
		if e := repo.ProvidedEntity.Value(); e != nil && e.ID() == entityID {
			return repo, true
		}
	}
	return nil, false
}
