// Package manifest reads module manifests: YAML (or JSON) files declaring a
// module, its requirements and the candidate types it provides.
package manifest

// File suffixes recognized by discovery
var manifestSuffixes = []string{".module.yaml", ".module.yml", ".module.json"}

// ModuleManifest is the on-disk form of a module
type ModuleManifest struct {
	Module        string            `yaml:"module" json:"module"`
	Version       string            `yaml:"version,omitempty" json:"version,omitempty"`
	ProvidesTypes bool              `yaml:"provides_types,omitempty" json:"provides_types,omitempty"`
	Description   string            `yaml:"description,omitempty" json:"description,omitempty"`
	Requires      []RequirementSpec `yaml:"requires,omitempty" json:"requires,omitempty"`
	Types         []TypeSpec        `yaml:"types,omitempty" json:"types,omitempty"`
}

// RequirementSpec names a required module and an optional semver constraint
type RequirementSpec struct {
	Module  string `yaml:"module" json:"module"`
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
}

// TypeSpec declares one candidate type. Refs use the bracket syntax
// accepted by typeinfo.ParseRef.
type TypeSpec struct {
	Name       string         `yaml:"name" json:"name"`
	Package    string         `yaml:"package,omitempty" json:"package,omitempty"`
	Kind       string         `yaml:"kind,omitempty" json:"kind,omitempty"`
	Abstract   bool           `yaml:"abstract,omitempty" json:"abstract,omitempty"`
	Internal   bool           `yaml:"internal,omitempty" json:"internal,omitempty"`
	Params     []string       `yaml:"params,omitempty" json:"params,omitempty"`
	Args       []string       `yaml:"args,omitempty" json:"args,omitempty"`
	Extends    string         `yaml:"extends,omitempty" json:"extends,omitempty"`
	Implements []string       `yaml:"implements,omitempty" json:"implements,omitempty"`
	Tags       []string       `yaml:"tags,omitempty" json:"tags,omitempty"`
	Properties []PropertySpec `yaml:"properties,omitempty" json:"properties,omitempty"`
	Nested     []TypeSpec     `yaml:"nested,omitempty" json:"nested,omitempty"`
}

// PropertySpec declares a property. Accessors default to public get and
// no setter.
type PropertySpec struct {
	Name   string   `yaml:"name" json:"name"`
	Type   string   `yaml:"type" json:"type"`
	Get    string   `yaml:"get,omitempty" json:"get,omitempty"`
	Set    string   `yaml:"set,omitempty" json:"set,omitempty"`
	Static bool     `yaml:"static,omitempty" json:"static,omitempty"`
	Tags   []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}
