// Package catalog provides the in-memory directory of installed node kinds.
//
// Node kinds are registered once at process start; after that the catalog is
// read-mostly shared state the execution engine queries to resolve a node id
// into its metadata and capability handle. The catalog owns nothing about how
// or when nodes run; scheduling, validation and retries belong to the engine.
package catalog

import (
	"context"
	"time"

	"github.com/wehubfusion/Daedalus/pkg/execution"
)

// Property types understood by tooling consuming the manifest.
const (
	PropertyTypeString  = "string"
	PropertyTypeNumber  = "number"
	PropertyTypeBoolean = "boolean"
	PropertyTypeJSON    = "json"
	PropertyTypeOptions = "options"
)

// PropertySpec describes one configurable property of a node kind.
type PropertySpec struct {
	// Name is the property key node implementations read their
	// configuration under
	Name string `json:"name"`

	// Type is one of the PropertyType constants
	Type string `json:"type"`

	// Default is the value used when the property is not configured
	Default interface{} `json:"default,omitempty"`

	// Required indicates the property must be configured
	Required bool `json:"required,omitempty"`

	// Description is a human-readable explanation shown by tooling
	Description string `json:"description,omitempty"`

	// Options lists the allowed values for PropertyTypeOptions properties
	Options []string `json:"options,omitempty"`
}

// Slot describes one named input or output of a node kind. Slots are ordered;
// connection indexes refer to this order.
type Slot struct {
	// Name identifies the slot (e.g. "main", "true", "false")
	Name string `json:"name"`

	// Type is the connection type carried by the slot
	Type string `json:"type"`

	// Required indicates the slot must be wired for the node to run
	Required bool `json:"required,omitempty"`
}

// Executor is the capability handle of a node kind. The execution engine
// resolves it through the catalog and invokes it with the context it built
// for the invocation; the catalog itself never calls it.
type Executor interface {
	Execute(ctx context.Context, ec *execution.Context) (map[string]interface{}, error)
}

// Descriptor is the static metadata plus capability handle of one installed
// node kind. Identity is the ID; two descriptors with the same ID describe
// the same node kind.
type Descriptor struct {
	// ID uniquely identifies the node kind across the catalog
	ID string `json:"id"`

	// Name is the human-readable display name
	Name string `json:"name"`

	// Version is the node kind's version string
	Version string `json:"version"`

	// Category groups related node kinds (e.g. "trigger", "action")
	Category string `json:"category"`

	// Icon names the icon tooling renders for this node kind
	Icon string `json:"icon"`

	// Description is a human-readable summary
	Description string `json:"description"`

	// Properties is the ordered schema of configurable properties
	Properties []PropertySpec `json:"properties"`

	// Inputs is the ordered list of input slots
	Inputs []Slot `json:"inputs"`

	// Outputs is the ordered list of output slots
	Outputs []Slot `json:"outputs"`

	// Tags are free-form labels used for discovery and recommendations
	Tags []string `json:"tags"`

	// SupportsAsync indicates the node kind can run suspended/resumed
	SupportsAsync bool `json:"supports_async"`

	// MaxExecutionTime is the advisory upper bound for one invocation
	MaxExecutionTime time.Duration `json:"-"`

	// Handle is the executable capability of the node kind; it is carried
	// through the catalog untouched
	Handle Executor `json:"-"`
}

// HasTag reports whether the descriptor carries the given tag.
func (d Descriptor) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// tagsIntersect reports whether the descriptor's tag set shares at least one
// tag with the given set.
func (d Descriptor) tagsIntersect(tags map[string]struct{}) bool {
	for _, t := range d.Tags {
		if _, ok := tags[t]; ok {
			return true
		}
	}
	return false
}
