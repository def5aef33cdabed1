// Package rules implements the sandboxed expression evaluator used to
// gate resource access beyond the permission resolver (spec.md §4.G).
// A rule is a boolean JavaScript expression run in an isolated goja
// runtime per evaluation, with no network, filesystem, or host-process
// access exposed to the script.
package rules

import "github.com/nimbusfs/core/cmn"

// Kind selects which typed input shape a rule evaluates against.
type Kind uint8

const (
	KindRoot Kind = iota
	KindObjectOrBucket
	KindPackage
	KindBundle
)

// KVDelta describes an in-flight add/remove of resource key-values, made
// available to Object/Bucket rules so they can react to the mutation
// being attempted, not just current state.
type KVDelta struct {
	Add    []string
	Remove []string
}

// RootInput is what a Root rule evaluates against (spec.md §4.G).
type RootInput struct {
	UserID      cmn.ID
	Permissions map[cmn.ID]cmn.PermLevel
	Attributes  map[string]string
	Method      string
	Headers     map[string]string
}

// ResourceStateView is the JSON-serializable projection of a
// graph.ResourceStates handed to the script runtime; kept decoupled
// from the graph package's internal types so the evaluator never needs
// to import graph.
type ResourceStateView struct {
	Project    map[string]interface{} `json:"project,omitempty"`
	Collection map[string]interface{} `json:"collection,omitempty"`
	Dataset    map[string]interface{} `json:"dataset,omitempty"`
	Object     map[string]interface{} `json:"object,omitempty"`
}

// ObjectInput is what an Object or Bucket rule evaluates against.
type ObjectInput struct {
	RootInput
	States ResourceStateView
	Delta  KVDelta
}

// PackageInput is what a Package ("objects/<id>/...") rule evaluates
// against: the object plus every ancestor Project.
type PackageInput struct {
	Object    map[string]interface{} `json:"object"`
	Ancestors []map[string]interface{} `json:"ancestors"`
	Method    string
	Headers   map[string]string
}

// BundleInput is what a Bundle ("bundles/<id>") rule evaluates against.
type BundleInput struct {
	Bundle  map[string]interface{} `json:"bundle"`
	Method  string
	Headers map[string]string
}
