// Package resource defines the capability contracts infrastructure adapters
// implement, and the summary shape every resource is reported in.
//
// Adapters are polymorphic over resource kinds: an EC2 instance adapter is a
// Lister, a Creator and a Registry at once, and its resources are Stateful.
package resource
