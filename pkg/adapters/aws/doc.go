// Package aws adapts AWS services to the resource interfaces in
// pkg/resource. Every adapter depends on a narrow client interface that
// the SDK client satisfies, so tests can supply fakes.
package aws
