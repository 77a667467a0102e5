package ports

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/formwork/pkg/resource"
)

// ErrCacheMiss is returned when a scope has no cached listing.
var ErrCacheMiss = errors.New("cache miss")

// ResourceCache stores resource listings keyed by scope (e.g. "aws:ec2" or
// "list-iam-roles").
type ResourceCache interface {
	// Get returns the cached listing for scope or ErrCacheMiss.
	Get(ctx context.Context, scope string) ([]resource.Summary, error)

	// Set stores a listing. A zero ttl keeps it until invalidated.
	Set(ctx context.Context, scope string, items []resource.Summary, ttl time.Duration) error

	// Invalidate drops every scope that starts with prefix. An empty prefix
	// clears the cache.
	Invalidate(ctx context.Context, prefix string) error
}
