package formwork

import (
	"errors"

	"github.com/aretw0/formwork/pkg/flow"
	"github.com/aretw0/formwork/pkg/registry"
	"github.com/aretw0/formwork/pkg/resource"
	"github.com/aretw0/formwork/pkg/session"
)

var (
	ErrUnknownFeature   = registry.ErrUnknownFeature
	ErrUnknownScope     = registry.ErrUnknownScope
	ErrFlowNotFound     = session.ErrNotFound
	ErrResourceNotFound = resource.ErrNotFound
	ErrInvalidField     = flow.ErrInvalidField
	ErrStale            = flow.ErrStale
	ErrCompleted        = flow.ErrCompleted
	ErrInvalidFilter    = resource.ErrInvalidFilter

	// ErrNotCreateFeature is returned by StartFlow for features that do not
	// produce a flow.
	ErrNotCreateFeature = errors.New("feature does not start a flow")
	// ErrInvalidInput is returned when a value fails sanitisation.
	ErrInvalidInput = errors.New("invalid input")
)
