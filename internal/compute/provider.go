package compute

import (
	"context"

	"github.com/boxfleet/boxfleet/internal/model"
)

// CreateOptions carries everything the provider needs to launch one box.
// All fields are already resolved and validated by the lifecycle controller.
type CreateOptions struct {
	User         string
	Name         string
	ImageAlias   string
	ImageID      string
	InstanceType string
	TTL          int64
	Connect      bool
	PublicKey    string
	Tags         map[string]string
}

// Provider is the compute backend port. Implementations translate boxes to
// whatever the backend natively runs and back again; the engine above never
// sees backend types.
type Provider interface {
	// CreateBox launches a new instance and returns its box view. The
	// returned box may have no address yet.
	CreateBox(ctx context.Context, opts CreateOptions) (*model.Box, error)

	// ListBoxes returns the current fleet, one box per live instance, in
	// no particular order.
	ListBoxes(ctx context.Context) ([]model.Box, error)

	// TerminateBox tears down an instance. Terminating an instance that is
	// already gone succeeds.
	TerminateBox(ctx context.Context, instanceID string) error

	// RebootBox restarts the instance's workload in place.
	RebootBox(ctx context.Context, instanceID string) error
}
