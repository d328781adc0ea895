package policy

import "context"

// Resolver returns the effective policy of a sub-unit. A nil policy with a nil
// error means the sub-unit is unknown and the caller applies DefaultPolicy.
type Resolver interface {
	Resolve(ctx context.Context, subUnitID string) (*Resolved, error)
	Invalidate(subUnitID string)
	InvalidateAll()
}

type PolicyService interface {
	GetResolved(ctx context.Context, subUnitID string) (Resolved, error)
	GetOverride(ctx context.Context, subUnitID string) (PolicyOverrideResponse, error)
	UpsertOverride(ctx context.Context, req UpsertPolicyRequest) (PolicyOverrideResponse, error)
	DeleteOverride(ctx context.Context, subUnitID string) error
}
