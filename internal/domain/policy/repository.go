package policy

import "context"

type PolicyRepository interface {
	GetSubUnit(ctx context.Context, id string) (SubUnit, error)
	GetOverride(ctx context.Context, subUnitID string) (PolicyOverride, error)
	UpsertOverride(ctx context.Context, override PolicyOverride) (PolicyOverride, error)
	DeleteOverride(ctx context.Context, subUnitID string) error
}
