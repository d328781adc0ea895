package policy

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/cachebus"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/period"
)

type PolicyServiceImpl struct {
	policyRepo policy.PolicyRepository
	resolver   policy.Resolver
	trigger    payroll.Trigger
	bus        cachebus.Publisher
	now        func() time.Time
}

func NewPolicyService(policyRepo policy.PolicyRepository, resolver policy.Resolver, trigger payroll.Trigger, bus cachebus.Publisher) policy.PolicyService {
	return &PolicyServiceImpl{
		policyRepo: policyRepo,
		resolver:   resolver,
		trigger:    trigger,
		bus:        bus,
		now:        time.Now,
	}
}

func (s *PolicyServiceImpl) GetResolved(ctx context.Context, subUnitID string) (policy.Resolved, error) {
	resolved, err := s.resolver.Resolve(ctx, subUnitID)
	if err != nil {
		return policy.Resolved{}, err
	}
	if resolved == nil {
		return policy.Resolved{}, policy.ErrSubUnitNotFound
	}
	return *resolved, nil
}

func (s *PolicyServiceImpl) GetOverride(ctx context.Context, subUnitID string) (policy.PolicyOverrideResponse, error) {
	override, err := s.policyRepo.GetOverride(ctx, subUnitID)
	if err != nil {
		return policy.PolicyOverrideResponse{}, err
	}
	return policy.PolicyOverrideResponse{
		SubUnitID: override.SubUnitID,
		Effective: override.MergeOver(policy.DefaultPolicy()),
		UpdatedAt: override.UpdatedAt,
	}, nil
}

func (s *PolicyServiceImpl) UpsertOverride(ctx context.Context, req policy.UpsertPolicyRequest) (policy.PolicyOverrideResponse, error) {
	if err := req.Validate(); err != nil {
		return policy.PolicyOverrideResponse{}, err
	}

	if _, err := s.policyRepo.GetSubUnit(ctx, req.SubUnitID); err != nil {
		return policy.PolicyOverrideResponse{}, err
	}

	saved, err := s.policyRepo.UpsertOverride(ctx, req.ToOverride())
	if err != nil {
		return policy.PolicyOverrideResponse{}, err
	}

	s.changed(ctx, req.SubUnitID)

	return policy.PolicyOverrideResponse{
		SubUnitID: saved.SubUnitID,
		Effective: saved.MergeOver(policy.DefaultPolicy()),
		UpdatedAt: saved.UpdatedAt,
	}, nil
}

func (s *PolicyServiceImpl) DeleteOverride(ctx context.Context, subUnitID string) error {
	if err := s.policyRepo.DeleteOverride(ctx, subUnitID); err != nil {
		return err
	}
	s.changed(ctx, subUnitID)
	return nil
}

// changed evicts the sub-unit everywhere and queues the months that are still
// open. Closed months keep the policy they were computed with.
func (s *PolicyServiceImpl) changed(ctx context.Context, subUnitID string) {
	s.resolver.Invalidate(subUnitID)
	if err := s.bus.Publish(ctx, cachebus.TopicPolicy, subUnitID); err != nil {
		slog.Warn("Policy change not broadcast", "sub_unit_id", subUnitID, "error", err)
	}

	for _, monthKey := range period.OpenMonthKeys(s.now()) {
		if !s.trigger.Enqueue(monthKey) {
			slog.Warn("Payroll recalculation not queued after policy change", "sub_unit_id", subUnitID, "month_key", monthKey)
		}
	}
}
