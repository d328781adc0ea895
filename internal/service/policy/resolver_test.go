package policy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
)

type fakePolicyRepo struct {
	mu         sync.Mutex
	units      map[string]policy.SubUnit
	overrides  map[string]policy.PolicyOverride
	subUnitHit int
	failWith   error
}

func newFakePolicyRepo(units ...policy.SubUnit) *fakePolicyRepo {
	r := &fakePolicyRepo{
		units:     make(map[string]policy.SubUnit),
		overrides: make(map[string]policy.PolicyOverride),
	}
	for _, u := range units {
		r.units[u.ID] = u
	}
	return r
}

func (r *fakePolicyRepo) GetSubUnit(ctx context.Context, id string) (policy.SubUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subUnitHit++
	if r.failWith != nil {
		return policy.SubUnit{}, r.failWith
	}
	u, ok := r.units[id]
	if !ok {
		return policy.SubUnit{}, policy.ErrSubUnitNotFound
	}
	return u, nil
}

func (r *fakePolicyRepo) GetOverride(ctx context.Context, subUnitID string) (policy.PolicyOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.overrides[subUnitID]
	if !ok {
		return policy.PolicyOverride{}, policy.ErrPolicyOverrideNotFound
	}
	return o, nil
}

func (r *fakePolicyRepo) UpsertOverride(ctx context.Context, override policy.PolicyOverride) (policy.PolicyOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	override.UpdatedAt = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	r.overrides[override.SubUnitID] = override
	return override, nil
}

func (r *fakePolicyRepo) DeleteOverride(ctx context.Context, subUnitID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.overrides[subUnitID]; !ok {
		return policy.ErrPolicyOverrideNotFound
	}
	delete(r.overrides, subUnitID)
	return nil
}

func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }

func TestMatchRule_FirstMatchWins(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name     string
		unitName string
		wantRule string
		wantOK   bool
	}{
		{name: "head before driver", unitName: "Driver Head", wantRule: "head", wantOK: true},
		{name: "foreman", unitName: "Night Foreman", wantRule: "foreman", wantOK: true},
		{name: "driver", unitName: "Drivers", wantRule: "driver", wantOK: true},
		{name: "office staff", unitName: "Office Staff", wantRule: "office_staff", wantOK: true},
		{name: "dressing", unitName: "Dressing A", wantRule: "dressing", wantOK: true},
		{name: "finishing", unitName: "Finishing Line", wantRule: "finishing", wantOK: true},
		{name: "case insensitive", unitName: "HEAD OFFICE", wantRule: "head", wantOK: true},
		{name: "no match", unitName: "Packing", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := MatchRule(rules, tt.unitName)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantRule, rule.Name)
			}
		})
	}
}

func TestDefaultRules_Policies(t *testing.T) {
	rules := DefaultRules()

	head, _ := MatchRule(rules, "Head")
	assert.True(t, head.Policy.FixedSalary)
	assert.False(t, head.Policy.AllowsAnyOT())

	foreman, _ := MatchRule(rules, "Foreman")
	assert.True(t, foreman.Policy.AllowNightOT)
	assert.False(t, foreman.Policy.AllowDayOT)

	dressing, _ := MatchRule(rules, "Dressing")
	assert.Equal(t, 10.0, dressing.Policy.ShiftHours)
	assert.Equal(t, 2, dressing.Policy.SundayAutopayWindowDays)

	for _, r := range rules {
		require.NoError(t, r.Policy.Validate(), r.Name)
	}
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("override merged over default", func(t *testing.T) {
		repo := newFakePolicyRepo(policy.SubUnit{ID: "su-1", Name: "Driver Head"})
		repo.overrides["su-1"] = policy.PolicyOverride{SubUnitID: "su-1", ShiftHours: floatPtr(9), AllowNightOT: boolPtr(false)}
		r := NewResolver(repo, nil)

		got, err := r.Resolve(ctx, "su-1")
		require.NoError(t, err)
		require.NotNil(t, got)

		want := policy.DefaultPolicy()
		want.ShiftHours = 9
		want.AllowNightOT = false
		assert.Equal(t, want, got.Policy)
		assert.Equal(t, policy.SourceOverride, got.Source)
		assert.Empty(t, got.RuleName)
	})

	t.Run("heuristic when no override", func(t *testing.T) {
		repo := newFakePolicyRepo(policy.SubUnit{ID: "su-1", Name: "Driver Head"})
		r := NewResolver(repo, nil)

		got, err := r.Resolve(ctx, "su-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, policy.SourceHeuristic, got.Source)
		assert.Equal(t, "head", got.RuleName)
	})

	t.Run("default when nothing matches", func(t *testing.T) {
		repo := newFakePolicyRepo(policy.SubUnit{ID: "su-1", Name: "Packing"})
		r := NewResolver(repo, nil)

		got, err := r.Resolve(ctx, "su-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, policy.SourceDefault, got.Source)
		assert.Equal(t, policy.DefaultPolicy(), got.Policy)
	})

	t.Run("unknown sub-unit", func(t *testing.T) {
		r := NewResolver(newFakePolicyRepo(), nil)

		got, err := r.Resolve(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("empty id", func(t *testing.T) {
		r := NewResolver(newFakePolicyRepo(), nil)

		got, err := r.Resolve(ctx, "  ")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := newFakePolicyRepo()
		repo.failWith = errors.New("connection reset")
		r := NewResolver(repo, nil)

		_, err := r.Resolve(ctx, "su-1")
		require.Error(t, err)
		assert.ErrorContains(t, err, "connection reset")
	})

	t.Run("invalid override rejected", func(t *testing.T) {
		repo := newFakePolicyRepo(policy.SubUnit{ID: "su-1", Name: "Packing"})
		repo.overrides["su-1"] = policy.PolicyOverride{SubUnitID: "su-1", ShiftHours: floatPtr(0)}
		r := NewResolver(repo, nil)

		_, err := r.Resolve(ctx, "su-1")
		assert.ErrorIs(t, err, policy.ErrInvalidShiftHours)
	})

	t.Run("stored negative autopay window rejected", func(t *testing.T) {
		repo := newFakePolicyRepo(policy.SubUnit{ID: "su-1", Name: "Dressing"})
		window := -1
		repo.overrides["su-1"] = policy.PolicyOverride{SubUnitID: "su-1", SundayAutopayWindowDays: &window}
		r := NewResolver(repo, nil)

		_, err := r.Resolve(ctx, "su-1")
		assert.ErrorIs(t, err, policy.ErrInvalidAutopayWindow)
	})

	t.Run("stored night start hour out of range rejected", func(t *testing.T) {
		repo := newFakePolicyRepo(policy.SubUnit{ID: "su-1", Name: "Packing"})
		hour := 24
		repo.overrides["su-1"] = policy.PolicyOverride{SubUnitID: "su-1", NightStartHour: &hour}
		r := NewResolver(repo, nil)

		_, err := r.Resolve(ctx, "su-1")
		assert.ErrorIs(t, err, policy.ErrInvalidNightStartHour)
	})
}

func TestResolver_CacheAndInvalidate(t *testing.T) {
	ctx := context.Background()
	repo := newFakePolicyRepo(policy.SubUnit{ID: "su-1", Name: "Packing"})
	r := NewResolver(repo, nil)

	first, err := r.Resolve(ctx, "su-1")
	require.NoError(t, err)
	_, err = r.Resolve(ctx, "su-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.subUnitHit)
	assert.Equal(t, policy.DefaultShiftHours, first.Policy.ShiftHours)

	repo.overrides["su-1"] = policy.PolicyOverride{SubUnitID: "su-1", ShiftHours: floatPtr(12)}

	cached, err := r.Resolve(ctx, "su-1")
	require.NoError(t, err)
	assert.Equal(t, policy.DefaultShiftHours, cached.Policy.ShiftHours)

	r.Invalidate("su-1")
	fresh, err := r.Resolve(ctx, "su-1")
	require.NoError(t, err)
	assert.Equal(t, 12.0, fresh.Policy.ShiftHours)
	assert.Equal(t, 2, repo.subUnitHit)

	r.InvalidateAll()
	_, err = r.Resolve(ctx, "su-1")
	require.NoError(t, err)
	assert.Equal(t, 3, repo.subUnitHit)
}

func TestEffectivePolicy(t *testing.T) {
	ctx := context.Background()
	repo := newFakePolicyRepo(policy.SubUnit{ID: "su-1", Name: "Dressing"})
	r := NewResolver(repo, nil)

	pol, err := EffectivePolicy(ctx, r, nil)
	require.NoError(t, err)
	assert.Equal(t, policy.DefaultPolicy(), pol)

	pol, err = EffectivePolicy(ctx, r, strPtr("unknown"))
	require.NoError(t, err)
	assert.Equal(t, policy.DefaultPolicy(), pol)

	pol, err = EffectivePolicy(ctx, r, strPtr("su-1"))
	require.NoError(t, err)
	assert.Equal(t, 10.0, pol.ShiftHours)
}

func TestShiftHoursFor(t *testing.T) {
	pol := policy.DefaultPolicy()
	pol.ShiftHours = 10

	hours, err := ShiftHoursFor(employee.Employee{ShiftText: "09:00-18:00"}, pol)
	require.NoError(t, err)
	assert.Equal(t, 9.0, hours)

	hours, err = ShiftHoursFor(employee.Employee{ShiftText: "General"}, pol)
	require.NoError(t, err)
	assert.Equal(t, 10.0, hours)

	hours, err = ShiftHoursFor(employee.Employee{}, policy.SalaryPolicy{})
	require.NoError(t, err)
	assert.Equal(t, policy.DefaultShiftHours, hours)

	_, err = ShiftHoursFor(employee.Employee{ShiftText: "30 hours"}, pol)
	assert.ErrorIs(t, err, employee.ErrInvalidShiftText)
}
