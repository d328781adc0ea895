package policy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
)

// Rule maps a sub-unit name pattern to a policy. Rules are evaluated in order and
// the first match wins.
type Rule struct {
	Name   string
	Match  func(name string) bool
	Policy policy.SalaryPolicy
}

func containsAny(keywords ...string) func(string) bool {
	return func(name string) bool {
		name = strings.ToLower(name)
		for _, kw := range keywords {
			if strings.Contains(name, kw) {
				return true
			}
		}
		return false
	}
}

// DefaultRules is the built-in name heuristic table used when a sub-unit has no
// configured override.
func DefaultRules() []Rule {
	head := policy.DefaultPolicy()
	head.FixedSalary = true
	head.AllowDayOT, head.AllowNightOT, head.AllowSundayOT, head.AllowFestivalOT = false, false, false, false

	foreman := policy.DefaultPolicy()
	foreman.FixedSalary = true
	foreman.AllowDayOT, foreman.AllowSundayOT, foreman.AllowFestivalOT = false, false, false

	driver := policy.DefaultPolicy()
	driver.FixedSalary = true
	driver.AllowDayOT = false

	office := policy.DefaultPolicy()
	office.AllowDayOT = false
	office.PaidHolidaysPerMonth = 1

	dressing := policy.DefaultPolicy()
	dressing.ShiftHours = 10
	dressing.SundayAutopayWindowDays = 2

	finishing := policy.DefaultPolicy()
	finishing.ShiftHours = 10

	return []Rule{
		{Name: "head", Match: containsAny("head"), Policy: head},
		{Name: "foreman", Match: containsAny("foreman"), Policy: foreman},
		{Name: "driver", Match: containsAny("driver"), Policy: driver},
		{Name: "office_staff", Match: containsAny("office staff"), Policy: office},
		{Name: "dressing", Match: containsAny("dressing"), Policy: dressing},
		{Name: "finishing", Match: containsAny("finish"), Policy: finishing},
	}
}

// MatchRule returns the first rule whose pattern matches name.
func MatchRule(rules []Rule, name string) (Rule, bool) {
	for _, r := range rules {
		if r.Match(name) {
			return r, true
		}
	}
	return Rule{}, false
}

type ResolverImpl struct {
	policyRepo policy.PolicyRepository
	rules      []Rule

	mu    sync.RWMutex
	cache map[string]policy.Resolved
	gen   uint64
}

func NewResolver(policyRepo policy.PolicyRepository, rules []Rule) *ResolverImpl {
	if rules == nil {
		rules = DefaultRules()
	}
	return &ResolverImpl{
		policyRepo: policyRepo,
		rules:      rules,
		cache:      make(map[string]policy.Resolved),
	}
}

func (r *ResolverImpl) Resolve(ctx context.Context, subUnitID string) (*policy.Resolved, error) {
	if strings.TrimSpace(subUnitID) == "" {
		return nil, nil
	}

	r.mu.RLock()
	cached, ok := r.cache[subUnitID]
	gen := r.gen
	r.mu.RUnlock()
	if ok {
		return &cached, nil
	}

	resolved, err := r.load(ctx, subUnitID)
	if err != nil || resolved == nil {
		return resolved, err
	}

	r.mu.Lock()
	// skip caching when an invalidation ran during the load
	if r.gen == gen {
		r.cache[subUnitID] = *resolved
	}
	r.mu.Unlock()

	return resolved, nil
}

func (r *ResolverImpl) load(ctx context.Context, subUnitID string) (*policy.Resolved, error) {
	unit, err := r.policyRepo.GetSubUnit(ctx, subUnitID)
	if err != nil {
		if errors.Is(err, policy.ErrSubUnitNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sub-unit: %w", err)
	}

	resolved := policy.Resolved{SubUnitID: subUnitID}

	override, err := r.policyRepo.GetOverride(ctx, subUnitID)
	switch {
	case err == nil:
		resolved.Policy = override.MergeOver(policy.DefaultPolicy())
		resolved.Source = policy.SourceOverride
	case errors.Is(err, policy.ErrPolicyOverrideNotFound):
		if rule, ok := MatchRule(r.rules, unit.Name); ok {
			resolved.Policy = rule.Policy
			resolved.Source = policy.SourceHeuristic
			resolved.RuleName = rule.Name
		} else {
			resolved.Policy = policy.DefaultPolicy()
			resolved.Source = policy.SourceDefault
		}
	default:
		return nil, fmt.Errorf("failed to get policy override: %w", err)
	}

	if err := resolved.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("sub-unit %s: %w", subUnitID, err)
	}
	return &resolved, nil
}

func (r *ResolverImpl) Invalidate(subUnitID string) {
	r.mu.Lock()
	delete(r.cache, subUnitID)
	r.gen++
	r.mu.Unlock()
}

func (r *ResolverImpl) InvalidateAll() {
	r.mu.Lock()
	r.cache = make(map[string]policy.Resolved)
	r.gen++
	r.mu.Unlock()
}

// InvalidateKey handles a broadcast eviction; an empty key drops every entry.
func (r *ResolverImpl) InvalidateKey(subUnitID string) {
	if subUnitID == "" {
		r.InvalidateAll()
		return
	}
	r.Invalidate(subUnitID)
}

// EffectivePolicy resolves the policy for an optional sub-unit and falls back to
// the global default when the sub-unit is missing or unknown.
func EffectivePolicy(ctx context.Context, resolver policy.Resolver, subUnitID *string) (policy.SalaryPolicy, error) {
	if subUnitID == nil {
		return policy.DefaultPolicy(), nil
	}
	resolved, err := resolver.Resolve(ctx, *subUnitID)
	if err != nil {
		return policy.SalaryPolicy{}, err
	}
	if resolved == nil {
		return policy.DefaultPolicy(), nil
	}
	return resolved.Policy, nil
}

// ShiftHoursFor prefers the hours written in the employee's shift text, then the
// policy shift.
func ShiftHoursFor(emp employee.Employee, pol policy.SalaryPolicy) (float64, error) {
	hours, ok, err := employee.ParseShiftHours(emp.ShiftText)
	if err != nil {
		return 0, fmt.Errorf("employee %s: %w", emp.ID, err)
	}
	if ok {
		return hours, nil
	}
	if pol.ShiftHours > 0 {
		return pol.ShiftHours, nil
	}
	return policy.DefaultShiftHours, nil
}
