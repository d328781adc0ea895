package charge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/charge"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/cachebus"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/period"
)

type ChargeServiceImpl struct {
	chargeRepo charge.ChargeRateRepository
	trigger    payroll.Trigger
	bus        cachebus.Publisher
	now        func() time.Time

	mu     sync.RWMutex
	rates  map[employee.DeductionFlag]charge.ChargeRate
	loaded bool
}

func NewChargeService(chargeRepo charge.ChargeRateRepository, trigger payroll.Trigger, bus cachebus.Publisher) *ChargeServiceImpl {
	return &ChargeServiceImpl{
		chargeRepo: chargeRepo,
		trigger:    trigger,
		bus:        bus,
		now:        time.Now,
	}
}

func (s *ChargeServiceImpl) Rates(ctx context.Context) (map[employee.DeductionFlag]charge.ChargeRate, error) {
	s.mu.RLock()
	if s.loaded {
		rates := s.rates
		s.mu.RUnlock()
		return rates, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.rates, nil
	}

	list, err := s.chargeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load charge rates: %w", err)
	}
	rates := make(map[employee.DeductionFlag]charge.ChargeRate, len(list))
	for _, r := range list {
		rates[r.Code] = r
	}
	s.rates = rates
	s.loaded = true
	return rates, nil
}

func (s *ChargeServiceImpl) List(ctx context.Context) ([]charge.ChargeRateResponse, error) {
	rates, err := s.Rates(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]charge.ChargeRateResponse, 0, len(rates))
	for _, code := range charge.Codes() {
		r, ok := rates[code]
		if !ok {
			continue
		}
		responses = append(responses, toResponse(r))
	}
	return responses, nil
}

func (s *ChargeServiceImpl) Upsert(ctx context.Context, req charge.UpsertChargeRateRequest) (charge.ChargeRateResponse, error) {
	if err := req.Validate(); err != nil {
		return charge.ChargeRateResponse{}, err
	}

	saved, err := s.chargeRepo.Upsert(ctx, charge.ChargeRate{
		Code:      employee.DeductionFlag(req.Code),
		ValueType: req.ValueType,
		Value:     req.Value,
	})
	if err != nil {
		return charge.ChargeRateResponse{}, fmt.Errorf("failed to save charge rate: %w", err)
	}

	s.changed(ctx, req.Code)
	return toResponse(saved), nil
}

func (s *ChargeServiceImpl) Delete(ctx context.Context, code string) error {
	flag := employee.DeductionFlag(code)
	if !charge.IsValidCode(flag) {
		return charge.ErrInvalidChargeCode
	}
	if err := s.chargeRepo.Delete(ctx, flag); err != nil {
		return err
	}

	s.changed(ctx, code)
	return nil
}

// Invalidate drops the cached rates; the next Rates call reloads them.
func (s *ChargeServiceImpl) Invalidate() {
	s.mu.Lock()
	s.rates = nil
	s.loaded = false
	s.mu.Unlock()
}

// changed evicts the rates on every instance and queues the months that are
// still open. Closed months keep the rates they were computed with.
func (s *ChargeServiceImpl) changed(ctx context.Context, code string) {
	s.Invalidate()
	if err := s.bus.Publish(ctx, cachebus.TopicChargeRates, ""); err != nil {
		slog.Warn("Charge rate change not broadcast", "code", code, "error", err)
	}

	for _, monthKey := range period.OpenMonthKeys(s.now()) {
		if !s.trigger.Enqueue(monthKey) {
			slog.Warn("Payroll recalculation not queued after charge change", "code", code, "month_key", monthKey)
		}
	}
}

func toResponse(r charge.ChargeRate) charge.ChargeRateResponse {
	return charge.ChargeRateResponse{
		Code:      r.Code,
		ValueType: r.ValueType,
		Value:     r.Value,
		UpdatedAt: r.UpdatedAt,
	}
}
