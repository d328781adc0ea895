package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/period"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	defaultParallelism   = 8
	defaultRecalcTimeout = 2 * time.Minute
)

type CacheConfig struct {
	// Parallelism bounds how many employees are computed at once.
	Parallelism int
	// Timeout bounds one whole-month rebuild.
	Timeout time.Duration
	// LockTTL is how long the cross-instance month lock is held at most.
	LockTTL time.Duration
}

// Notifier is told about every month record written by a rebuild.
type Notifier interface {
	PayrollRecalculated(rec payroll.MonthlyRecord)
}

type CacheManagerImpl struct {
	transactor   database.Transactor
	payrollRepo  payroll.MonthlyPayrollRepository
	employeeRepo employee.EmployeeRepository
	calculator   payroll.Calculator
	locker       lock.Locker
	notifier     Notifier
	cfg          CacheConfig
	now          func() time.Time

	inflight singleflight.Group

	// requests counts Recalculate calls per month; a rebuild covers every
	// request counted before it started.
	requestsMu sync.Mutex
	requests   map[string]uint64
}

type rebuildResult struct {
	record payroll.MonthlyRecord
	covers uint64
}

func NewCacheManager(
	transactor database.Transactor,
	payrollRepo payroll.MonthlyPayrollRepository,
	employeeRepo employee.EmployeeRepository,
	calculator payroll.Calculator,
	locker lock.Locker,
	notifier Notifier,
	cfg CacheConfig,
) *CacheManagerImpl {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = defaultParallelism
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRecalcTimeout
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = cfg.Timeout + 30*time.Second
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &CacheManagerImpl{
		transactor:   transactor,
		payrollRepo:  payrollRepo,
		employeeRepo: employeeRepo,
		calculator:   calculator,
		locker:       locker,
		notifier:     notifier,
		cfg:          cfg,
		now:          time.Now,
		requests:     make(map[string]uint64),
	}
}

// Recalculate rebuilds and replaces the cached record of one month. Concurrent
// calls for the same month share one computation, but a call never returns a
// rebuild that started before it arrived.
func (m *CacheManagerImpl) Recalculate(ctx context.Context, monthKey string) (payroll.MonthlyRecord, error) {
	window, err := period.MonthOfKey(monthKey)
	if err != nil {
		return payroll.MonthlyRecord{}, err
	}
	key := window.MonthKey()
	want := m.countRequest(key)

	for {
		v, err, shared := m.inflight.Do(key, func() (interface{}, error) {
			covers := m.requestCount(key)
			rec, err := m.rebuild(context.WithoutCancel(ctx), key, window)
			return rebuildResult{record: rec, covers: covers}, err
		})
		res := v.(rebuildResult)
		if res.covers >= want {
			if err != nil {
				return payroll.MonthlyRecord{}, err
			}
			if shared {
				slog.Debug("Joined in-flight payroll rebuild", "month_key", key)
			}
			return res.record, nil
		}
		slog.Debug("Joined payroll rebuild predates the request, rebuilding again", "month_key", key)
		if err := ctx.Err(); err != nil {
			return payroll.MonthlyRecord{}, err
		}
	}
}

func (m *CacheManagerImpl) countRequest(monthKey string) uint64 {
	m.requestsMu.Lock()
	defer m.requestsMu.Unlock()
	m.requests[monthKey]++
	return m.requests[monthKey]
}

func (m *CacheManagerImpl) requestCount(monthKey string) uint64 {
	m.requestsMu.Lock()
	defer m.requestsMu.Unlock()
	return m.requests[monthKey]
}

func (m *CacheManagerImpl) rebuild(ctx context.Context, monthKey string, window period.Period) (payroll.MonthlyRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	release, err := m.locker.Obtain(ctx, "payroll:month:"+monthKey, m.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotObtained) {
			return payroll.MonthlyRecord{}, payroll.ErrRecalculationBusy
		}
		return payroll.MonthlyRecord{}, err
	}
	defer release()

	started := m.now()
	items, err := m.computeAll(ctx, window)
	if err != nil {
		return payroll.MonthlyRecord{}, err
	}

	var saved payroll.MonthlyRecord
	err = m.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		existing, err := m.payrollRepo.GetByMonthKeyForUpdate(txCtx, monthKey)
		if err != nil && !errors.Is(err, payroll.ErrMonthlyPayrollNotFound) {
			return fmt.Errorf("failed to load monthly payroll: %w", err)
		}

		merged, err := MergeOperatorFields(existing.Items, items)
		if err != nil {
			slog.Error("Monthly payroll rebuild aborted", "month_key", monthKey, "error", err)
			return err
		}

		saved, err = m.payrollRepo.Upsert(txCtx, payroll.MonthlyRecord{
			MonthKey:     monthKey,
			WindowStart:  window.Start,
			WindowEnd:    window.End,
			Items:        merged,
			Summary:      payroll.Summarize(merged),
			TotalRecords: len(merged),
			CalculatedAt: m.now(),
		})
		if err != nil {
			return fmt.Errorf("failed to save monthly payroll: %w", err)
		}
		return nil
	})
	if err != nil {
		return payroll.MonthlyRecord{}, err
	}

	slog.Info("Monthly payroll recalculated",
		"month_key", monthKey,
		"employees", saved.TotalRecords,
		"duration", m.now().Sub(started),
	)
	if m.notifier != nil {
		m.notifier.PayrollRecalculated(saved)
	}
	return saved, nil
}

// computeAll calculates every active employee with bounded parallelism. The
// first failure cancels the rest.
func (m *CacheManagerImpl) computeAll(ctx context.Context, window period.Period) ([]payroll.LineItem, error) {
	employees, err := m.employeeRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}

	items := make([]payroll.LineItem, len(employees))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Parallelism)

	for i, emp := range employees {
		g.Go(func() error {
			item, err := m.calculator.Calculate(gCtx, emp, window.Start, window.End)
			if err != nil {
				return fmt.Errorf("employee %s: %w", emp.ID, err)
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortItems(items)
	return items, nil
}

// MergeOperatorFields carries Status and Note forward from existing items to
// fresh ones with the same employee. New employees start as Calculated.
func MergeOperatorFields(existing, fresh []payroll.LineItem) ([]payroll.LineItem, error) {
	type operatorFields struct {
		status payroll.ItemStatus
		note   string
	}

	carried := make(map[string]operatorFields, len(existing))
	for _, it := range existing {
		if _, dup := carried[it.EmployeeID]; dup {
			return nil, fmt.Errorf("%w: %s", payroll.ErrDuplicateEmployeeItem, it.EmployeeID)
		}
		carried[it.EmployeeID] = operatorFields{status: it.Status, note: it.Note}
	}

	merged := make([]payroll.LineItem, len(fresh))
	seen := make(map[string]struct{}, len(fresh))
	for i, it := range fresh {
		if _, dup := seen[it.EmployeeID]; dup {
			return nil, fmt.Errorf("%w: %s", payroll.ErrDuplicateEmployeeItem, it.EmployeeID)
		}
		seen[it.EmployeeID] = struct{}{}

		it.Status, it.Note = payroll.ItemStatusCalculated, ""
		if prev, ok := carried[it.EmployeeID]; ok {
			if prev.status.IsValid() {
				it.Status = prev.status
			}
			it.Note = prev.note
		}
		merged[i] = it
	}
	return merged, nil
}

// Get returns the payroll of [from, to]. A full calendar month is served from
// the cache only; any other window is computed on the fly and not stored.
func (m *CacheManagerImpl) Get(ctx context.Context, from, to time.Time) (payroll.PayrollView, error) {
	window, err := period.New(from, to)
	if err != nil {
		return payroll.PayrollView{}, err
	}

	if window.IsFullMonth() {
		rec, err := m.payrollRepo.GetByMonthKey(ctx, window.MonthKey())
		if err != nil {
			if errors.Is(err, payroll.ErrMonthlyPayrollNotFound) {
				return payroll.PayrollView{
					From:          window.Start.Format(time.DateOnly),
					To:            window.End.Format(time.DateOnly),
					MonthKey:      window.MonthKey(),
					NotCalculated: true,
					Items:         []payroll.LineItem{},
				}, nil
			}
			return payroll.PayrollView{}, err
		}
		return payroll.NewViewFromRecord(rec), nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	items, err := m.computeAll(ctx, window)
	if err != nil {
		return payroll.PayrollView{}, err
	}
	summary := payroll.Summarize(items)
	calculatedAt := m.now()
	return payroll.PayrollView{
		From:         window.Start.Format(time.DateOnly),
		To:           window.End.Format(time.DateOnly),
		Items:        items,
		Summary:      &summary,
		TotalRecords: len(items),
		CalculatedAt: &calculatedAt,
	}, nil
}

func (m *CacheManagerImpl) Exists(ctx context.Context, monthKey string) (bool, error) {
	window, err := period.MonthOfKey(monthKey)
	if err != nil {
		return false, err
	}
	return m.payrollRepo.Exists(ctx, window.MonthKey())
}

// UpdateItemStatus records an operator decision on one line item. The row lock
// orders it against a concurrent rebuild so neither write is lost.
func (m *CacheManagerImpl) UpdateItemStatus(ctx context.Context, req payroll.UpdateItemStatusRequest) (payroll.LineItem, error) {
	if err := req.Validate(); err != nil {
		return payroll.LineItem{}, err
	}
	window, err := period.MonthOfKey(req.MonthKey)
	if err != nil {
		return payroll.LineItem{}, err
	}
	monthKey := window.MonthKey()

	var updated payroll.LineItem
	err = m.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		rec, err := m.payrollRepo.GetByMonthKeyForUpdate(txCtx, monthKey)
		if err != nil {
			return err
		}

		idx := -1
		for i := range rec.Items {
			if rec.Items[i].EmployeeID == req.EmployeeID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return payroll.ErrPayrollItemNotFound
		}

		rec.Items[idx].Status = req.Status
		if req.Note != nil {
			rec.Items[idx].Note = *req.Note
		}
		rec.Summary = payroll.Summarize(rec.Items)

		if _, err := m.payrollRepo.Upsert(txCtx, rec); err != nil {
			return fmt.Errorf("failed to save monthly payroll: %w", err)
		}
		updated = rec.Items[idx]
		return nil
	})
	if err != nil {
		return payroll.LineItem{}, err
	}

	slog.Info("Payroll item updated", "month_key", monthKey, "employee_id", req.EmployeeID, "status", req.Status)
	return updated, nil
}

func sortItems(items []payroll.LineItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].EmployeeCode != items[j].EmployeeCode {
			return items[i].EmployeeCode < items[j].EmployeeCode
		}
		return items[i].EmployeeID < items[j].EmployeeID
	})
}
