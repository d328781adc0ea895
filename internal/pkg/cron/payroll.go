package cron

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/period"
)

type PayrollJobs struct {
	trigger  payroll.Trigger
	location *time.Location
	now      func() time.Time
}

func NewPayrollJobs(trigger payroll.Trigger, location *time.Location) *PayrollJobs {
	if location == nil {
		location = time.UTC
	}
	return &PayrollJobs{trigger: trigger, location: location, now: time.Now}
}

// RefreshOpenMonths queues a rebuild of the current month so open punches are
// recounted, plus the previous month during its first days.
func (j *PayrollJobs) RefreshOpenMonths(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var errs []error
	for _, key := range period.OpenMonthKeys(j.now().In(j.location)) {
		if !j.trigger.Enqueue(key) {
			errs = append(errs, errors.New("payroll recalculation not queued for "+key))
			continue
		}
		slog.Debug("Payroll refresh queued", "month_key", key)
	}
	return errors.Join(errs...)
}
