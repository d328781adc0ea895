package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/period"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

// PayrollView is what readers get for a window. NotCalculated distinguishes a full
// month with no cached record from a month with zero employees.
type PayrollView struct {
	From          string     `json:"from"`
	To            string     `json:"to"`
	MonthKey      string     `json:"month_key,omitempty"`
	Cached        bool       `json:"cached"`
	NotCalculated bool       `json:"not_calculated"`
	Items         []LineItem `json:"items"`
	Summary       *Summary   `json:"summary,omitempty"`
	TotalRecords  int        `json:"total_records"`
	CalculatedAt  *time.Time `json:"calculated_at,omitempty"`
}

func NewViewFromRecord(rec MonthlyRecord) PayrollView {
	summary := rec.Summary
	calculatedAt := rec.CalculatedAt
	items := rec.Items
	if items == nil {
		items = []LineItem{}
	}
	return PayrollView{
		From:         rec.WindowStart.Format(time.DateOnly),
		To:           rec.WindowEnd.Format(time.DateOnly),
		MonthKey:     rec.MonthKey,
		Cached:       true,
		Items:        items,
		Summary:      &summary,
		TotalRecords: rec.TotalRecords,
		CalculatedAt: &calculatedAt,
	}
}

type MonthExistsResponse struct {
	MonthKey string `json:"month_key"`
	Exists   bool   `json:"exists"`
}

type RecalculationResponse struct {
	MonthKey string `json:"month_key"`
	Queued   bool   `json:"queued"`
}

type UpdateItemStatusRequest struct {
	MonthKey   string     `json:"-"`
	EmployeeID string     `json:"-"`
	Status     ItemStatus `json:"status"`
	Note       *string    `json:"note,omitempty"`
}

func (r *UpdateItemStatusRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, _, err := period.ParseMonthKey(r.MonthKey); err != nil {
		errs = append(errs, validator.ValidationError{Field: "month_key", Message: "must be in YYYY-M format"})
	}
	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if !r.Status.IsValid() {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "must be 'Calculated' or 'Paid'"})
	}
	if r.Note != nil && len(*r.Note) > 500 {
		errs = append(errs, validator.ValidationError{Field: "note", Message: "must be at most 500 characters"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
