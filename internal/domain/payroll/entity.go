package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/shopspring/decimal"
)

type ItemStatus string

const (
	ItemStatusCalculated ItemStatus = "Calculated"
	ItemStatusPaid       ItemStatus = "Paid"
)

func (s ItemStatus) IsValid() bool {
	return s == ItemStatusCalculated || s == ItemStatusPaid
}

const WarningNegativeNet = "negative_net"

// Deductions holds one amount per supported charge.
type Deductions struct {
	TDS       decimal.Decimal `json:"tds"`
	PTax      decimal.Decimal `json:"ptax"`
	LWF       decimal.Decimal `json:"lwf"`
	ESI       decimal.Decimal `json:"esi"`
	PF        decimal.Decimal `json:"pf"`
	OTPF      decimal.Decimal `json:"ot_pf"`
	Insurance decimal.Decimal `json:"insurance"`
}

func (d *Deductions) Set(code employee.DeductionFlag, amount decimal.Decimal) {
	switch code {
	case employee.DeductionTDS:
		d.TDS = amount
	case employee.DeductionPTax:
		d.PTax = amount
	case employee.DeductionLWF:
		d.LWF = amount
	case employee.DeductionESI:
		d.ESI = amount
	case employee.DeductionPF:
		d.PF = amount
	case employee.DeductionOTPF:
		d.OTPF = amount
	case employee.DeductionInsurance:
		d.Insurance = amount
	}
}

func (d Deductions) Total() decimal.Decimal {
	return d.TDS.Add(d.PTax).Add(d.LWF).Add(d.ESI).Add(d.PF).Add(d.OTPF).Add(d.Insurance)
}

// LineItem is one employee's computed payroll for a window.
// Status and Note are operator-owned and survive recomputation.
type LineItem struct {
	EmployeeID   string              `json:"employee_id"`
	EmployeeCode string              `json:"employee_code"`
	EmployeeName string              `json:"employee_name"`
	SubUnitID    *string             `json:"sub_unit_id,omitempty"`
	SalaryType   employee.SalaryType `json:"salary_type"`
	Salary       decimal.Decimal     `json:"salary"`
	FixedSalary  bool                `json:"fixed_salary"`
	ShiftHours   float64             `json:"shift_hours"`
	DaysInWindow int                 `json:"days_in_window"`
	PresentDays  int                 `json:"present_days"`

	BasicHours      float64 `json:"basic_hours"`
	OTHours         float64 `json:"ot_hours"`
	DayOTHours      float64 `json:"day_ot_hours"`
	NightOTHours    float64 `json:"night_ot_hours"`
	SundayOTHours   float64 `json:"sunday_ot_hours"`
	FestivalOTHours float64 `json:"festival_ot_hours"`

	SalaryPerDay  decimal.Decimal `json:"salary_per_day"`
	SalaryPerHour decimal.Decimal `json:"salary_per_hour"`
	OTRate        decimal.Decimal `json:"ot_rate"`
	BasicPay      decimal.Decimal `json:"basic_pay"`
	OTPay         decimal.Decimal `json:"ot_pay"`
	TotalPay      decimal.Decimal `json:"total_pay"`

	Deductions      Deductions      `json:"deductions"`
	LoanPending     decimal.Decimal `json:"loan_pending"`
	LoanReceived    decimal.Decimal `json:"loan_received"`
	LoanDeducted    decimal.Decimal `json:"loan_deducted"`
	AdvanceDeducted decimal.Decimal `json:"advance_deducted"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	NetPay          decimal.Decimal `json:"net_pay"`
	Warnings        []string        `json:"warnings,omitempty"`

	Status ItemStatus `json:"status"`
	Note   string     `json:"note"`
}

type Summary struct {
	EmployeeCount    int             `json:"employee_count"`
	PaidCount        int             `json:"paid_count"`
	NegativeNetCount int             `json:"negative_net_count"`
	TotalBasicHours  float64         `json:"total_basic_hours"`
	TotalOTHours     float64         `json:"total_ot_hours"`
	TotalBasicPay    decimal.Decimal `json:"total_basic_pay"`
	TotalOTPay       decimal.Decimal `json:"total_ot_pay"`
	TotalPay         decimal.Decimal `json:"total_pay"`
	TotalDeductions  decimal.Decimal `json:"total_deductions"`
	TotalNetPay      decimal.Decimal `json:"total_net_pay"`
}

// MonthlyRecord is the cached payroll of one calendar month, unique by MonthKey.
type MonthlyRecord struct {
	ID           string
	MonthKey     string
	WindowStart  time.Time
	WindowEnd    time.Time
	Items        []LineItem
	Summary      Summary
	TotalRecords int
	CalculatedAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summarize totals a list of line items.
func Summarize(items []LineItem) Summary {
	s := Summary{
		EmployeeCount:   len(items),
		TotalBasicPay:   decimal.Zero,
		TotalOTPay:      decimal.Zero,
		TotalPay:        decimal.Zero,
		TotalDeductions: decimal.Zero,
		TotalNetPay:     decimal.Zero,
	}
	for _, it := range items {
		if it.Status == ItemStatusPaid {
			s.PaidCount++
		}
		if it.NetPay.IsNegative() {
			s.NegativeNetCount++
		}
		s.TotalBasicHours += it.BasicHours
		s.TotalOTHours += it.OTHours
		s.TotalBasicPay = s.TotalBasicPay.Add(it.BasicPay)
		s.TotalOTPay = s.TotalOTPay.Add(it.OTPay)
		s.TotalPay = s.TotalPay.Add(it.TotalPay)
		s.TotalDeductions = s.TotalDeductions.Add(it.TotalDeductions)
		s.TotalNetPay = s.TotalNetPay.Add(it.NetPay)
	}
	s.TotalBasicHours = round2(s.TotalBasicHours)
	s.TotalOTHours = round2(s.TotalOTHours)
	return s
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
