package sse

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
)

const EventPayrollRecalculated = "payroll.recalculated"

type PayrollRecalculatedData struct {
	MonthKey     string          `json:"month_key"`
	TotalRecords int             `json:"total_records"`
	CalculatedAt time.Time       `json:"calculated_at"`
	Summary      payroll.Summary `json:"summary"`
}

// PayrollNotifier broadcasts finished month rebuilds to every open stream.
type PayrollNotifier struct {
	hub *Hub
}

func NewPayrollNotifier(hub *Hub) *PayrollNotifier {
	return &PayrollNotifier{hub: hub}
}

func (n *PayrollNotifier) PayrollRecalculated(rec payroll.MonthlyRecord) {
	n.hub.Broadcast(Event{
		Event: EventPayrollRecalculated,
		Data: PayrollRecalculatedData{
			MonthKey:     rec.MonthKey,
			TotalRecords: rec.TotalRecords,
			CalculatedAt: rec.CalculatedAt,
			Summary:      rec.Summary,
		},
	})
}
