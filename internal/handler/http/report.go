package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type ReportHandler interface {
	GetAttendanceReport(w http.ResponseWriter, r *http.Request)
	GetMonthlySummary(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
}

func NewReportHandler(reportService report.ReportService) ReportHandler {
	return &reportHandlerImpl{reportService: reportService}
}

func reportRequest(r *http.Request) report.AttendanceReportRequest {
	return report.AttendanceReportRequest{
		EmployeeID: chi.URLParam(r, "employeeID"),
		Year:       r.URL.Query().Get("year"),
		Month:      r.URL.Query().Get("month"),
	}
}

// GetAttendanceReport returns the calendar grid for one employee and month.
func (h *reportHandlerImpl) GetAttendanceReport(w http.ResponseWriter, r *http.Request) {
	result, err := h.reportService.GetAttendanceReport(r.Context(), reportRequest(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *reportHandlerImpl) GetMonthlySummary(w http.ResponseWriter, r *http.Request) {
	result, err := h.reportService.GetMonthlySummary(r.Context(), reportRequest(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
