package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	GetPayroll(w http.ResponseWriter, r *http.Request)
	GetMonth(w http.ResponseWriter, r *http.Request)
	Exists(w http.ResponseWriter, r *http.Request)
	Recalculate(w http.ResponseWriter, r *http.Request)
	UpdateItemStatus(w http.ResponseWriter, r *http.Request)
	CalculateEmployee(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// GetPayroll serves a full month from the cache and computes any other window on demand.
func (h *payrollHandlerImpl) GetPayroll(w http.ResponseWriter, r *http.Request) {
	from, to, err := validator.ParseDateRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.GetPayroll(r.Context(), from, to)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) GetMonth(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.GetMonth(r.Context(), chi.URLParam(r, "monthKey"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) Exists(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.Exists(r.Context(), chi.URLParam(r, "monthKey"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Recalculate rebuilds the month synchronously. With ?async=true it is queued instead.
func (h *payrollHandlerImpl) Recalculate(w http.ResponseWriter, r *http.Request) {
	monthKey := chi.URLParam(r, "monthKey")

	if r.URL.Query().Get("async") == "true" {
		result, err := h.payrollService.RequestRecalculation(r.Context(), monthKey)
		if err != nil {
			response.HandleError(w, err)
			return
		}
		response.Accepted(w, "Recalculation queued", result)
		return
	}

	result, err := h.payrollService.RecalculateNow(r.Context(), monthKey)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll recalculated", result)
}

func (h *payrollHandlerImpl) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	var req payroll.UpdateItemStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.MonthKey = chi.URLParam(r, "monthKey")
	req.EmployeeID = chi.URLParam(r, "employeeID")

	result, err := h.payrollService.UpdateItemStatus(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) CalculateEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := idParam(r, "employeeID")
	if !ok {
		response.BadRequest(w, "Invalid employee ID", nil)
		return
	}
	from, to, err := validator.ParseDateRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.CalculateEmployee(r.Context(), employeeID, from, to)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
