package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/charge"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type ChargeHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Upsert(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type chargeHandlerImpl struct {
	chargeService charge.ChargeService
}

func NewChargeHandler(chargeService charge.ChargeService) ChargeHandler {
	return &chargeHandlerImpl{chargeService: chargeService}
}

func (h *chargeHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.chargeService.List(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *chargeHandlerImpl) Upsert(w http.ResponseWriter, r *http.Request) {
	var req charge.UpsertChargeRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.Code = chi.URLParam(r, "code")

	result, err := h.chargeService.Upsert(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Charge rate saved", result)
}

func (h *chargeHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.chargeService.Delete(r.Context(), chi.URLParam(r, "code")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Charge rate removed", nil)
}
