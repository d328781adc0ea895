package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
)

type PolicyHandler interface {
	GetResolved(w http.ResponseWriter, r *http.Request)
	GetOverride(w http.ResponseWriter, r *http.Request)
	UpsertOverride(w http.ResponseWriter, r *http.Request)
	DeleteOverride(w http.ResponseWriter, r *http.Request)
}

type policyHandlerImpl struct {
	policyService policy.PolicyService
}

func NewPolicyHandler(policyService policy.PolicyService) PolicyHandler {
	return &policyHandlerImpl{policyService: policyService}
}

// GetResolved shows the effective policy and which branch produced it.
func (h *policyHandlerImpl) GetResolved(w http.ResponseWriter, r *http.Request) {
	subUnitID, ok := idParam(r, "subUnitID")
	if !ok {
		response.BadRequest(w, "Invalid sub-unit ID", nil)
		return
	}

	result, err := h.policyService.GetResolved(r.Context(), subUnitID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *policyHandlerImpl) GetOverride(w http.ResponseWriter, r *http.Request) {
	subUnitID, ok := idParam(r, "subUnitID")
	if !ok {
		response.BadRequest(w, "Invalid sub-unit ID", nil)
		return
	}

	result, err := h.policyService.GetOverride(r.Context(), subUnitID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *policyHandlerImpl) UpsertOverride(w http.ResponseWriter, r *http.Request) {
	subUnitID, ok := idParam(r, "subUnitID")
	if !ok {
		response.BadRequest(w, "Invalid sub-unit ID", nil)
		return
	}

	var req policy.UpsertPolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.SubUnitID = subUnitID

	result, err := h.policyService.UpsertOverride(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary policy saved", result)
}

func (h *policyHandlerImpl) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	subUnitID, ok := idParam(r, "subUnitID")
	if !ok {
		response.BadRequest(w, "Invalid sub-unit ID", nil)
		return
	}

	if err := h.policyService.DeleteOverride(r.Context(), subUnitID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary policy override removed", nil)
}
