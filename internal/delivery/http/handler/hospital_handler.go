package handler

import (
	"net/http"

	"healthcare-crm-backend/internal/usecase"
	"healthcare-crm-backend/pkg/response"
)

type HospitalHandler struct {
	hospitalUsecase usecase.HospitalUsecase
}

func NewHospitalHandler(hospitalUsecase usecase.HospitalUsecase) *HospitalHandler {
	return &HospitalHandler{
		hospitalUsecase: hospitalUsecase,
	}
}

func (h *HospitalHandler) ListCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.hospitalUsecase.ListCities(r.Context())
	if err != nil {
		response.FromError(w, err, "Failed to get cities")
		return
	}

	response.Success(w, http.StatusOK, "Cities retrieved successfully", cities)
}

func (h *HospitalHandler) ListHospitals(w http.ResponseWriter, r *http.Request) {
	hospitals, err := h.hospitalUsecase.ListByCity(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		response.FromError(w, err, "Failed to get hospitals")
		return
	}

	response.Success(w, http.StatusOK, "Hospitals retrieved successfully", hospitals)
}
